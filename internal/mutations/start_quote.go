package mutations

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"quote-engine/internal/model"
)

type startQuoteProps struct {
	DraftID   string `json:"draft_id"`
	TenantID  string `json:"tenant_id"`
	QuoteType string `json:"quote_type"`
}

type StartQuoteHandler struct{}

func (h *StartQuoteHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	if state != nil {
		return []model.CalculationMessage{model.Critical("DRAFT_ALREADY_STARTED", "A quote draft already exists")}
	}

	var props startQuoteProps
	if msgs := decodeProps(edit, &props); msgs != nil {
		return msgs
	}
	if !model.QuoteType(props.QuoteType).Valid() {
		return []model.CalculationMessage{model.Critical("INVALID_QUOTE_TYPE",
			fmt.Sprintf("Quote type must be health or dental, got %q", props.QuoteType))}
	}
	return nil
}

func (h *StartQuoteHandler) Apply(_ context.Context, env *Env, _ *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props startQuoteProps
	decodeProps(edit, &props)

	id := props.DraftID
	if id == "" {
		id = uuid.NewString()
	}
	tenant := props.TenantID
	if tenant == "" && env != nil {
		tenant = env.TenantID
	}
	return model.NewDraft(id, tenant, model.QuoteType(props.QuoteType)), nil
}
