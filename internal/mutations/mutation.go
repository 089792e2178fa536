package mutations

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"quote-engine/internal/catalog"
	"quote-engine/internal/model"
)

// Env carries what edits need from outside the draft.
type Env struct {
	Catalog  catalog.Source
	Now      func() time.Time
	TenantID string
}

func (e *Env) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// EditHandler defines the contract for every draft edit.
// Validate checks business rules against the current draft (nil before start_quote).
// Apply returns the next draft and never modifies the one it was given.
type EditHandler interface {
	Validate(ctx context.Context, env *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage
	Apply(ctx context.Context, env *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage)
}

func draftNotFound() []model.CalculationMessage {
	return []model.CalculationMessage{model.Critical("DRAFT_NOT_FOUND", "No quote draft has been started")}
}

func decodeProps(edit *model.Edit, props interface{}) []model.CalculationMessage {
	if len(edit.Properties) == 0 {
		return nil
	}
	if err := json.Unmarshal(edit.Properties, props); err != nil {
		return []model.CalculationMessage{model.Critical("INVALID_PROPERTIES",
			fmt.Sprintf("Properties of %s could not be read: %v", edit.Name, err))}
	}
	return nil
}

// requireDraft is the common validation of edits that work on an existing draft.
func requireDraft(state *model.Draft, edit *model.Edit, props interface{}) []model.CalculationMessage {
	if state == nil {
		return draftNotFound()
	}
	return decodeProps(edit, props)
}
