package mutations

import (
	"context"
	"errors"
	"fmt"

	"quote-engine/internal/catalog"
	"quote-engine/internal/funnel"
	"quote-engine/internal/model"
)

// funnelMessage maps a rejected funnel transition to a calculation message.
func funnelMessage(err error) model.CalculationMessage {
	switch {
	case errors.Is(err, funnel.ErrNoCandidates):
		return model.Warning("NO_PRODUCTS_CHOSEN", "Choose at least one product before confirming")
	case errors.Is(err, funnel.ErrWrongStep):
		return model.Critical("FUNNEL_STEP_MISMATCH", err.Error())
	case errors.Is(err, funnel.ErrUnknownTable):
		return model.Critical("UNKNOWN_TABLE", err.Error())
	case errors.Is(err, funnel.ErrUnknownProduct):
		return model.Critical("UNKNOWN_PRODUCT", err.Error())
	case errors.Is(err, funnel.ErrInvalidChoice):
		return model.Critical("INVALID_COPARTICIPATION", err.Error())
	default:
		return model.Critical("FUNNEL_ERROR", err.Error())
	}
}

type openPlanProps struct {
	PlanID string `json:"plan_id"`
}

// OpenPlanHandler starts the funnel on a plan, loading its details once per plan id.
type OpenPlanHandler struct{}

func (h *OpenPlanHandler) Validate(_ context.Context, env *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props openPlanProps
	if msgs := requireDraft(state, edit, &props); msgs != nil {
		return msgs
	}
	if props.PlanID == "" {
		return []model.CalculationMessage{model.Critical("INVALID_PLAN", "plan_id is required")}
	}
	if env == nil || env.Catalog == nil {
		return []model.CalculationMessage{model.Critical("CATALOG_UNAVAILABLE", "No plan catalog is configured")}
	}
	return nil
}

func (h *OpenPlanHandler) Apply(ctx context.Context, env *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props openPlanProps
	decodeProps(edit, &props)

	details, ok := state.Plan(props.PlanID)
	if !ok {
		var err error
		details, err = env.Catalog.PlanDetails(ctx, props.PlanID, state.Filters())
		if errors.Is(err, catalog.ErrPlanNotFound) {
			return state, []model.CalculationMessage{model.Critical("PLAN_NOT_FOUND",
				fmt.Sprintf("Plan %s does not exist", props.PlanID))}
		}
		if err != nil {
			return state, []model.CalculationMessage{model.Critical("PLAN_UNAVAILABLE",
				fmt.Sprintf("Plan %s could not be loaded: %v", props.PlanID, err))}
		}
	}

	next := state.WithPlan(details)
	next.Funnel = funnel.Open(details)

	var msgs []model.CalculationMessage
	if len(details.Tables) == 0 {
		msgs = append(msgs, model.Warning("PLAN_HAS_NO_TABLES", fmt.Sprintf("Plan %s has no rate tables", props.PlanID)))
	}
	return &next, msgs
}

type chooseTableProps struct {
	TableID string `json:"table_id"`
}

type ChooseTableHandler struct{}

func (h *ChooseTableHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props chooseTableProps
	return requireDraft(state, edit, &props)
}

func (h *ChooseTableHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props chooseTableProps
	decodeProps(edit, &props)

	f, err := state.Funnel.ChooseTable(props.TableID)
	if err != nil {
		return state, []model.CalculationMessage{funnelMessage(err)}
	}
	next := *state
	next.Funnel = f
	return &next, nil
}

type chooseCoparticipationProps struct {
	Coparticipation string `json:"coparticipation"`
}

type ChooseCoparticipationHandler struct{}

func (h *ChooseCoparticipationHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props chooseCoparticipationProps
	return requireDraft(state, edit, &props)
}

func (h *ChooseCoparticipationHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props chooseCoparticipationProps
	decodeProps(edit, &props)

	f, err := state.Funnel.ChooseCoparticipation(funnel.Choice(props.Coparticipation), state.Selection)
	if err != nil {
		return state, []model.CalculationMessage{funnelMessage(err)}
	}
	next := *state
	next.Funnel = f
	return &next, nil
}

type productProps struct {
	ProductID string `json:"product_id"`
}

type ToggleProductHandler struct{}

func (h *ToggleProductHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props productProps
	return requireDraft(state, edit, &props)
}

func (h *ToggleProductHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props productProps
	decodeProps(edit, &props)

	f, err := state.Funnel.Toggle(props.ProductID)
	if err != nil {
		return state, []model.CalculationMessage{funnelMessage(err)}
	}
	next := *state
	next.Funnel = f
	return &next, nil
}

// ConfirmSelectionHandler merges the funnel's products into the quote selection.
type ConfirmSelectionHandler struct{}

func (h *ConfirmSelectionHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props struct{}
	return requireDraft(state, edit, &props)
}

func (h *ConfirmSelectionHandler) Apply(_ context.Context, _ *Env, state *model.Draft, _ *model.Edit) (*model.Draft, []model.CalculationMessage) {
	f, selection, err := state.Funnel.Confirm(state.Selection)
	if err != nil {
		return state, []model.CalculationMessage{funnelMessage(err)}
	}
	next := *state
	next.Funnel = f
	next.Selection = selection
	return &next, nil
}

type FunnelBackHandler struct{}

func (h *FunnelBackHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props struct{}
	return requireDraft(state, edit, &props)
}

func (h *FunnelBackHandler) Apply(_ context.Context, _ *Env, state *model.Draft, _ *model.Edit) (*model.Draft, []model.CalculationMessage) {
	next := *state
	next.Funnel = state.Funnel.Back()
	return &next, nil
}

type CloseFunnelHandler struct{}

func (h *CloseFunnelHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props struct{}
	return requireDraft(state, edit, &props)
}

func (h *CloseFunnelHandler) Apply(_ context.Context, _ *Env, state *model.Draft, _ *model.Edit) (*model.Draft, []model.CalculationMessage) {
	next := *state
	next.Funnel = state.Funnel.Close()
	return &next, nil
}

// RemoveProductHandler drops a product from the quote selection, whatever the funnel is doing.
type RemoveProductHandler struct{}

func (h *RemoveProductHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props productProps
	return requireDraft(state, edit, &props)
}

func (h *RemoveProductHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props productProps
	decodeProps(edit, &props)

	if !state.Selection.Contains(props.ProductID) {
		return state, []model.CalculationMessage{model.Warning("PRODUCT_NOT_SELECTED",
			fmt.Sprintf("Product %s is not selected", props.ProductID))}
	}
	next := *state
	next.Selection = state.Selection.Remove(props.ProductID)
	return &next, nil
}
