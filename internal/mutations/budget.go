package mutations

import (
	"context"

	"quote-engine/internal/budget"
	"quote-engine/internal/model"
)

type budgetValueProps struct {
	Value float64 `json:"value"`
}

// SetBudgetHandleHandler moves one slider handle. The other handle never gets crossed.
type SetBudgetHandleHandler struct {
	Max bool
}

func (h *SetBudgetHandleHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props budgetValueProps
	return requireDraft(state, edit, &props)
}

func (h *SetBudgetHandleHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props budgetValueProps
	decodeProps(edit, &props)

	next := *state
	if h.Max {
		next.Budget = state.Budget.SetMax(props.Value)
	} else {
		next.Budget = state.Budget.SetMin(props.Value)
	}
	return &next, nil
}

type budgetPositionProps struct {
	Handle      string  `json:"handle"`
	Position    float64 `json:"position"`
	TrackLength float64 `json:"track_length"`
}

// SetBudgetPositionHandler handles a slider drag expressed as a position on the track.
type SetBudgetPositionHandler struct{}

func (h *SetBudgetPositionHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props budgetPositionProps
	if msgs := requireDraft(state, edit, &props); msgs != nil {
		return msgs
	}
	if props.Handle != "min" && props.Handle != "max" {
		return []model.CalculationMessage{model.Critical("INVALID_HANDLE", "Handle must be min or max")}
	}
	if props.TrackLength <= 0 {
		return []model.CalculationMessage{model.Critical("INVALID_TRACK_LENGTH", "Track length must be positive")}
	}
	return nil
}

func (h *SetBudgetPositionHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props budgetPositionProps
	decodeProps(edit, &props)

	value := float64(budget.PositionToValue(props.Position, props.TrackLength))
	next := *state
	if props.Handle == "max" {
		next.Budget = state.Budget.SetMax(value)
	} else {
		next.Budget = state.Budget.SetMin(value)
	}
	return &next, nil
}

type budgetTextProps struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// SetBudgetTextHandler commits the manually typed budget fields.
type SetBudgetTextHandler struct{}

func (h *SetBudgetTextHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props budgetTextProps
	return requireDraft(state, edit, &props)
}

func (h *SetBudgetTextHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props budgetTextProps
	decodeProps(edit, &props)

	lo, hi := budget.ParseAmount(props.Min), budget.ParseAmount(props.Max)
	next := *state
	next.Budget = budget.FromInputs(lo, hi)

	var msgs []model.CalculationMessage
	if budget.Sanitize(lo) > budget.Sanitize(hi) {
		msgs = append(msgs, model.Warning("BUDGET_REORDERED", "Minimum was above maximum, the values were swapped"))
	}
	return &next, msgs
}
