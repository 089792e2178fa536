package mutations

import (
	"context"
	"fmt"
	"strings"

	"quote-engine/internal/ageband"
	"quote-engine/internal/birthdates"
	"quote-engine/internal/metrics"
	"quote-engine/internal/model"
)

type adjustLivesProps struct {
	Band  string `json:"band"`
	Delta int    `json:"delta"`
}

type AdjustLivesHandler struct{}

func (h *AdjustLivesHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props adjustLivesProps
	if msgs := requireDraft(state, edit, &props); msgs != nil {
		return msgs
	}
	if _, ok := ageband.Parse(props.Band); !ok {
		return []model.CalculationMessage{model.Critical("UNKNOWN_BAND",
			fmt.Sprintf("Unknown age band %q", props.Band))}
	}
	return nil
}

func (h *AdjustLivesHandler) Apply(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props adjustLivesProps
	decodeProps(edit, &props)
	band, _ := ageband.Parse(props.Band)

	next := *state
	next.Lives = state.Lives.Adjust(band, props.Delta)
	return &next, nil
}

type applyBirthdatesProps struct {
	Text string `json:"text"`
}

// ApplyBirthdatesHandler replaces the lives with the bands of a pasted list of birth
// dates. The ledger is only committed when every token is a valid date.
type ApplyBirthdatesHandler struct{}

func (h *ApplyBirthdatesHandler) Validate(_ context.Context, _ *Env, state *model.Draft, edit *model.Edit) []model.CalculationMessage {
	var props applyBirthdatesProps
	return requireDraft(state, edit, &props)
}

func (h *ApplyBirthdatesHandler) Apply(_ context.Context, env *Env, state *model.Draft, edit *model.Edit) (*model.Draft, []model.CalculationMessage) {
	var props applyBirthdatesProps
	decodeProps(edit, &props)

	res := birthdates.Convert(props.Text, state.Lives, env.now())
	switch {
	case len(res.InvalidDates) > 0:
		metrics.BirthdateConversions.WithLabelValues("invalid").Inc()
		return state, []model.CalculationMessage{model.Critical("INVALID_BIRTH_DATES",
			fmt.Sprintf("Invalid birth dates: %s", strings.Join(res.InvalidDates, ", ")))}
	case !res.Committable():
		metrics.BirthdateConversions.WithLabelValues("empty").Inc()
		return state, []model.CalculationMessage{model.Warning("NO_BIRTH_DATES", "No birth dates were provided")}
	}

	metrics.BirthdateConversions.WithLabelValues("applied").Inc()
	next := *state
	next.Lives = res.Ledger
	return &next, nil
}
