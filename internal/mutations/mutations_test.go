package mutations

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quote-engine/internal/ageband"
	"quote-engine/internal/catalog"
	"quote-engine/internal/funnel"
	"quote-engine/internal/model"
)

func testEnv() *Env {
	return &Env{
		Catalog: catalog.NewStatic(catalog.PlanDetails{
			ID:   "A",
			Name: "Plan A",
			Tables: []catalog.PlanTable{{
				ID: "T",
				Products: []catalog.Product{
					{ID: "P1"},
					{ID: "P2", IncludesCoparticipation: true},
				},
			}},
		}, catalog.PlanDetails{ID: "E", Name: "Empty"}),
		Now:      func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
		TenantID: "acme",
	}
}

func newEdit(name, props string) *model.Edit {
	e := &model.Edit{EditID: "e", Name: name}
	if props != "" {
		e.Properties = json.RawMessage(props)
	}
	return e
}

// apply runs an edit the way the engine does and fails the test on a critical message.
func apply(t *testing.T, env *Env, state *model.Draft, name, props string) (*model.Draft, []model.CalculationMessage) {
	t.Helper()
	h, ok := Get(name)
	require.True(t, ok, name)
	e := newEdit(name, props)

	msgs := h.Validate(context.Background(), env, state, e)
	for _, m := range msgs {
		require.NotEqual(t, model.LevelCritical, m.Level, "%s: %s", m.Code, m.Message)
	}
	next, msgs := h.Apply(context.Background(), env, state, e)
	for _, m := range msgs {
		require.NotEqual(t, model.LevelCritical, m.Level, "%s: %s", m.Code, m.Message)
	}
	return next, msgs
}

func codes(msgs []model.CalculationMessage) []string {
	out := []string{}
	for _, m := range msgs {
		out = append(out, m.Code)
	}
	return out
}

func started(t *testing.T, env *Env) *model.Draft {
	t.Helper()
	d, _ := apply(t, env, nil, "start_quote", `{"draft_id": "d1", "quote_type": "health"}`)
	return d
}

func TestStartQuote(t *testing.T) {
	env := testEnv()
	d := started(t, env)
	assert.Equal(t, "d1", d.ID)
	assert.Equal(t, "acme", d.TenantID)
	assert.Equal(t, model.ClientPhysical, d.Profile.ClientType)

	generated, _ := apply(t, env, nil, "start_quote", `{"quote_type": "dental"}`)
	assert.Len(t, generated.ID, 36)

	h := &StartQuoteHandler{}
	assert.Equal(t, []string{"DRAFT_ALREADY_STARTED"}, codes(h.Validate(context.Background(), env, d, newEdit("start_quote", `{"quote_type": "health"}`))))
	assert.Equal(t, []string{"INVALID_QUOTE_TYPE"}, codes(h.Validate(context.Background(), env, nil, newEdit("start_quote", `{"quote_type": "life"}`))))
	assert.Equal(t, []string{"INVALID_PROPERTIES"}, codes(h.Validate(context.Background(), env, nil, newEdit("start_quote", `{"quote_type": 1}`))))
}

func TestEditsRequireDraft(t *testing.T) {
	for name, h := range registry {
		if name == "start_quote" {
			continue
		}
		msgs := h.Validate(context.Background(), testEnv(), nil, newEdit(name, ""))
		assert.Equal(t, []string{"DRAFT_NOT_FOUND"}, codes(msgs), name)
	}
}

func TestEditsDoNotModifyTheirInput(t *testing.T) {
	env := testEnv()
	d := started(t, env)

	next, _ := apply(t, env, d, "adjust_lives", `{"band": "0-18", "delta": 3}`)
	assert.Equal(t, 0, d.Lives.Total())
	assert.Equal(t, 3, next.Lives.Count(ageband.Band0To18))

	opened, _ := apply(t, env, next, "open_plan", `{"plan_id": "A"}`)
	assert.Empty(t, next.Plans)
	assert.Equal(t, funnel.StepClosed, next.Funnel.Step())
	assert.Len(t, opened.Plans, 1)
	assert.Equal(t, funnel.StepTables, opened.Funnel.Step())
}

func TestAdjustLives(t *testing.T) {
	env := testEnv()
	d := started(t, env)

	d, _ = apply(t, env, d, "adjust_lives", `{"band": "59+", "delta": 1200}`)
	assert.Equal(t, ageband.MaxLives, d.Lives.Count(ageband.Band59Plus))
	d, _ = apply(t, env, d, "adjust_lives", `{"band": "59+", "delta": -5000}`)
	assert.Equal(t, 0, d.Lives.Count(ageband.Band59Plus))

	d, _ = apply(t, env, d, "adjust_lives", `{"band": "0-18", "delta": 5}`)
	d, _ = apply(t, env, d, "adjust_lives", `{"band": "0-18", "delta": 9223372036854775807}`)
	assert.Equal(t, ageband.MaxLives, d.Lives.Count(ageband.Band0To18))

	msgs := (&AdjustLivesHandler{}).Validate(context.Background(), env, d, newEdit("adjust_lives", `{"band": "60-70", "delta": 1}`))
	assert.Equal(t, []string{"UNKNOWN_BAND"}, codes(msgs))
}

func TestApplyBirthdates(t *testing.T) {
	env := testEnv()
	d := started(t, env)
	d, _ = apply(t, env, d, "adjust_lives", `{"band": "34-38", "delta": 2}`)

	same, msgs := apply(t, env, d, "apply_birthdates", `{"text": "  "}`)
	assert.Equal(t, []string{"NO_BIRTH_DATES"}, codes(msgs))
	assert.Equal(t, 2, same.Lives.Total())

	h := &ApplyBirthdatesHandler{}
	kept, msgs := h.Apply(context.Background(), env, d, newEdit("apply_birthdates", `{"text": "01/01/1990 1/1/1990"}`))
	assert.Equal(t, []string{"INVALID_BIRTH_DATES"}, codes(msgs))
	assert.Contains(t, msgs[0].Message, "1/1/1990")
	assert.Equal(t, d, kept)

	replaced, msgs := apply(t, env, d, "apply_birthdates", `{"text": "01/01/1990\n02/02/1960"}`)
	assert.Empty(t, msgs)
	assert.Equal(t, 1, replaced.Lives.Count(ageband.Band34To38))
	assert.Equal(t, 1, replaced.Lives.Count(ageband.Band59Plus))
	assert.Equal(t, 2, replaced.Lives.Total())
}

func TestSetProfileIsPartial(t *testing.T) {
	env := testEnv()
	d := started(t, env)

	d, _ = apply(t, env, d, "set_profile", `{"client_type": "legal", "lead_id": 7, "professions": [1, 2]}`)
	d, _ = apply(t, env, d, "set_profile", `{"legal_person_type_id": 3, "coparticipation": 2}`)

	assert.Equal(t, model.ClientLegal, d.Profile.ClientType)
	assert.Equal(t, 7, *d.Profile.LeadID)
	assert.Equal(t, 3, *d.Profile.LegalPersonTypeID)
	assert.Equal(t, []int{1, 2}, d.Profile.Professions)
	assert.Equal(t, model.CoparticipationWithout, d.Profile.Coparticipation)

	h := &SetProfileHandler{}
	assert.Equal(t, []string{"INVALID_CLIENT_TYPE"}, codes(h.Validate(context.Background(), env, d, newEdit("set_profile", `{"client_type": "robot"}`))))
	assert.Equal(t, []string{"INVALID_COPARTICIPATION_FILTER"}, codes(h.Validate(context.Background(), env, d, newEdit("set_profile", `{"coparticipation": 4}`))))
}

func TestSetLocation(t *testing.T) {
	env := testEnv()
	d := started(t, env)

	d, _ = apply(t, env, d, "set_location", `{"state_id": 35, "city_id": 3550308}`)
	assert.True(t, d.Location.IsSet())

	msgs := (&SetLocationHandler{}).Validate(context.Background(), env, d, newEdit("set_location", `{"state_id": 35}`))
	assert.Equal(t, []string{"INVALID_LOCATION"}, codes(msgs))
}

func TestBudgetEdits(t *testing.T) {
	env := testEnv()
	d := started(t, env)

	d, _ = apply(t, env, d, "set_budget_min", `{"value": 1234}`)
	assert.Equal(t, 1250, d.Budget.Min)
	d, _ = apply(t, env, d, "set_budget_max", `{"value": 800}`)
	assert.Equal(t, 1250, d.Budget.Max, "max never drops below min")

	d, _ = apply(t, env, d, "set_budget_position", `{"handle": "max", "position": 150, "track_length": 300}`)
	assert.Equal(t, 5000, d.Budget.Max)

	d, msgs := apply(t, env, d, "set_budget_text", `{"min": "R$ 3.000", "max": "1000"}`)
	assert.Equal(t, []string{"BUDGET_REORDERED"}, codes(msgs))
	assert.Equal(t, 1000, d.Budget.Min)
	assert.Equal(t, 3000, d.Budget.Max)

	h := &SetBudgetPositionHandler{}
	assert.Equal(t, []string{"INVALID_HANDLE"}, codes(h.Validate(context.Background(), env, d, newEdit("set_budget_position", `{"handle": "mid", "track_length": 10}`))))
	assert.Equal(t, []string{"INVALID_TRACK_LENGTH"}, codes(h.Validate(context.Background(), env, d, newEdit("set_budget_position", `{"handle": "min", "track_length": 0}`))))
}

func TestOpenPlan(t *testing.T) {
	env := testEnv()
	d := started(t, env)

	h := &OpenPlanHandler{}
	_, msgs := h.Apply(context.Background(), env, d, newEdit("open_plan", `{"plan_id": "Z"}`))
	assert.Equal(t, []string{"PLAN_NOT_FOUND"}, codes(msgs))

	assert.Equal(t, []string{"INVALID_PLAN"}, codes(h.Validate(context.Background(), env, d, newEdit("open_plan", `{}`))))
	assert.Equal(t, []string{"CATALOG_UNAVAILABLE"}, codes(h.Validate(context.Background(), &Env{}, d, newEdit("open_plan", `{"plan_id": "A"}`))))

	empty, msgs := apply(t, env, d, "open_plan", `{"plan_id": "E"}`)
	assert.Equal(t, []string{"PLAN_HAS_NO_TABLES"}, codes(msgs))
	assert.Equal(t, funnel.StepTables, empty.Funnel.Step())

	// details already on the draft are reused without a catalog
	opened, _ := apply(t, env, d, "open_plan", `{"plan_id": "A"}`)
	again, _ := apply(t, &Env{Catalog: catalog.NewStatic()}, opened, "open_plan", `{"plan_id": "A"}`)
	assert.Len(t, again.Plans, 1)
}

func TestFunnelEdits(t *testing.T) {
	env := testEnv()
	d := started(t, env)
	d, _ = apply(t, env, d, "open_plan", `{"plan_id": "A"}`)

	_, msgs := (&ChooseCoparticipationHandler{}).Apply(context.Background(), env, d, newEdit("choose_coparticipation", `{"coparticipation": "with"}`))
	assert.Equal(t, []string{"FUNNEL_STEP_MISMATCH"}, codes(msgs))
	_, msgs = (&ChooseTableHandler{}).Apply(context.Background(), env, d, newEdit("choose_table", `{"table_id": "X"}`))
	assert.Equal(t, []string{"UNKNOWN_TABLE"}, codes(msgs))

	d, _ = apply(t, env, d, "choose_table", `{"table_id": "T"}`)
	_, msgs = (&ChooseCoparticipationHandler{}).Apply(context.Background(), env, d, newEdit("choose_coparticipation", `{"coparticipation": "maybe"}`))
	assert.Equal(t, []string{"INVALID_COPARTICIPATION"}, codes(msgs))

	d, _ = apply(t, env, d, "choose_coparticipation", `{"coparticipation": "with"}`)
	_, msgs = (&ToggleProductHandler{}).Apply(context.Background(), env, d, newEdit("toggle_product", `{"product_id": "P1"}`))
	assert.Equal(t, []string{"UNKNOWN_PRODUCT"}, codes(msgs), "P1 is hidden by the with filter")

	d, _ = apply(t, env, d, "toggle_product", `{"product_id": "P2"}`)
	d, _ = apply(t, env, d, "confirm_selection", "")
	assert.Equal(t, []string{"P2"}, d.Selection.IDs())
	assert.False(t, d.Funnel.IsOpen())

	d, _ = apply(t, env, d, "open_plan", `{"plan_id": "A"}`)
	d, _ = apply(t, env, d, "choose_table", `{"table_id": "T"}`)
	d, _ = apply(t, env, d, "funnel_back", "")
	assert.Equal(t, funnel.StepTables, d.Funnel.Step())
	d, _ = apply(t, env, d, "close_funnel", "")
	assert.False(t, d.Funnel.IsOpen())
	assert.Equal(t, []string{"P2"}, d.Selection.IDs())
}

func TestRemoveProduct(t *testing.T) {
	env := testEnv()
	d := started(t, env)
	d.Selection = funnel.NewSelection("P1", "P2")

	next, msgs := apply(t, env, d, "remove_product", `{"product_id": "P1"}`)
	assert.Empty(t, msgs)
	assert.Equal(t, []string{"P2"}, next.Selection.IDs())

	same, msgs := apply(t, env, next, "remove_product", `{"product_id": "P1"}`)
	assert.Equal(t, []string{"PRODUCT_NOT_SELECTED"}, codes(msgs))
	assert.Equal(t, next, same)
}
