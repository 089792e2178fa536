package engine

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"quote-engine/internal/ageband"
	"quote-engine/internal/catalog"
	"quote-engine/internal/funnel"
	"quote-engine/internal/model"
)

var today = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testCatalog() *catalog.Static {
	var prices catalog.BandAmounts
	prices = prices.With(ageband.Band0To18, decimal.NewFromInt(100))
	prices = prices.With(ageband.Band19To23, decimal.NewFromInt(120))

	return catalog.NewStatic(catalog.PlanDetails{
		ID:   "A",
		Name: "Plan A",
		Tables: []catalog.PlanTable{{
			ID:   "T",
			Name: "Enfermaria",
			Products: []catalog.Product{
				{ID: "P1", Name: "One", Prices: prices},
				{ID: "P2", Name: "Two", Prices: prices},
				{ID: "P3", Name: "Three", Prices: prices, IncludesCoparticipation: true},
			},
		}},
	})
}

func edit(id, name, props string) model.Edit {
	e := model.Edit{EditID: id, Name: name, ActualAt: "2024-06-01"}
	if props != "" {
		e.Properties = json.RawMessage(props)
	}
	return e
}

func run(t *testing.T, edits ...model.Edit) *model.CalculationResponse {
	t.Helper()
	e := New(testCatalog(), func() time.Time { return today })
	return e.Process(context.Background(), &model.CalculationRequest{TenantID: "test-tenant", Edits: edits})
}

func TestStartQuote(t *testing.T) {
	resp := run(t, edit("e1", "start_quote", `{"draft_id": "d1", "quote_type": "health"}`))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationMetadata.DraftID != "d1" {
		t.Fatalf("expected draft_id d1, got %s", resp.CalculationMetadata.DraftID)
	}
	if resp.CalculationMetadata.CalculationID == "" {
		t.Fatal("expected a calculation id")
	}

	d := resp.CalculationResult.EndSituation.Draft
	if d == nil {
		t.Fatal("expected a draft")
	}
	if d.TenantID != "test-tenant" {
		t.Fatalf("expected tenant test-tenant, got %s", d.TenantID)
	}
	if d.Budget.Min != 0 || d.Budget.Max != 10000 {
		t.Fatalf("expected default budget 0..10000, got %d..%d", d.Budget.Min, d.Budget.Max)
	}

	// a fresh draft lacks location, lives and products
	if len(resp.CalculationResult.Issues) != 3 {
		t.Fatalf("expected 3 issues, got %d", len(resp.CalculationResult.Issues))
	}
	if resp.CalculationResult.FirstSection != model.SectionProfile {
		t.Fatalf("expected first section profile, got %s", resp.CalculationResult.FirstSection)
	}
	if resp.CalculationResult.Quote != nil {
		t.Fatal("expected no quote payload for an incomplete draft")
	}
}

func TestUnknownEditStops(t *testing.T) {
	resp := run(t,
		edit("e1", "start_quote", `{"draft_id": "d1", "quote_type": "dental"}`),
		edit("e2", "does_not_exist", ""),
		edit("e3", "adjust_lives", `{"band": "0-18", "delta": 1}`),
	)

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if len(resp.CalculationResult.Edits) != 2 {
		t.Fatalf("expected 2 processed edits, got %d", len(resp.CalculationResult.Edits))
	}
	msgs := resp.CalculationResult.Messages
	if len(msgs) != 1 || msgs[0].Code != "UNKNOWN_EDIT" {
		t.Fatalf("expected a single UNKNOWN_EDIT message, got %+v", msgs)
	}
	end := resp.CalculationResult.EndSituation
	if end.EditID != "e1" || end.EditIndex != 0 {
		t.Fatalf("expected end situation at e1, got %s/%d", end.EditID, end.EditIndex)
	}
	if end.Draft.Lives.Total() != 0 {
		t.Fatalf("expected no lives, got %d", end.Draft.Lives.Total())
	}
}

func TestEditBeforeStart(t *testing.T) {
	resp := run(t, edit("e1", "adjust_lives", `{"band": "0-18", "delta": 1}`))

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationResult.Messages[0].Code != "DRAFT_NOT_FOUND" {
		t.Fatalf("expected DRAFT_NOT_FOUND, got %s", resp.CalculationResult.Messages[0].Code)
	}
	if resp.CalculationResult.EndSituation.Draft != nil {
		t.Fatal("expected no draft")
	}
	if resp.CalculationResult.Issues == nil {
		t.Fatal("expected an empty issue list, not null")
	}
}

func TestFunnelScenario(t *testing.T) {
	resp := run(t,
		edit("e1", "start_quote", `{"draft_id": "d1", "quote_type": "health"}`),
		edit("e2", "set_location", `{"state_id": 35, "city_id": 3550308}`),
		edit("e3", "adjust_lives", `{"band": "0-18", "delta": 2}`),
		edit("e4", "open_plan", `{"plan_id": "A"}`),
		edit("e5", "choose_table", `{"table_id": "T"}`),
		edit("e6", "choose_coparticipation", `{"coparticipation": "without"}`),
		edit("e7", "toggle_product", `{"product_id": "P1"}`),
		edit("e8", "toggle_product", `{"product_id": "P2"}`),
		edit("e9", "confirm_selection", ""),
		edit("e10", "open_plan", `{"plan_id": "A"}`),
		edit("e11", "choose_table", `{"table_id": "T"}`),
		edit("e12", "choose_coparticipation", `{"coparticipation": "without"}`),
	)

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s: %+v", resp.CalculationMetadata.CalculationOutcome, resp.CalculationResult.Messages)
	}

	d := resp.CalculationResult.EndSituation.Draft
	ids := d.Selection.IDs()
	if len(ids) != 2 || ids[0] != "P1" || ids[1] != "P2" {
		t.Fatalf("expected selection [P1 P2], got %v", ids)
	}
	if d.Funnel.Step() != funnel.StepProducts {
		t.Fatalf("expected products step, got %s", d.Funnel.Step())
	}
	candidates := d.Funnel.Candidates()
	if len(candidates) != 2 || candidates[0] != "P1" || candidates[1] != "P2" {
		t.Fatalf("expected reopened funnel to pre-select [P1 P2], got %v", candidates)
	}
	if len(d.Plans) != 1 {
		t.Fatalf("expected plan A loaded once, got %d plans", len(d.Plans))
	}

	q := resp.CalculationResult.Quote
	if q == nil {
		t.Fatalf("expected a quote payload, issues: %+v", resp.CalculationResult.Issues)
	}
	if len(q.Plans) != 1 || q.Plans[0] != "A" {
		t.Fatalf("expected plans [A], got %v", q.Plans)
	}
	if q.Ages["0-18"] != 2 {
		t.Fatalf("expected 2 lives in 0-18, got %v", q.Ages)
	}

	s := resp.CalculationResult.Summary
	if !s.Total.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("expected total 400, got %s", s.Total)
	}
}

func TestConfirmWithNothingChosenWarns(t *testing.T) {
	resp := run(t,
		edit("e1", "start_quote", `{"quote_type": "health"}`),
		edit("e2", "open_plan", `{"plan_id": "A"}`),
		edit("e3", "choose_table", `{"table_id": "T"}`),
		edit("e4", "choose_coparticipation", `{"coparticipation": "with"}`),
		edit("e5", "confirm_selection", ""),
	)

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	msgs := resp.CalculationResult.Messages
	if len(msgs) != 1 || msgs[0].Code != "NO_PRODUCTS_CHOSEN" || msgs[0].Level != model.LevelWarning {
		t.Fatalf("expected a NO_PRODUCTS_CHOSEN warning, got %+v", msgs)
	}
	d := resp.CalculationResult.EndSituation.Draft
	if d.Funnel.Step() != funnel.StepProducts {
		t.Fatalf("expected funnel to stay at products, got %s", d.Funnel.Step())
	}
	if d.Selection.Len() != 0 {
		t.Fatalf("expected empty selection, got %v", d.Selection.IDs())
	}
}

func TestUnknownPlan(t *testing.T) {
	resp := run(t,
		edit("e1", "start_quote", `{"quote_type": "health"}`),
		edit("e2", "open_plan", `{"plan_id": "Z"}`),
	)

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationResult.Messages[0].Code != "PLAN_NOT_FOUND" {
		t.Fatalf("expected PLAN_NOT_FOUND, got %s", resp.CalculationResult.Messages[0].Code)
	}
	if resp.CalculationResult.EndSituation.EditID != "e1" {
		t.Fatalf("expected end situation at e1, got %s", resp.CalculationResult.EndSituation.EditID)
	}
}

func TestZeroLivesBlocksQuote(t *testing.T) {
	resp := run(t,
		edit("e1", "start_quote", `{"quote_type": "health"}`),
		edit("e2", "set_location", `{"state_id": 35, "city_id": 3550308}`),
		edit("e3", "adjust_lives", `{"band": "0-18", "delta": 1}`),
		edit("e4", "open_plan", `{"plan_id": "A"}`),
		edit("e5", "choose_table", `{"table_id": "T"}`),
		edit("e6", "choose_coparticipation", `{"coparticipation": "without"}`),
		edit("e7", "toggle_product", `{"product_id": "P1"}`),
		edit("e8", "confirm_selection", ""),
		edit("e9", "adjust_lives", `{"band": "0-18", "delta": -1}`),
	)

	if resp.CalculationResult.Quote != nil {
		t.Fatal("expected no quote payload with zero lives")
	}
	issues := resp.CalculationResult.Issues
	if len(issues) != 1 || issues[0].Code != "LIVES_REQUIRED" {
		t.Fatalf("expected only LIVES_REQUIRED, got %+v", issues)
	}
	if resp.CalculationResult.FirstSection != model.SectionLives {
		t.Fatalf("expected first section lives, got %s", resp.CalculationResult.FirstSection)
	}
}

func TestApplyBirthdates(t *testing.T) {
	resp := run(t,
		edit("e1", "start_quote", `{"quote_type": "health"}`),
		edit("e2", "adjust_lives", `{"band": "59+", "delta": 4}`),
		edit("e3", "apply_birthdates", `{"text": "15/03/2010, 01/01/2000"}`),
	)

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	lives := resp.CalculationResult.EndSituation.Draft.Lives
	if lives.Count(ageband.Band0To18) != 1 || lives.Count(ageband.Band24To28) != 1 {
		t.Fatalf("expected one life in 0-18 and one in 24-28, got %v", lives.Positive())
	}
	if lives.Count(ageband.Band59Plus) != 0 {
		t.Fatalf("expected the ledger to be replaced, got %v", lives.Positive())
	}
}

func TestInvalidBirthdatesKeepLedger(t *testing.T) {
	resp := run(t,
		edit("e1", "start_quote", `{"quote_type": "health"}`),
		edit("e2", "adjust_lives", `{"band": "59+", "delta": 4}`),
		edit("e3", "apply_birthdates", `{"text": "15/03/2010, 31/02/2001"}`),
	)

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeFailure {
		t.Fatalf("expected FAILURE, got %s", resp.CalculationMetadata.CalculationOutcome)
	}
	if resp.CalculationResult.Messages[0].Code != "INVALID_BIRTH_DATES" {
		t.Fatalf("expected INVALID_BIRTH_DATES, got %s", resp.CalculationResult.Messages[0].Code)
	}
	if n := resp.CalculationResult.EndSituation.Draft.Lives.Count(ageband.Band59Plus); n != 4 {
		t.Fatalf("expected 4 lives in 59+, got %d", n)
	}
}

func TestPatchesDescribeEachEdit(t *testing.T) {
	resp := run(t,
		edit("e1", "start_quote", `{"draft_id": "d1", "quote_type": "health"}`),
		edit("e2", "set_discount_display", `{"apply_discount": true}`),
	)

	pe := resp.CalculationResult.Edits[1]
	if len(pe.Patch) != 1 || pe.Patch[0].Path != "/apply_discount" || pe.Patch[0].Value != true {
		t.Fatalf("expected a single replace of /apply_discount, got %+v", pe.Patch)
	}
	if len(pe.Undo) != 1 || pe.Undo[0].Value != false {
		t.Fatalf("expected undo back to false, got %+v", pe.Undo)
	}
}
