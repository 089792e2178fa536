package funnel

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"quote-engine/internal/catalog"
)

var (
	ErrWrongStep      = errors.New("funnel: transition not allowed at this step")
	ErrUnknownTable   = errors.New("funnel: table not in plan")
	ErrUnknownProduct = errors.New("funnel: product not offered at this step")
	ErrInvalidChoice  = errors.New("funnel: coparticipation must be with or without")
	ErrNoCandidates   = errors.New("funnel: no products chosen")
)

type Step string

const (
	StepClosed          Step = "closed"
	StepTables          Step = "tables"
	StepCoparticipation Step = "coparticipation"
	StepProducts        Step = "products"
)

// Choice is the coparticipation variant picked for a table.
type Choice string

const (
	ChoiceUnset   Choice = ""
	ChoiceWith    Choice = "with"
	ChoiceWithout Choice = "without"
)

// Each stage carries exactly what its step needs, so a products step without a table
// cannot be built.
type stage interface {
	step() Step
}

type tablesStage struct {
	plan catalog.PlanDetails
}

type coparticipationStage struct {
	plan  catalog.PlanDetails
	table catalog.PlanTable
}

type productsStage struct {
	plan       catalog.PlanDetails
	table      catalog.PlanTable
	choice     Choice
	candidates []string
}

func (tablesStage) step() Step          { return StepTables }
func (coparticipationStage) step() Step { return StepCoparticipation }
func (productsStage) step() Step        { return StepProducts }

// Funnel walks a user from a plan to a set of products. The zero value is closed.
type Funnel struct {
	stage stage
}

// Open starts the funnel on a plan whose details are already loaded.
func Open(plan catalog.PlanDetails) Funnel {
	return Funnel{stage: tablesStage{plan: plan}}
}

func (f Funnel) Step() Step {
	if f.stage == nil {
		return StepClosed
	}
	return f.stage.step()
}

func (f Funnel) IsOpen() bool { return f.stage != nil }

func (f Funnel) Plan() (catalog.PlanDetails, bool) {
	switch s := f.stage.(type) {
	case tablesStage:
		return s.plan, true
	case coparticipationStage:
		return s.plan, true
	case productsStage:
		return s.plan, true
	}
	return catalog.PlanDetails{}, false
}

func (f Funnel) Table() (catalog.PlanTable, bool) {
	switch s := f.stage.(type) {
	case coparticipationStage:
		return s.table, true
	case productsStage:
		return s.table, true
	}
	return catalog.PlanTable{}, false
}

func (f Funnel) Choice() Choice {
	if s, ok := f.stage.(productsStage); ok {
		return s.choice
	}
	return ChoiceUnset
}

func (f Funnel) Candidates() []string {
	if s, ok := f.stage.(productsStage); ok {
		return append([]string{}, s.candidates...)
	}
	return nil
}

// VisibleProducts lists the products offered at the products step.
func (f Funnel) VisibleProducts() []catalog.Product {
	s, ok := f.stage.(productsStage)
	if !ok {
		return nil
	}
	return filterProducts(s.table.Products, s.choice)
}

func filterProducts(products []catalog.Product, choice Choice) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		switch choice {
		case ChoiceWith:
			if !p.IncludesCoparticipation {
				continue
			}
		case ChoiceWithout:
			if p.IncludesCoparticipation {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func wrongStep(at Step, want Step) error {
	return fmt.Errorf("%w: at %s, want %s", ErrWrongStep, at, want)
}

// ChooseTable records the rate table and moves on to the coparticipation choice.
func (f Funnel) ChooseTable(tableID string) (Funnel, error) {
	s, ok := f.stage.(tablesStage)
	if !ok {
		return f, wrongStep(f.Step(), StepTables)
	}
	table, ok := s.plan.Table(tableID)
	if !ok {
		return f, fmt.Errorf("%w: %s", ErrUnknownTable, tableID)
	}
	return Funnel{stage: coparticipationStage{plan: s.plan, table: table}}, nil
}

// ChooseCoparticipation moves to the products step. Products of this table that are
// already selected and visible under the choice start out chosen.
func (f Funnel) ChooseCoparticipation(choice Choice, selected Selection) (Funnel, error) {
	s, ok := f.stage.(coparticipationStage)
	if !ok {
		return f, wrongStep(f.Step(), StepCoparticipation)
	}
	if choice != ChoiceWith && choice != ChoiceWithout {
		return f, fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}

	var seeded []string
	for _, p := range filterProducts(s.table.Products, choice) {
		if selected.Contains(p.ID) {
			seeded = append(seeded, p.ID)
		}
	}
	return Funnel{stage: productsStage{
		plan:       s.plan,
		table:      s.table,
		choice:     choice,
		candidates: seeded,
	}}, nil
}

// Toggle flips a visible product in or out of the local choice.
func (f Funnel) Toggle(productID string) (Funnel, error) {
	s, ok := f.stage.(productsStage)
	if !ok {
		return f, wrongStep(f.Step(), StepProducts)
	}

	visible := false
	for _, p := range filterProducts(s.table.Products, s.choice) {
		if p.ID == productID {
			visible = true
			break
		}
	}
	if !visible {
		return f, fmt.Errorf("%w: %s", ErrUnknownProduct, productID)
	}

	next := make([]string, 0, len(s.candidates)+1)
	removed := false
	for _, id := range s.candidates {
		if id == productID {
			removed = true
			continue
		}
		next = append(next, id)
	}
	if !removed {
		next = append(next, productID)
	}
	s.candidates = next
	return Funnel{stage: s}, nil
}

// Confirm merges the local choice into the global selection and closes the funnel.
// With nothing chosen it is blocked and both funnel and selection stay as they are.
func (f Funnel) Confirm(selected Selection) (Funnel, Selection, error) {
	s, ok := f.stage.(productsStage)
	if !ok {
		return f, selected, wrongStep(f.Step(), StepProducts)
	}
	if len(s.candidates) == 0 {
		return f, selected, ErrNoCandidates
	}
	return Funnel{}, selected.Add(s.candidates...), nil
}

// Back steps one stage back, dropping whatever the current stage held.
func (f Funnel) Back() Funnel {
	switch s := f.stage.(type) {
	case productsStage:
		return Funnel{stage: coparticipationStage{plan: s.plan, table: s.table}}
	case coparticipationStage:
		return Funnel{stage: tablesStage{plan: s.plan}}
	case tablesStage:
		return Funnel{}
	case nil:
		return f
	default:
		panic(fmt.Sprintf("funnel: unhandled stage %T", s))
	}
}

// Close abandons the funnel from any step.
func (f Funnel) Close() Funnel {
	return Funnel{}
}

type funnelView struct {
	Step            Step     `json:"step"`
	PlanID          string   `json:"plan_id,omitempty"`
	PlanName        string   `json:"plan_name,omitempty"`
	TableID         string   `json:"table_id,omitempty"`
	TableName       string   `json:"table_name,omitempty"`
	Coparticipation Choice   `json:"coparticipation,omitempty"`
	VisibleProducts []string `json:"visible_products,omitempty"`
	Candidates      []string `json:"candidates,omitempty"`
}

func (f Funnel) MarshalJSON() ([]byte, error) {
	v := funnelView{Step: f.Step()}
	if p, ok := f.Plan(); ok {
		v.PlanID, v.PlanName = p.ID, p.Name
	}
	if t, ok := f.Table(); ok {
		v.TableID, v.TableName = t.ID, t.Name
	}
	if f.Step() == StepProducts {
		v.Coparticipation = f.Choice()
		for _, p := range f.VisibleProducts() {
			v.VisibleProducts = append(v.VisibleProducts, p.ID)
		}
		v.Candidates = f.Candidates()
	}
	return json.Marshal(v)
}
