package model

import (
	"quote-engine/internal/ageband"
	"quote-engine/internal/budget"
	"quote-engine/internal/catalog"
	"quote-engine/internal/funnel"
)

type QuoteType string

const (
	QuoteHealth QuoteType = "health"
	QuoteDental QuoteType = "dental"
)

func (q QuoteType) Valid() bool { return q == QuoteHealth || q == QuoteDental }

type ClientType string

const (
	ClientPhysical ClientType = "physical"
	ClientLegal    ClientType = "legal"
)

func (c ClientType) Valid() bool { return c == ClientPhysical || c == ClientLegal }

// Code is the numeric client type the quote backend expects.
func (c ClientType) Code() int {
	if c == ClientLegal {
		return 1
	}
	return 0
}

// Coparticipation is the quote-level coparticipation filter sent with the quote:
// 0 no preference, 1 with, 2 without, 3 partial.
type Coparticipation int

const (
	CoparticipationAny Coparticipation = iota
	CoparticipationWith
	CoparticipationWithout
	CoparticipationPartial
)

func (c Coparticipation) Valid() bool { return c >= CoparticipationAny && c <= CoparticipationPartial }

type Profile struct {
	ClientType        ClientType      `json:"client_type"`
	LegalPersonTypeID *int            `json:"legal_person_type_id,omitempty"`
	LeadID            *int            `json:"lead_id,omitempty"`
	ContactID         *int            `json:"contact_id,omitempty"`
	Client            string          `json:"client,omitempty"`
	Coparticipation   Coparticipation `json:"coparticipation"`
	WithoutEntity     *bool           `json:"without_entity,omitempty"`
	EntityType        *int            `json:"entity_type,omitempty"`
	Professions       []int           `json:"professions,omitempty"`
	Associations      []int           `json:"associations,omitempty"`
}

type Location struct {
	StateID int `json:"state_id,omitempty"`
	CityID  int `json:"city_id,omitempty"`
}

func (l Location) IsSet() bool { return l.StateID != 0 && l.CityID != 0 }

// Draft is an in-progress quote. Edits never modify a draft in place: each one returns
// the next draft.
type Draft struct {
	ID            string                `json:"id"`
	TenantID      string                `json:"tenant_id"`
	QuoteType     QuoteType             `json:"quote_type"`
	Lives         ageband.Ledger        `json:"lives"`
	Profile       Profile               `json:"profile"`
	Location      Location              `json:"location"`
	Budget        budget.Range          `json:"budget"`
	Selection     funnel.Selection      `json:"selection"`
	Funnel        funnel.Funnel         `json:"funnel"`
	Plans         []catalog.PlanDetails `json:"plans"`
	ApplyDiscount bool                  `json:"apply_discount"`
}

func NewDraft(id, tenantID string, quoteType QuoteType) *Draft {
	return &Draft{
		ID:        id,
		TenantID:  tenantID,
		QuoteType: quoteType,
		Profile:   Profile{ClientType: ClientPhysical},
		Budget:    budget.Default(),
		Plans:     []catalog.PlanDetails{},
	}
}

// Filters are the catalog filters derived from the draft.
func (d Draft) Filters() catalog.Filters {
	return catalog.Filters{
		QuoteType:       string(d.QuoteType),
		ClientType:      d.Profile.ClientType.Code(),
		Coparticipation: int(d.Profile.Coparticipation),
		MinPrice:        d.Budget.Min,
		MaxPrice:        d.Budget.Max,
		StateID:         d.Location.StateID,
		CityID:          d.Location.CityID,
	}
}

// WithPlan records plan details the draft has loaded. Plans keep their first-seen order.
func (d Draft) WithPlan(p catalog.PlanDetails) Draft {
	for _, existing := range d.Plans {
		if existing.ID == p.ID {
			return d
		}
	}
	plans := make([]catalog.PlanDetails, len(d.Plans), len(d.Plans)+1)
	copy(plans, d.Plans)
	d.Plans = append(plans, p)
	return d
}

func (d Draft) Plan(id string) (catalog.PlanDetails, bool) {
	for _, p := range d.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.PlanDetails{}, false
}
