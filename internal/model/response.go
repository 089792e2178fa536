package model

import (
	"github.com/shopspring/decimal"

	"quote-engine/internal/ageband"
	"quote-engine/internal/jsonpatch"
	"quote-engine/internal/pricing"
)

func init() {
	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type CalculationResponse struct {
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	CalculationResult   CalculationResult   `json:"calculation_result"`
}

type CalculationMetadata struct {
	CalculationID          string `json:"calculation_id"`
	TenantID               string `json:"tenant_id"`
	DraftID                string `json:"draft_id,omitempty"`
	CalculationStartedAt   string `json:"calculation_started_at"`
	CalculationCompletedAt string `json:"calculation_completed_at"`
	CalculationDurationMs  int64  `json:"calculation_duration_ms"`
	CalculationOutcome     string `json:"calculation_outcome"`
}

type CalculationResult struct {
	Messages     []CalculationMessage `json:"messages"`
	Edits        []ProcessedEdit      `json:"edits"`
	EndSituation DraftEnvelope        `json:"end_situation"`
	Quote        *QuotePayload        `json:"quote,omitempty"`
	Issues       []Issue              `json:"issues"`
	FirstSection Section              `json:"first_section,omitempty"`
	Summary      *Summary             `json:"summary,omitempty"`
}

type ProcessedEdit struct {
	Edit                      Edit           `json:"edit"`
	CalculationMessageIndexes []int          `json:"calculation_message_indexes,omitempty"`
	Patch                     []jsonpatch.Op `json:"patch,omitempty"`
	Undo                      []jsonpatch.Op `json:"undo,omitempty"`
}

type DraftEnvelope struct {
	EditID    string `json:"edit_id"`
	EditIndex int    `json:"edit_index"`
	ActualAt  string `json:"actual_at,omitempty"`
	Draft     *Draft `json:"draft"`
}

type ProductRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// QuotePayload is the body submitted to the quote backend.
type QuotePayload struct {
	StateID         int            `json:"stateId"`
	CityID          int            `json:"cityId"`
	LeadID          *int           `json:"leadId,omitempty"`
	ContactID       *int           `json:"contactId,omitempty"`
	Client          string         `json:"client,omitempty"`
	ClientType      int            `json:"clientType"`
	Coparticipation int            `json:"coparticipation"`
	Plans           []string       `json:"plans"`
	Products        []ProductRef   `json:"products"`
	Ages            map[string]int `json:"ages"`
	MinPrice        int            `json:"minPrice"`
	MaxPrice        int            `json:"maxPrice"`
	WithoutEntity   *bool          `json:"withoutEntity,omitempty"`
	EntityType      *int           `json:"entityType,omitempty"`
	Professions     []int          `json:"professions,omitempty"`
	Associations    []int          `json:"associations,omitempty"`
	LptID           *int           `json:"lptId,omitempty"`
}

type SummaryLine struct {
	PlanID          string          `json:"plan_id"`
	PlanName        string          `json:"plan_name"`
	TableID         string          `json:"table_id"`
	TableName       string          `json:"table_name"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Price           decimal.Decimal `json:"price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// Summary prices every selected product for the draft's lives.
type Summary struct {
	QuoteType       QuoteType       `json:"quote_type"`
	Lives           int             `json:"lives"`
	ApplyDiscount   bool            `json:"apply_discount"`
	Lines           []SummaryLine   `json:"lines"`
	Total           decimal.Decimal `json:"total"`
	DiscountedTotal decimal.Decimal `json:"discounted_total"`
}

type ErrorResponse struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)

type ConvertResponse struct {
	ValidDates   []string       `json:"valid_dates"`
	InvalidDates []string       `json:"invalid_dates"`
	Committable  bool           `json:"committable"`
	Counts       map[string]int `json:"counts"`
	Ledger       ageband.Ledger `json:"ledger"`
	Total        int            `json:"total"`
}

type PricedProduct struct {
	ProductID       string            `json:"product_id"`
	Name            string            `json:"name"`
	Discount        string            `json:"discount_type"`
	Price           decimal.Decimal   `json:"price"`
	DiscountedPrice decimal.Decimal   `json:"discounted_price"`
	DisplayPrice    decimal.Decimal   `json:"display_price"`
	Breakdown       pricing.Breakdown `json:"breakdown"`
}

type PriceResponse struct {
	Lives    int             `json:"lives"`
	Products []PricedProduct `json:"products"`
}
