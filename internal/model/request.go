package model

import json "github.com/goccy/go-json"

type CalculationRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	Edits    []Edit `json:"edits" validate:"required,min=1,dive"`
}

// Edit is one user action on a quote draft, replayed in order.
type Edit struct {
	EditID     string          `json:"edit_id" validate:"required"`
	Name       string          `json:"edit" validate:"required"`
	ActualAt   string          `json:"actual_at,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

type ConvertRequest struct {
	Text   string         `json:"text" validate:"max=20000"`
	Ledger map[string]int `json:"ledger,omitempty"`
	Today  string         `json:"today,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type PriceRequest struct {
	Lives         map[string]int    `json:"lives" validate:"required"`
	ApplyDiscount bool              `json:"apply_discount"`
	Products      []json.RawMessage `json:"products" validate:"required,min=1"`
}
