package catalog

import (
	"github.com/shopspring/decimal"

	"quote-engine/internal/ageband"
)

type DiscountPolicy string

const (
	DiscountNone        DiscountPolicy = "NONE"
	DiscountFixed       DiscountPolicy = "FIXED"
	DiscountProgressive DiscountPolicy = "PROGRESSIVE"
)

// OptionalAmount is a catalog value that may be absent for a band.
type OptionalAmount struct {
	Value decimal.Decimal
	Valid bool
}

func Amount(v decimal.Decimal) OptionalAmount {
	return OptionalAmount{Value: v, Valid: true}
}

// BandAmounts holds one optional value per age band.
type BandAmounts [ageband.Count]OptionalAmount

func (a BandAmounts) Get(b ageband.Band) (decimal.Decimal, bool) {
	if !b.Valid() || !a[b].Valid {
		return decimal.Zero, false
	}
	return a[b].Value, true
}

func (a BandAmounts) With(b ageband.Band, v decimal.Decimal) BandAmounts {
	if b.Valid() {
		a[b] = Amount(v)
	}
	return a
}

func (a BandAmounts) IsEmpty() bool {
	for _, v := range a {
		if v.Valid {
			return false
		}
	}
	return true
}

// Tier is a progressive discount keyed by the total number of lives.
type Tier struct {
	FirstUnit          int             `json:"firstUnit"`
	LastUnit           int             `json:"lastUnit"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
}

func (t Tier) Contains(lives int) bool {
	return lives >= t.FirstUnit && lives <= t.LastUnit
}

type Product struct {
	ID                      string
	Name                    string
	Accommodation           string
	Coverage                string
	Segment                 string
	IncludesCoparticipation bool
	Discount                DiscountPolicy
	Prices                  BandAmounts
	DiscountPercentages     BandAmounts
	Tiers                   []Tier
}

type PlanTable struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Products []Product `json:"-"`
}

func (t PlanTable) Product(id string) (Product, bool) {
	for _, p := range t.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

type Plan struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlanDetails is a plan with its rate tables, fetched once per plan id.
type PlanDetails struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Tables []PlanTable `json:"tables"`
}

func (d PlanDetails) Table(id string) (PlanTable, bool) {
	for _, t := range d.Tables {
		if t.ID == id {
			return t, true
		}
	}
	return PlanTable{}, false
}

// Locate finds the table holding a product.
func (d PlanDetails) Locate(productID string) (PlanTable, Product, bool) {
	for _, t := range d.Tables {
		if p, ok := t.Product(productID); ok {
			return t, p, true
		}
	}
	return PlanTable{}, Product{}, false
}

func (d PlanDetails) HasAny(productIDs []string) bool {
	for _, id := range productIDs {
		if _, _, ok := d.Locate(id); ok {
			return true
		}
	}
	return false
}
