package catalog

import (
	"bytes"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"quote-engine/internal/ageband"
)

// looseNumber accepts JSON numbers and numeric strings. Anything else decodes as absent.
type looseNumber struct {
	value decimal.Decimal
	valid bool
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	*n = looseNumber{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	n.value, n.valid = d, true
	return nil
}

func (n looseNumber) amount() OptionalAmount {
	return OptionalAmount{Value: n.value, Valid: n.valid}
}

func (n looseNumber) int() int {
	if !n.valid {
		return 0
	}
	return int(n.value.IntPart())
}

// looseString accepts strings and numbers.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	*s = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err == nil {
			*s = looseString(str)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*s = looseString(data)
	}
	return nil
}

// truthy mirrors loose boolean semantics: true, non-zero numbers and non-empty strings
// other than "false"/"0" are true.
type truthy bool

func (t *truthy) UnmarshalJSON(data []byte) error {
	*t = false
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case 't':
		*t = true
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err == nil {
			str = strings.TrimSpace(strings.ToLower(str))
			*t = str != "" && str != "false" && str != "0"
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		*t = err == nil && f != 0
	}
	return nil
}

type wireTier struct {
	FirstUnit          looseNumber `json:"firstUnit"`
	LastUnit           looseNumber `json:"lastUnit"`
	DiscountPercentage looseNumber `json:"discountPercentage"`
}

// wireProduct declares every per-band field statically. The catalog spells the open-ended
// band both as 59Upper and 59.
type wireProduct struct {
	ID                       looseString `json:"id"`
	Name                     looseString `json:"name"`
	Accommodation            looseString `json:"accommodation"`
	Coverage                 looseString `json:"coverage"`
	Segment                  looseString `json:"segment"`
	IncludesCoparticipation  truthy      `json:"includesCoparticipation"`
	DiscountType             looseString `json:"discountType"`
	ProgressiveDiscountTiers []wireTier  `json:"progressiveDiscountTiers"`

	PriceAgeGroup018     looseNumber `json:"priceAgeGroup018"`
	PriceAgeGroup1923    looseNumber `json:"priceAgeGroup1923"`
	PriceAgeGroup2428    looseNumber `json:"priceAgeGroup2428"`
	PriceAgeGroup2933    looseNumber `json:"priceAgeGroup2933"`
	PriceAgeGroup3438    looseNumber `json:"priceAgeGroup3438"`
	PriceAgeGroup3943    looseNumber `json:"priceAgeGroup3943"`
	PriceAgeGroup4448    looseNumber `json:"priceAgeGroup4448"`
	PriceAgeGroup4953    looseNumber `json:"priceAgeGroup4953"`
	PriceAgeGroup5458    looseNumber `json:"priceAgeGroup5458"`
	PriceAgeGroup59Upper looseNumber `json:"priceAgeGroup59Upper"`
	PriceAgeGroup59      looseNumber `json:"priceAgeGroup59"`

	DiscountAgeGroup018     looseNumber `json:"discountAgeGroup018"`
	DiscountAgeGroup1923    looseNumber `json:"discountAgeGroup1923"`
	DiscountAgeGroup2428    looseNumber `json:"discountAgeGroup2428"`
	DiscountAgeGroup2933    looseNumber `json:"discountAgeGroup2933"`
	DiscountAgeGroup3438    looseNumber `json:"discountAgeGroup3438"`
	DiscountAgeGroup3943    looseNumber `json:"discountAgeGroup3943"`
	DiscountAgeGroup4448    looseNumber `json:"discountAgeGroup4448"`
	DiscountAgeGroup4953    looseNumber `json:"discountAgeGroup4953"`
	DiscountAgeGroup5458    looseNumber `json:"discountAgeGroup5458"`
	DiscountAgeGroup59Upper looseNumber `json:"discountAgeGroup59Upper"`
	DiscountAgeGroup59      looseNumber `json:"discountAgeGroup59"`
}

func firstValid(a, b looseNumber) looseNumber {
	if a.valid {
		return a
	}
	return b
}

func (w wireProduct) prices() BandAmounts {
	return BandAmounts{
		ageband.Band0To18:  w.PriceAgeGroup018.amount(),
		ageband.Band19To23: w.PriceAgeGroup1923.amount(),
		ageband.Band24To28: w.PriceAgeGroup2428.amount(),
		ageband.Band29To33: w.PriceAgeGroup2933.amount(),
		ageband.Band34To38: w.PriceAgeGroup3438.amount(),
		ageband.Band39To43: w.PriceAgeGroup3943.amount(),
		ageband.Band44To48: w.PriceAgeGroup4448.amount(),
		ageband.Band49To53: w.PriceAgeGroup4953.amount(),
		ageband.Band54To58: w.PriceAgeGroup5458.amount(),
		ageband.Band59Plus: firstValid(w.PriceAgeGroup59Upper, w.PriceAgeGroup59).amount(),
	}
}

func (w wireProduct) discounts() BandAmounts {
	return BandAmounts{
		ageband.Band0To18:  w.DiscountAgeGroup018.amount(),
		ageband.Band19To23: w.DiscountAgeGroup1923.amount(),
		ageband.Band24To28: w.DiscountAgeGroup2428.amount(),
		ageband.Band29To33: w.DiscountAgeGroup2933.amount(),
		ageband.Band34To38: w.DiscountAgeGroup3438.amount(),
		ageband.Band39To43: w.DiscountAgeGroup3943.amount(),
		ageband.Band44To48: w.DiscountAgeGroup4448.amount(),
		ageband.Band49To53: w.DiscountAgeGroup4953.amount(),
		ageband.Band54To58: w.DiscountAgeGroup5458.amount(),
		ageband.Band59Plus: firstValid(w.DiscountAgeGroup59Upper, w.DiscountAgeGroup59).amount(),
	}
}

func (w wireProduct) product() Product {
	p := Product{
		ID:                      string(w.ID),
		Name:                    string(w.Name),
		Accommodation:           string(w.Accommodation),
		Coverage:                string(w.Coverage),
		Segment:                 string(w.Segment),
		IncludesCoparticipation: bool(w.IncludesCoparticipation),
		Prices:                  w.prices(),
		DiscountPercentages:     w.discounts(),
	}
	for _, t := range w.ProgressiveDiscountTiers {
		p.Tiers = append(p.Tiers, Tier{
			FirstUnit:          t.FirstUnit.int(),
			LastUnit:           t.LastUnit.int(),
			DiscountPercentage: t.DiscountPercentage.value,
		})
	}

	switch {
	case strings.EqualFold(strings.TrimSpace(string(w.DiscountType)), string(DiscountFixed)):
		p.Discount = DiscountFixed
	case len(p.Tiers) > 0:
		p.Discount = DiscountProgressive
	default:
		p.Discount = DiscountNone
	}
	return p
}

type wireTable struct {
	ID       looseString   `json:"id"`
	Name     looseString   `json:"name"`
	Products []wireProduct `json:"products"`
}

type wirePlan struct {
	ID     looseString `json:"id"`
	Name   looseString `json:"name"`
	Tables []wireTable `json:"tables"`
}

func (w wirePlan) details() PlanDetails {
	d := PlanDetails{ID: string(w.ID), Name: string(w.Name), Tables: []PlanTable{}}
	for _, wt := range w.Tables {
		t := PlanTable{ID: string(wt.ID), Name: string(wt.Name), Products: []Product{}}
		for _, wp := range wt.Products {
			t.Products = append(t.Products, wp.product())
		}
		d.Tables = append(d.Tables, t)
	}
	return d
}

// DecodePlanDetails decodes the catalog's plan details document.
func DecodePlanDetails(data []byte) (PlanDetails, error) {
	var w wirePlan
	if err := json.Unmarshal(data, &w); err != nil {
		return PlanDetails{}, err
	}
	return w.details(), nil
}

// DecodeProduct decodes a single catalog product.
func DecodeProduct(data []byte) (Product, error) {
	var w wireProduct
	if err := json.Unmarshal(data, &w); err != nil {
		return Product{}, err
	}
	return w.product(), nil
}

// DecodePlans decodes the plan list.
func DecodePlans(data []byte) ([]Plan, error) {
	var w []wirePlan
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	plans := make([]Plan, 0, len(w))
	for _, p := range w {
		plans = append(plans, Plan{ID: string(p.ID), Name: string(p.Name)})
	}
	return plans, nil
}
