package pricing

import (
	"github.com/shopspring/decimal"

	"quote-engine/internal/ageband"
	"quote-engine/internal/catalog"
)

var hundred = decimal.NewFromInt(100)

// Line is the contribution of a single band to a product price.
type Line struct {
	Band      ageband.Band    `json:"band"`
	Lives     int             `json:"lives"`
	Offered   bool            `json:"offered"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	NetUnit   decimal.Decimal `json:"net_unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Breakdown is the per-band price of a product for a population of lives.
type Breakdown struct {
	ProductID  string          `json:"product_id"`
	Discounted bool            `json:"discounted"`
	Lines      []Line          `json:"lines"`
	Total      decimal.Decimal `json:"total"`
}

// Price returns the aggregate price of a product for the lives in the ledger.
// Missing prices or discounts never fail: they contribute zero or no discount.
func Price(p catalog.Product, lives ageband.Ledger, totalLives int, applyDiscount bool) decimal.Decimal {
	return Calculate(p, lives, totalLives, applyDiscount).Total
}

// Calculate prices a product band by band. Bands without lives are skipped.
func Calculate(p catalog.Product, lives ageband.Ledger, totalLives int, applyDiscount bool) Breakdown {
	b := Breakdown{ProductID: p.ID, Discounted: applyDiscount, Lines: []Line{}, Total: decimal.Zero}

	var tierPct decimal.Decimal
	var tierFound bool
	if applyDiscount && p.Discount == catalog.DiscountProgressive {
		tierPct, tierFound = progressiveTier(p.Tiers, totalLives)
	}

	for _, band := range ageband.Bands() {
		count := lives.Count(band)
		if count == 0 {
			continue
		}
		line := Line{Band: band, Lives: count, UnitPrice: decimal.Zero, NetUnit: decimal.Zero, Subtotal: decimal.Zero}

		// a negative catalog price is treated as not offered
		base, ok := p.Prices.Get(band)
		if ok && !base.IsNegative() {
			line.Offered = true
			line.UnitPrice = base
			line.NetUnit = base

			if applyDiscount {
				switch p.Discount {
				case catalog.DiscountFixed:
					if pct, ok := p.DiscountPercentages.Get(band); ok && pct.IsPositive() {
						line.NetUnit = discounted(base, pct)
					}
				case catalog.DiscountProgressive:
					if tierFound {
						line.NetUnit = discounted(base, tierPct)
					}
				}
			}
			line.Subtotal = line.NetUnit.Mul(decimal.NewFromInt(int64(count)))
		}

		b.Lines = append(b.Lines, line)
		b.Total = b.Total.Add(line.Subtotal)
	}
	return b
}

func discounted(base, pct decimal.Decimal) decimal.Decimal {
	net := base.Sub(base.Mul(pct).Div(hundred))
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

// progressiveTier finds the first tier whose inclusive range holds the total lives.
func progressiveTier(tiers []catalog.Tier, totalLives int) (decimal.Decimal, bool) {
	for _, t := range tiers {
		if t.Contains(totalLives) {
			return t.DiscountPercentage, true
		}
	}
	return decimal.Zero, false
}
