package assembler

import (
	"github.com/shopspring/decimal"

	"quote-engine/internal/model"
	"quote-engine/internal/pricing"
)

const productTypeRegular = "regular"

// Validate lists what still blocks submission, in editor order: profile, lives, products.
func Validate(d model.Draft) []model.Issue {
	issues := []model.Issue{}

	if !d.Location.IsSet() {
		issues = append(issues, model.Issue{
			Section: model.SectionProfile,
			Field:   "location",
			Code:    "LOCATION_REQUIRED",
			Message: "Choose the state and city of the quote",
		})
	}
	if d.Profile.ClientType == model.ClientLegal && d.Profile.LegalPersonTypeID == nil {
		issues = append(issues, model.Issue{
			Section: model.SectionProfile,
			Field:   "legal_person_type_id",
			Code:    "LEGAL_PERSON_TYPE_REQUIRED",
			Message: "Choose the legal person type for a company client",
		})
	}
	if d.Lives.Total() == 0 {
		issues = append(issues, model.Issue{
			Section: model.SectionLives,
			Field:   "lives",
			Code:    "LIVES_REQUIRED",
			Message: "Add at least one life to the quote",
		})
	}
	if d.Selection.Len() == 0 {
		issues = append(issues, model.Issue{
			Section: model.SectionProducts,
			Field:   "products",
			Code:    "PRODUCTS_REQUIRED",
			Message: "Select at least one product",
		})
	}
	return issues
}

// FirstSection is the editor section the user should be sent to, if any.
func FirstSection(issues []model.Issue) model.Section {
	if len(issues) == 0 {
		return ""
	}
	return issues[0].Section
}

// Assemble builds the outbound payload. It returns the blocking issues instead when
// the draft is incomplete.
func Assemble(d model.Draft) (*model.QuotePayload, []model.Issue) {
	if issues := Validate(d); len(issues) > 0 {
		return nil, issues
	}

	selected := d.Selection.IDs()
	p := &model.QuotePayload{
		StateID:         d.Location.StateID,
		CityID:          d.Location.CityID,
		LeadID:          d.Profile.LeadID,
		ContactID:       d.Profile.ContactID,
		Client:          d.Profile.Client,
		ClientType:      d.Profile.ClientType.Code(),
		Coparticipation: int(d.Profile.Coparticipation),
		Plans:           SelectedPlans(d),
		Products:        make([]model.ProductRef, 0, len(selected)),
		Ages:            d.Lives.Positive(),
		MinPrice:        d.Budget.Min,
		MaxPrice:        d.Budget.Max,
		WithoutEntity:   d.Profile.WithoutEntity,
		EntityType:      d.Profile.EntityType,
		Professions:     d.Profile.Professions,
		Associations:    d.Profile.Associations,
	}
	for _, id := range selected {
		p.Products = append(p.Products, model.ProductRef{ID: id, Type: productTypeRegular})
	}
	if d.Profile.ClientType == model.ClientLegal {
		p.LptID = d.Profile.LegalPersonTypeID
	}
	return p, nil
}

// SelectedPlans lists the loaded plans holding at least one selected product, in the
// order they were opened.
func SelectedPlans(d model.Draft) []string {
	selected := d.Selection.IDs()
	plans := []string{}
	for _, plan := range d.Plans {
		if plan.HasAny(selected) {
			plans = append(plans, plan.ID)
		}
	}
	return plans
}

// Summarize prices each selected product for the draft's lives, with and without discount.
func Summarize(d model.Draft) model.Summary {
	total := d.Lives.Total()
	s := model.Summary{
		QuoteType:       d.QuoteType,
		Lives:           total,
		ApplyDiscount:   d.ApplyDiscount,
		Lines:           []model.SummaryLine{},
		Total:           decimal.Zero,
		DiscountedTotal: decimal.Zero,
	}

	for _, id := range d.Selection.IDs() {
		for _, plan := range d.Plans {
			table, product, ok := plan.Locate(id)
			if !ok {
				continue
			}
			line := model.SummaryLine{
				PlanID:          plan.ID,
				PlanName:        plan.Name,
				TableID:         table.ID,
				TableName:       table.Name,
				ProductID:       product.ID,
				ProductName:     product.Name,
				Price:           pricing.Price(product, d.Lives, total, false),
				DiscountedPrice: pricing.Price(product, d.Lives, total, true),
			}
			s.Lines = append(s.Lines, line)
			s.Total = s.Total.Add(line.Price)
			s.DiscountedTotal = s.DiscountedTotal.Add(line.DiscountedPrice)
			break
		}
	}
	return s
}
