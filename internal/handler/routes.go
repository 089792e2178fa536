package handler

import (
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"quote-engine/internal/ageband"
	"quote-engine/internal/birthdates"
	"quote-engine/internal/catalog"
	"quote-engine/internal/logger"
	"quote-engine/internal/metrics"
	"quote-engine/internal/model"
	"quote-engine/internal/pricing"
	"quote-engine/internal/quotepdf"
	"quote-engine/internal/sentryutil"
)

func (h *Handler) handleCalculate(ctx *fasthttp.RequestCtx) {
	var req model.CalculationRequest
	if !h.decode(ctx, &req) {
		return
	}

	c, cancel := requestContext(ctx)
	defer cancel()
	c = logger.WithTenantID(c, req.TenantID)

	resp := h.engine.Process(c, &req)
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

// handleProposal replays the edits and renders the assembled quote as a PDF. Drafts
// that cannot be assembled get a 422 listing what is missing.
func (h *Handler) handleProposal(ctx *fasthttp.RequestCtx) {
	var req model.CalculationRequest
	if !h.decode(ctx, &req) {
		return
	}

	c, cancel := requestContext(ctx)
	defer cancel()
	c = logger.WithTenantID(c, req.TenantID)

	resp := h.engine.Process(c, &req)
	result := resp.CalculationResult

	if resp.CalculationMetadata.CalculationOutcome != model.OutcomeSuccess {
		fields := map[string]string{}
		for _, m := range result.Messages {
			if m.Level == model.LevelCritical {
				fields[m.Code] = m.Message
			}
		}
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusUnprocessableEntity,
			Message: "The edits could not be applied",
			Fields:  fields,
		})
		return
	}
	if result.Quote == nil || result.Summary == nil {
		fields := make(map[string]string, len(result.Issues))
		for _, issue := range result.Issues {
			fields[issue.Field] = issue.Message
		}
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusUnprocessableEntity,
			Message: fmt.Sprintf("The quote is incomplete, see the %s section", result.FirstSection),
			Fields:  fields,
		})
		return
	}

	pdf, err := quotepdf.Render(quotepdf.Proposal{
		Draft:       *result.EndSituation.Draft,
		Quote:       *result.Quote,
		Summary:     *result.Summary,
		GeneratedAt: h.now(),
	})
	if err != nil {
		logger.CtxWithError(c, "proposal rendering failed", err)
		sentryutil.CaptureError(err, map[string]string{"route": "proposal"})
		writeError(ctx, fasthttp.StatusInternalServerError, "Proposal rendering failed")
		return
	}
	metrics.ProposalsRendered.Inc()

	ctx.SetContentType("application/pdf")
	ctx.Response.Header.Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="proposal-%s.pdf"`, resp.CalculationMetadata.DraftID))
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(pdf)
}

// handleConvert previews a birth date list without touching any draft.
func (h *Handler) handleConvert(ctx *fasthttp.RequestCtx) {
	var req model.ConvertRequest
	if !h.decode(ctx, &req) {
		return
	}

	current, fields := ledgerFrom("ledger", req.Ledger)
	if len(fields) > 0 {
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusBadRequest,
			Message: "Request validation failed",
			Fields:  fields,
		})
		return
	}

	now := h.now()
	if req.Today != "" {
		// validated as yyyy-mm-dd already
		now, _ = time.ParseInLocation("2006-01-02", req.Today, now.Location())
	}

	res := birthdates.Convert(req.Text, current, now)
	counts := make(map[string]int)
	for b, n := range res.Counts() {
		counts[b.Key()] = n
	}

	writeJSON(ctx, fasthttp.StatusOK, model.ConvertResponse{
		ValidDates:   res.ValidDates,
		InvalidDates: res.InvalidDates,
		Committable:  res.Committable(),
		Counts:       counts,
		Ledger:       res.Ledger,
		Total:        res.Ledger.Total(),
	})
}

// handlePrices prices catalog products, given in the catalog's own JSON shape, for a
// population of lives.
func (h *Handler) handlePrices(ctx *fasthttp.RequestCtx) {
	var req model.PriceRequest
	if !h.decode(ctx, &req) {
		return
	}

	lives, fields := ledgerFrom("lives", req.Lives)
	products := make([]catalog.Product, 0, len(req.Products))
	for i, raw := range req.Products {
		p, err := catalog.DecodeProduct(raw)
		if err != nil {
			fields[fmt.Sprintf("products[%d]", i)] = err.Error()
			continue
		}
		products = append(products, p)
	}
	if len(fields) > 0 {
		writeErrorResponse(ctx, model.ErrorResponse{
			Status:  fasthttp.StatusBadRequest,
			Message: "Request validation failed",
			Fields:  fields,
		})
		return
	}

	total := lives.Total()
	resp := model.PriceResponse{Lives: total, Products: make([]model.PricedProduct, 0, len(products))}
	for _, p := range products {
		priced := model.PricedProduct{
			ProductID:       p.ID,
			Name:            p.Name,
			Discount:        string(p.Discount),
			Price:           pricing.Price(p, lives, total, false),
			DiscountedPrice: pricing.Price(p, lives, total, true),
			Breakdown:       pricing.Calculate(p, lives, total, req.ApplyDiscount),
		}
		priced.DisplayPrice = priced.Breakdown.Total
		resp.Products = append(resp.Products, priced)
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) handlePlans(ctx *fasthttp.RequestCtx) {
	if h.plans == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "No plan catalog is configured")
		return
	}

	args := ctx.QueryArgs()
	f := catalog.Filters{
		QuoteType:       string(args.Peek("quoteType")),
		ClientType:      args.GetUintOrZero("clientType"),
		Coparticipation: args.GetUintOrZero("coparticipation"),
		MinPrice:        args.GetUintOrZero("minPrice"),
		MaxPrice:        args.GetUintOrZero("maxPrice"),
		StateID:         args.GetUintOrZero("stateId"),
		CityID:          args.GetUintOrZero("cityId"),
	}

	c, cancel := requestContext(ctx)
	defer cancel()

	plans, err := h.plans.FetchPlans(c, f)
	if err != nil {
		logger.CtxWithError(c, "plan listing failed", err)
		writeError(ctx, fasthttp.StatusBadGateway, "Plan catalog unavailable")
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, plans)
}

// ledgerFrom turns a band-key map into a ledger, reporting unknown bands by field.
func ledgerFrom(field string, counts map[string]int) (ageband.Ledger, map[string]string) {
	fields := map[string]string{}
	byBand := make(map[ageband.Band]int, len(counts))
	for key, n := range counts {
		b, ok := ageband.Parse(key)
		if !ok {
			fields[field+"."+key] = "Unknown age band"
			continue
		}
		byBand[b] = n
	}
	return ageband.Ledger{}.Replace(byBand), fields
}
