package handler

import (
	"context"
	"errors"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"quote-engine/internal/catalog"
	"quote-engine/internal/engine"
	"quote-engine/internal/logger"
	"quote-engine/internal/metrics"
	"quote-engine/internal/model"
	"quote-engine/internal/sentryutil"
	"quote-engine/internal/validator"
)

const requestTimeout = 10 * time.Second

// PlanLister lists the catalog's plans. It is nil when no catalog backend is configured.
type PlanLister interface {
	FetchPlans(ctx context.Context, f catalog.Filters) ([]catalog.Plan, error)
}

type Options struct {
	Engine         *engine.Engine
	Plans          PlanLister
	MetricsEnabled bool
	Now            func() time.Time
}

type Handler struct {
	engine   *engine.Engine
	plans    PlanLister
	validate *validator.Validator
	now      func() time.Time
	routes   map[string]route
}

type route struct {
	method string
	handle fasthttp.RequestHandler
}

func New(opts Options) *Handler {
	h := &Handler{
		engine:   opts.Engine,
		plans:    opts.Plans,
		validate: validator.New(),
		now:      opts.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}

	h.routes = map[string]route{
		"/quotes/calculate":   {fasthttp.MethodPost, h.instrument("calculate", h.handleCalculate)},
		"/quotes/proposal":    {fasthttp.MethodPost, h.instrument("proposal", h.handleProposal)},
		"/birthdates/convert": {fasthttp.MethodPost, h.instrument("convert", h.handleConvert)},
		"/prices":             {fasthttp.MethodPost, h.instrument("prices", h.handlePrices)},
		"/plans":              {fasthttp.MethodGet, h.instrument("plans", h.handlePlans)},
		"/healthz":            {fasthttp.MethodGet, handleHealth},
	}
	if opts.MetricsEnabled {
		h.routes["/metrics"] = route{fasthttp.MethodGet, metrics.Handler()}
	}
	return h
}

// Handle routes a request by exact path.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	r, ok := h.routes[string(ctx.Path())]
	if !ok {
		writeError(ctx, fasthttp.StatusNotFound, "Not found")
		return
	}
	if string(ctx.Method()) != r.method {
		ctx.Response.Header.Set("Allow", r.method)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	r.handle(ctx)
}

// instrument assigns the request id, recovers panics into a 500 reported to Sentry and
// records the request duration.
func (h *Handler) instrument(name string, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		reqID := string(ctx.Request.Header.Peek("X-Request-ID"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx.SetUserValue(requestIDKey, reqID)
		ctx.Response.Header.Set("X-Request-ID", reqID)

		defer func() {
			if rec := recover(); rec != nil {
				sentryutil.CapturePanic(rec, map[string]string{"route": name, "request_id": reqID})
				logger.Error("panic recovered", "route", name, "request_id", reqID, "panic", rec)
				ctx.Response.Reset()
				ctx.Response.Header.Set("X-Request-ID", reqID)
				writeError(ctx, fasthttp.StatusInternalServerError, "Internal server error")
			}

			status := ctx.Response.StatusCode()
			elapsed := time.Since(start)
			metrics.RequestDuration.WithLabelValues(name, strconv.Itoa(status)).Observe(elapsed.Seconds())
			logger.Info("http request",
				"request_id", reqID,
				"method", string(ctx.Method()),
				"path", string(ctx.Path()),
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
				"size_bytes", len(ctx.Response.Body()),
			)
		}()

		next(ctx)
	}
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// requestContext is the context handed to the engine: it carries the request id for
// logging and bounds catalog calls.
func requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	c := context.Background()
	if id, ok := ctx.UserValue(requestIDKey).(string); ok {
		c = logger.WithRequestID(c, id)
	}
	return context.WithTimeout(c, requestTimeout)
}

// decode reads a JSON body and validates it. It writes the 400 response itself and
// returns false when the request is unusable.
func (h *Handler) decode(ctx *fasthttp.RequestCtx, v interface{}) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "Request body is required")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Validate(v); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			writeErrorResponse(ctx, model.ErrorResponse{
				Status:  fasthttp.StatusBadRequest,
				Message: "Request validation failed",
				Fields:  verr.Errors,
			})
			return false
		}
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "Response encoding failed: "+err.Error())
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(data)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeErrorResponse(ctx, model.ErrorResponse{Status: status, Message: message})
}

func writeErrorResponse(ctx *fasthttp.RequestCtx, resp model.ErrorResponse) {
	data, _ := json.Marshal(resp)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(resp.Status)
	ctx.SetBody(data)
}
