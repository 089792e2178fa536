package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

// Client reads plans from the catalog backend over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	http    *fasthttp.Client
}

func NewClient(baseURL string, timeout time.Duration, rps float64, burst int) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		http: &fasthttp.Client{
			Name:                "quote-engine",
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
		},
	}
}

func (c *Client) FetchPlans(ctx context.Context, f Filters) ([]Plan, error) {
	body, err := c.get(ctx, "/plans", f)
	if err != nil {
		return nil, err
	}
	plans, err := DecodePlans(body)
	if err != nil {
		return nil, fmt.Errorf("catalog: decode plans: %w", err)
	}
	return plans, nil
}

func (c *Client) FetchPlanDetails(ctx context.Context, planID string, f Filters) (PlanDetails, error) {
	body, err := c.get(ctx, "/plans/"+url.PathEscape(planID), f)
	if err != nil {
		return PlanDetails{}, err
	}
	d, err := DecodePlanDetails(body)
	if err != nil {
		return PlanDetails{}, fmt.Errorf("catalog: decode plan %s: %w", planID, err)
	}
	if d.ID == "" {
		d.ID = planID
	}
	return d, nil
}

func (c *Client) get(ctx context.Context, path string, f Filters) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path + "?" + f.QueryString())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("catalog: GET %s: %w", path, err)
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, ErrPlanNotFound
	default:
		return nil, fmt.Errorf("catalog: GET %s: unexpected status %d", path, resp.StatusCode())
	}

	// the response buffer is released on return
	body := append([]byte(nil), resp.Body()...)
	if !json.Valid(body) {
		return nil, fmt.Errorf("catalog: GET %s: invalid json body", path)
	}
	return body, nil
}
