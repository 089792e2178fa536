package catalog

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/sync/singleflight"

	"quote-engine/internal/metrics"
)

var ErrPlanNotFound = errors.New("catalog: plan not found")

// Filters are the quote filters the catalog narrows plans and prices by.
type Filters struct {
	QuoteType       string
	ClientType      int
	Coparticipation int
	MinPrice        int
	MaxPrice        int
	StateID         int
	CityID          int
}

// QueryString renders the filters as catalog query arguments.
func (f Filters) QueryString() string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	if f.QuoteType != "" {
		args.Set("quoteType", f.QuoteType)
	}
	args.Set("clientType", strconv.Itoa(f.ClientType))
	args.Set("coparticipation", strconv.Itoa(f.Coparticipation))
	args.Set("minPrice", strconv.Itoa(f.MinPrice))
	args.Set("maxPrice", strconv.Itoa(f.MaxPrice))
	if f.StateID != 0 {
		args.Set("stateId", strconv.Itoa(f.StateID))
	}
	if f.CityID != 0 {
		args.Set("cityId", strconv.Itoa(f.CityID))
	}
	return args.String()
}

// Fetcher loads plan details from wherever the catalog lives.
type Fetcher interface {
	FetchPlanDetails(ctx context.Context, planID string, f Filters) (PlanDetails, error)
}

// Source is what the quote engine reads plan details from.
type Source interface {
	PlanDetails(ctx context.Context, planID string, f Filters) (PlanDetails, error)
}

// fetchTimeout bounds a shared fetch, which outlives the caller that started it.
const fetchTimeout = 10 * time.Second

// Cache fetches each plan once per filter set and keeps the result for the life of the
// process. Concurrent requests for the same entry share one fetch. Failures are not cached.
type Cache struct {
	fetcher Fetcher
	entries sync.Map
	group   singleflight.Group
}

func NewCache(f Fetcher) *Cache {
	return &Cache{fetcher: f}
}

// cacheKey scopes an entry to the filters it was fetched with.
func cacheKey(planID string, f Filters) string {
	return planID + "?" + f.QueryString()
}

func (c *Cache) PlanDetails(ctx context.Context, planID string, f Filters) (PlanDetails, error) {
	if d, ok := c.Cached(planID, f); ok {
		metrics.CatalogCacheHits.Inc()
		return d, nil
	}

	key := cacheKey(planID, f)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if d, ok := c.Cached(planID, f); ok {
			return d, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		d, err := c.fetcher.FetchPlanDetails(fetchCtx, planID, f)
		if err != nil {
			metrics.CatalogFetches.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.CatalogFetches.WithLabelValues("ok").Inc()
		// first writer wins; the cached value never changes afterwards
		actual, _ := c.entries.LoadOrStore(key, d)
		return actual, nil
	})

	select {
	case <-ctx.Done():
		return PlanDetails{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return PlanDetails{}, res.Err
		}
		return res.Val.(PlanDetails), nil
	}
}

// Cached returns already loaded details without fetching.
func (c *Cache) Cached(planID string, f Filters) (PlanDetails, bool) {
	v, ok := c.entries.Load(cacheKey(planID, f))
	if !ok {
		return PlanDetails{}, false
	}
	return v.(PlanDetails), true
}
