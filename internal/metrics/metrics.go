package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const namespace = "quote_engine"

// Registry holds every collector the service exports.
var Registry = prometheus.NewRegistry()

var (
	Calculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculations_total",
		Help:      "Draft calculations by outcome.",
	}, []string{"outcome"})

	Edits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "edits_total",
		Help:      "Processed draft edits by definition name.",
	}, []string{"edit"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})

	CatalogFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_fetches_total",
		Help:      "Plan detail fetches against the catalog by result.",
	}, []string{"result"})

	CatalogCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_cache_hits_total",
		Help:      "Plan detail lookups served from the cache.",
	})

	BirthdateConversions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "birthdate_conversions_total",
		Help:      "Birth date list conversions by result.",
	}, []string{"result"})

	ProposalsRendered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proposals_rendered_total",
		Help:      "PDF proposals rendered.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Calculations,
		Edits,
		RequestDuration,
		CatalogFetches,
		CatalogCacheHits,
		BirthdateConversions,
		ProposalsRendered,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
