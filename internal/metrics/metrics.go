// Package metrics exposes Prometheus metrics for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Provider struct {
	reg *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	OptimizeDuration prometheus.Histogram
	StationCount     prometheus.Gauge
}

func Init() *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := &Provider{
		reg: reg,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelroute_http_requests_total",
				Help: "HTTP requests by route and status code.",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fuelroute_http_request_duration_seconds",
				Help:    "End-to-end HTTP request duration.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fuelroute_plan_cache_lookups_total",
				Help: "Plan cache lookups by outcome (hit/miss).",
			},
			[]string{"outcome"},
		),
		OptimizeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fuelroute_optimize_duration_seconds",
				Help:    "Route optimization compute time.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		StationCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fuelroute_stations_indexed",
				Help: "Stations in the active spatial index.",
			},
		),
	}

	reg.MustRegister(
		p.RequestsTotal,
		p.RequestDuration,
		p.CacheLookups,
		p.OptimizeDuration,
		p.StationCount,
	)

	return p
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// ObserveRequest records one finished HTTP request.
func (p *Provider) ObserveRequest(route string, status int, dur time.Duration) {
	p.RequestsTotal.WithLabelValues(route, httpStatusLabel(status)).Inc()
	p.RequestDuration.WithLabelValues(route).Observe(dur.Seconds())
}

func httpStatusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
