package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus counters.
type PrometheusRecorder struct {
	resolutions         *prom.CounterVec
	extractionTiers     *prom.CounterVec
	persistenceFailures prom.Counter
	eventsPublished     prom.Counter
	eventsDropped       *prom.CounterVec
	cacheInvalidations  prom.Counter
}

// NewPrometheusRecorder constructs and registers the metrics on reg,
// creating a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		resolutions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sectiond",
			Name:      "resolutions_total",
			Help:      "Page resolutions by content provenance",
		}, []string{"provenance"}),
		extractionTiers: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sectiond",
			Name:      "extraction_tier_hits_total",
			Help:      "Extraction runs by the tier that produced sections",
		}, []string{"tier"}),
		persistenceFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: "sectiond",
			Name:      "persistence_failures_total",
			Help:      "Store writes that failed during resolution",
		}),
		eventsPublished: prom.NewCounter(prom.CounterOpts{
			Namespace: "sectiond",
			Name:      "update_events_published_total",
			Help:      "Content update events published to the bus",
		}),
		eventsDropped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sectiond",
			Name:      "update_events_dropped_total",
			Help:      "Received update events discarded without effect",
		}, []string{"reason"}),
		cacheInvalidations: prom.NewCounter(prom.CounterOpts{
			Namespace: "sectiond",
			Name:      "cache_invalidations_total",
			Help:      "Client cache entries invalidated by update events",
		}),
	}
	reg.MustRegister(pr.resolutions, pr.extractionTiers, pr.persistenceFailures,
		pr.eventsPublished, pr.eventsDropped, pr.cacheInvalidations)
	return pr
}

func (p *PrometheusRecorder) IncResolution(provenance string) {
	if p == nil || p.resolutions == nil {
		return
	}
	p.resolutions.WithLabelValues(provenance).Inc()
}

func (p *PrometheusRecorder) IncExtractionTier(tier string) {
	if p == nil || p.extractionTiers == nil {
		return
	}
	p.extractionTiers.WithLabelValues(tier).Inc()
}

func (p *PrometheusRecorder) IncPersistenceFailure() {
	if p == nil || p.persistenceFailures == nil {
		return
	}
	p.persistenceFailures.Inc()
}

func (p *PrometheusRecorder) IncEventPublished() {
	if p == nil || p.eventsPublished == nil {
		return
	}
	p.eventsPublished.Inc()
}

func (p *PrometheusRecorder) IncEventDropped(reason string) {
	if p == nil || p.eventsDropped == nil {
		return
	}
	p.eventsDropped.WithLabelValues(reason).Inc()
}

func (p *PrometheusRecorder) IncCacheInvalidation() {
	if p == nil || p.cacheInvalidations == nil {
		return
	}
	p.cacheInvalidations.Inc()
}

// HTTPHandler serves the registry on the admin mux.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
