// Package metrics exposes process-wide Prometheus counters for the capture
// pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MessagesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capture_messages_processed_total",
		Help: "Total number of chat messages handled by the pipeline",
	})
	CapturesSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capture_records_saved_total",
		Help: "Total number of capture records persisted to Notion",
	})
	FetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capture_fetch_failures_total",
		Help: "Total number of content fetches that degraded to a URL hint",
	})
	EnrichFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capture_enrich_fallbacks_total",
		Help: "Total number of model calls that fell back to default metadata",
	})
	PersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capture_persist_failures_total",
		Help: "Total number of failed Notion record-creation calls",
	})
)

func init() {
	prometheus.MustRegister(MessagesProcessed, CapturesSaved, FetchFailures, EnrichFallbacks, PersistFailures)
}
