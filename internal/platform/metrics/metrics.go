package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the compliance gateway.
type Metrics struct {
	// Geo metrics
	GeoChecks          *prometheus.CounterVec
	GeoLookupFailures  prometheus.Counter
	GeoLookupLatency   prometheus.Histogram
	GPSMismatches      prometheus.Counter

	// Identity verification metrics
	VerificationsSubmitted prometheus.Counter
	VerificationsReviewed  *prometheus.CounterVec
	ReviewConflicts        prometheus.Counter
	PendingQueueDepth      prometheus.Gauge

	// Compliance gate metrics
	ProductAccessChecks  *prometheus.CounterVec
	ComplianceLatency    prometheus.Histogram

	// Audit pipeline metrics
	AuditRecordsWritten prometheus.Counter
	AuditWriteFailures  prometheus.Counter
	AuditRetries        prometheus.Counter
	OutboxPublished     prometheus.Counter
	OutboxFailures      prometheus.Counter
	OutboxPendingDepth  prometheus.Gauge

	// Endpoint metrics
	EndpointLatency   *prometheus.HistogramVec
	RateLimitRejected *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		GeoChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aibetix_geo_checks_total",
			Help: "Total number of geo access evaluations, labeled by verdict",
		}, []string{"verdict"}),
		GeoLookupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_geo_lookup_failures_total",
			Help: "Total number of failed IP geolocation lookups",
		}),
		GeoLookupLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aibetix_geo_lookup_latency_seconds",
			Help:    "Latency of external IP geolocation lookups",
			Buckets: prometheus.DefBuckets,
		}),
		GPSMismatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_gps_mismatches_total",
			Help: "Total number of GPS/IP location consistency failures",
		}),
		VerificationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_identity_verifications_submitted_total",
			Help: "Total number of identity verification submissions",
		}),
		VerificationsReviewed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aibetix_identity_verifications_reviewed_total",
			Help: "Total number of identity verification reviews, labeled by outcome",
		}, []string{"outcome"}),
		ReviewConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_identity_review_conflicts_total",
			Help: "Total number of review attempts rejected because the record was no longer pending",
		}),
		PendingQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aibetix_identity_pending_queue_depth",
			Help: "Current number of verification records awaiting review",
		}),
		ProductAccessChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aibetix_product_access_checks_total",
			Help: "Total number of product access decisions, labeled by product and decision",
		}, []string{"product", "decision"}),
		ComplianceLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "aibetix_compliance_check_latency_seconds",
			Help:    "Latency of full compliance decisions",
			Buckets: prometheus.DefBuckets,
		}),
		AuditRecordsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_audit_records_written_total",
			Help: "Total number of location verification audit records written",
		}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_audit_write_failures_total",
			Help: "Total number of audit writes that failed after all retries",
		}),
		AuditRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_audit_write_retries_total",
			Help: "Total number of audit write retry attempts",
		}),
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_audit_outbox_published_total",
			Help: "Total number of outbox entries published to Kafka",
		}),
		OutboxFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aibetix_audit_outbox_failures_total",
			Help: "Total number of outbox publish failures",
		}),
		OutboxPendingDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "aibetix_audit_outbox_pending_depth",
			Help: "Current number of unpublished outbox entries",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aibetix_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		RateLimitRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aibetix_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter, labeled by route",
		}, []string{"route"}),
	}
}
