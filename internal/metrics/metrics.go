package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Archive metrics
var (
	// ArchiveQueriesTotal counts snapshot and event archive statements
	ArchiveQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terracurve_archive_queries_total",
			Help: "Statements run against the snapshot and event archive",
		},
		[]string{"query_type", "table", "status"},
	)

	ArchiveQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terracurve_archive_query_duration_seconds",
			Help:    "Archive statement latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"query_type", "table"},
	)

	// ArchivePool mirrors sql.DBStats by connection state
	ArchivePool = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "terracurve_archive_pool_connections",
			Help: "Archive pool connections by state",
		},
		[]string{"state"},
	)
)

// Device metrics
var (
	// DeviceRequestsTotal counts calls to the controller by endpoint and outcome
	DeviceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terracurve_device_requests_total",
			Help: "Total number of requests sent to the heating controller",
		},
		[]string{"operation", "status"},
	)

	DeviceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "terracurve_device_request_duration_seconds",
			Help:    "Duration of controller requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)
)

// Curve metrics
var (
	// CodecClampedValues counts temperatures saturated while encoding
	CodecClampedValues = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "terracurve_codec_clamped_values_total",
			Help: "Temperatures clamped to the int16 range during encoding",
		},
	)

	// CurveEditsTotal counts edits by kind (hour, drag, smooth, preset...)
	CurveEditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terracurve_curve_edits_total",
			Help: "Edits applied to the working day curve",
		},
		[]string{"kind", "clamped"},
	)

	// ProfileOperationsTotal counts coordinator operations by outcome
	ProfileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terracurve_profile_operations_total",
			Help: "Profile load/save operations by outcome",
		},
		[]string{"operation", "status"},
	)

	// LiveClients tracks connected websocket viewers
	LiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terracurve_live_clients",
			Help: "Number of connected live-update clients",
		},
	)

	// EventsPublishedTotal counts state-change events by sink
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terracurve_events_published_total",
			Help: "State change events published",
		},
		[]string{"sink", "status"},
	)
)

var (
	// AppInfo provides static information about the application
	AppInfo = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terracurve_app_info",
			Help: "Application information (always 1)",
		},
	)

	// AppStartTime records when the application started
	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "terracurve_app_start_time_seconds",
			Help: "Unix timestamp of when the application started",
		},
	)
)

func init() {
	AppInfo.Set(1)
	AppStartTime.SetToCurrentTime()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordDBQuery records an archive statement
func RecordDBQuery(queryType, table string, duration time.Duration, err error) {
	ArchiveQueriesTotal.WithLabelValues(queryType, table, status(err)).Inc()
	ArchiveQueryDuration.WithLabelValues(queryType, table).Observe(duration.Seconds())
}

func RecordArchivePool(open, inUse, idle int) {
	ArchivePool.WithLabelValues("open").Set(float64(open))
	ArchivePool.WithLabelValues("in_use").Set(float64(inUse))
	ArchivePool.WithLabelValues("idle").Set(float64(idle))
}

// RecordDeviceRequest records one controller round trip
func RecordDeviceRequest(operation string, duration time.Duration, err error) {
	DeviceRequestsTotal.WithLabelValues(operation, status(err)).Inc()
	DeviceRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordClamped adds encoder saturation warnings
func RecordClamped(n int) {
	if n > 0 {
		CodecClampedValues.Add(float64(n))
	}
}

// RecordCurveEdit counts an edit of the working curve
func RecordCurveEdit(kind string, clamped bool) {
	c := "false"
	if clamped {
		c = "true"
	}
	CurveEditsTotal.WithLabelValues(kind, c).Inc()
}

// RecordProfileOperation counts a coordinator operation
func RecordProfileOperation(operation string, err error) {
	ProfileOperationsTotal.WithLabelValues(operation, status(err)).Inc()
}

// RecordEvent counts an event published to a sink
func RecordEvent(sink string, err error) {
	EventsPublishedTotal.WithLabelValues(sink, status(err)).Inc()
}
