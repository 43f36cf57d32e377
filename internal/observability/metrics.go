package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audiobook_gateway_active_sessions",
		Help: "Number of active conversion sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiobook_gateway_sessions_total",
		Help: "Total number of sessions created",
	})

	// Conversion metrics
	conversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audiobook_gateway_conversions_total",
		Help: "Total number of conversion submissions",
	}, []string{"engine", "status"}) // status: "success", "error", "rejected", "canceled"

	conversionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "audiobook_gateway_conversion_duration_seconds",
		Help:    "Duration of conversion submissions in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	audioBytesProduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiobook_gateway_audio_bytes_total",
		Help: "Total audio bytes returned by the converter",
	})

	// Resource metrics
	mountedResources = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audiobook_gateway_mounted_resources",
		Help: "Number of playable resources currently mounted",
	})

	// Playback metrics
	playbackCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audiobook_gateway_playback_commands_total",
		Help: "Total playback commands issued",
	}, []string{"command"})

	downloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audiobook_gateway_downloads_total",
		Help: "Total audiobook downloads served",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audiobook_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})
)

// RecordSessionStart records a new session
func RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records a session ending
func RecordSessionEnd() {
	activeSessions.Dec()
}

// RecordConversion records the outcome of a conversion submission
func RecordConversion(engine, status string, started time.Time) {
	conversions.WithLabelValues(engine, status).Inc()
	if status == "success" || status == "error" {
		conversionDuration.Observe(time.Since(started).Seconds())
	}
}

// RecordAudioBytes records the size of a converted audiobook
func RecordAudioBytes(n int) {
	audioBytesProduced.Add(float64(n))
}

// RecordResourceMounted tracks resources entering the registry
func RecordResourceMounted() {
	mountedResources.Inc()
}

// RecordResourceReleased tracks resources leaving the registry
func RecordResourceReleased() {
	mountedResources.Dec()
}

// RecordPlaybackCommand records a playback command by name
func RecordPlaybackCommand(command string) {
	playbackCommands.WithLabelValues(command).Inc()
}

// RecordDownload records a served download
func RecordDownload() {
	downloads.Inc()
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
