package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WindowsProcessed counts audio windows that went through recognition.
	WindowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicearena_windows_processed_total",
		Help: "Audio windows submitted to the recognition fan-out.",
	})

	// WindowsDroppedSilent counts windows discarded below the RMS floor.
	WindowsDroppedSilent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicearena_windows_dropped_silent_total",
		Help: "Audio windows dropped before recognition for being silent.",
	})

	// WindowsDroppedArtifact counts windows whose transcript was a known
	// silence hallucination.
	WindowsDroppedArtifact = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicearena_windows_dropped_artifact_total",
		Help: "Audio windows dropped for silence-artifact transcripts.",
	})

	// RecognitionLatency observes wall time of the fan-out/join per window.
	RecognitionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voicearena_recognition_latency_seconds",
		Help:    "Wall time of speaker-ID plus transcription for one window.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	// CommandsRecognized counts emitted results carrying a command.
	CommandsRecognized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicearena_commands_recognized_total",
		Help: "Recognition results that included a valid command.",
	})

	// DancePlansGenerated counts choreography plans delivered to clients.
	DancePlansGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicearena_dance_plans_generated_total",
		Help: "Choreography plans delivered, fallbacks included.",
	})

	// DanceFallbacks counts plans substituted by the hard-coded fallback.
	DanceFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicearena_dance_fallbacks_total",
		Help: "Choreography generations that fell back to the default plan.",
	})

	// ActiveConnections tracks live WebSocket clients.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voicearena_active_connections",
		Help: "Currently connected WebSocket clients.",
	})
)
