// Package metrics exposes the server's Prometheus gauges, counters, and
// histograms.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aurelio_voice_calls_active",
		Help: "Currently active voice connections",
	})

	CallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aurelio_voice_calls_total",
		Help: "Total voice connections accepted",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aurelio_stage_duration_seconds",
		Help:    "Per-stage latency (stt, llm, tts, tool)",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
	}, []string{"stage"})

	E2EDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aurelio_turn_e2e_duration_seconds",
		Help:    "End-to-end latency from user-turn append to terminal sentinel",
		Buckets: []float64{0.1, 0.2, 0.5, 0.8, 1.0, 1.5, 2.0, 3.0, 5.0, 8.0},
	})

	ToolDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurelio_tool_dispatch_total",
		Help: "Tool invocations by name",
	}, []string{"tool"})

	ToolErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aurelio_tool_errors_total",
		Help: "Tool invocations that returned an error result, by name",
	}, []string{"tool"})

	BargeInTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aurelio_barge_in_total",
		Help: "Barge-in (INT0) events observed",
	})

	AudioChunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aurelio_audio_chunks_total",
		Help: "AUD0 frames received",
	})

	SpeechSegmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aurelio_speech_segments_total",
		Help: "Utterances closed out by VAD silence timeout or STOP",
	})
)
