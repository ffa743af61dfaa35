// Package metrics holds the Prometheus instruments of the editor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Results and outcomes used as label values.
const (
	ResultOK    = "ok"
	ResultError = "error"

	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeStale  = "stale"
)

// Render modes used as label values.
const (
	ModeExport  = "export"
	ModePreview = "preview"
)

// Export metrics
var (
	// ExportsTotal counts export attempts by result.
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textbehind_exports_total",
			Help: "Total exports by result",
		},
		[]string{"result"},
	)

	// ExportBytes tracks the size of exported PNG files.
	ExportBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "textbehind_export_bytes",
			Help:    "Size of exported PNG files in bytes",
			Buckets: prometheus.ExponentialBuckets(64<<10, 2, 10),
		},
	)

	// RenderDuration tracks compositor latency in seconds by mode.
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "textbehind_render_duration_seconds",
			Help:    "Compositor render duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)
)

// Upload and background removal metrics
var (
	// UploadsTotal counts accepted uploads.
	UploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "textbehind_uploads_total",
			Help: "Total decoded uploads",
		},
	)

	// RemovalsTotal counts background removals by outcome.
	RemovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textbehind_background_removals_total",
			Help: "Total background removals by outcome (ok, failed, stale)",
		},
		[]string{"outcome"},
	)

	// RemovalDuration tracks how long background removal takes in seconds.
	RemovalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "textbehind_background_removal_duration_seconds",
			Help:    "Background removal duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Layer metrics
var (
	// TextLayers tracks the number of text layers in the editor.
	TextLayers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "textbehind_text_layers",
			Help: "Current number of text layers",
		},
	)
)
