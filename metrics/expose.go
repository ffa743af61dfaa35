package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gatherer merges the editor instruments, registered with the default
// registry next to its Go runtime and process collectors, with extra.
func Gatherer(extra ...prometheus.Gatherer) prometheus.Gatherer {
	return prometheus.Gatherers(append([]prometheus.Gatherer{prometheus.DefaultGatherer}, extra...))
}

// Handler serves the metrics of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// WriteFile writes the metrics of g in the text exposition format to
// path, for the node exporter's textfile collector.
func WriteFile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
