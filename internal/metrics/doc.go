// Package metrics records per-run migration metrics.
//
// Components receive a Recorder and default to NoopRecorder, so callers never
// check for nil. When a metrics file is configured the CLI injects a
// PrometheusRecorder backed by a private registry and writes it out in the
// node_exporter textfile format at the end of the run:
//
//	reg := prom.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	// ... run ...
//	_ = metrics.WriteTextfile(path, reg)
package metrics
