// Package metrics records per-run conversion metrics on a private Prometheus
// registry. The registry is written once at the end of a run in the text
// exposition format, for node_exporter's textfile collector.
package metrics
