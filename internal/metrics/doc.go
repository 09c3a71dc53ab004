// Package metrics exposes Prometheus counters and histograms for the broker
// and worker nodes. A nil *Collector is valid and records nothing.
package metrics
