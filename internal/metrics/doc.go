// SPDX-License-Identifier: MPL-2.0

// Package metrics records provider resolutions as Prometheus metrics.
//
// A Recorder owns its registry so that one-shot CLI runs can dump a textfile
// for the node exporter's textfile collector without touching global state.
package metrics
