// Package metrics exports runtime, patch and stream activity as Prometheus
// metrics.
//
// A [Collector] implements [reactive.Instrumentation] and [vdom.OpObserver],
// so one value can be passed to both the runtime and the patcher:
//
//	reg := prometheus.NewRegistry()
//	c := metrics.New(metrics.WithRegistry(reg))
//	rt := reactive.NewRuntime(reactive.WithInstrumentation(c))
//	p := vdom.NewPatcher(backend, vdom.WithObserver(c))
//
// Metrics collected (with the default "reactor" namespace):
//   - reactor_flushes_total: Counter of flushes by result
//   - reactor_flush_duration_seconds: Histogram of flush duration
//   - reactor_flush_queue_size: Histogram of watchers queued per flush
//   - reactor_update_cycles_total: Counter of watchers dropped by the cycle guard
//   - reactor_watcher_runs_total: Counter of watcher evaluations by label and result
//   - reactor_watcher_duration_seconds: Histogram of watcher evaluation time by label
//   - reactor_patch_ops_total: Counter of patch mutations by kind
//   - reactor_frames_sent_total: Counter of stream frames
//   - reactor_frame_bytes_total: Counter of encoded frame bytes
//   - reactor_stream_clients: Gauge of connected stream clients
package metrics
