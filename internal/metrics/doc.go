// Package metrics contains abstractions for emission of metrics generated while the filter runs.
// Currently, the only supported metrics output engine is statsd.
//
// Metrics are structured around the notion of hooks: a hook interface defines methods that the
// filter invokes at points in a line's or a transaction's lifecycle, thus "hooking" into the
// filter's logic. Implementations of hook interfaces actually output the metrics to a backend
// engine; this responsibility is decoupled from the semantics of hooking into business logic.
package metrics
