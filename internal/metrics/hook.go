//go:generate go run golang.org/x/tools/cmd/stringer -type=Outcome -linecomment=true

package metrics

import (
	"os"
	"time"
)

// Outcome describes how a transaction left the correlation buffer.
type Outcome int

const (
	// Complete transactions ended with a terminal record.
	Complete Outcome = iota // complete
	// Expired transactions exceeded the deadline without a terminal record.
	Expired // expired
	// Evicted transactions were forced out because the buffer exceeded its capacity.
	Evicted // evicted
	// Flushed transactions were emitted at shutdown.
	Flushed // flushed
	// Dropped transactions were discarded at shutdown.
	Dropped // dropped
)

// FilterHook is a metrics hook interface for reporting events that occur while lines flow through
// the filter.
type FilterHook interface {
	// EmitLine reports that an input line was classified and handled, with the time spent
	// handling it, including any emission it triggered.
	EmitLine(structured bool, latency time.Duration)

	// EmitTransaction reports that a transaction left the buffer, with the number of records it
	// held and the time elapsed since its first record was ingested.
	EmitTransaction(outcome Outcome, records int, lifetime time.Duration)

	// EmitPending reports the number of open transactions.
	EmitPending(pending int)

	// EmitSweep reports the latency of one expiry sweep and the number of transactions it
	// drained.
	EmitSweep(latency time.Duration, drained int)

	// EmitError reports the occurrence of a fault that stops the filter.
	EmitError()
}

// AsyncStatsdFilterHook is an implementation of FilterHook that outputs metrics asynchronously to
// statsd.
type AsyncStatsdFilterHook struct {
	client *StatsdClient
	schema string
}

// NoopFilterHook implements the FilterHook interface but noops on all emissions.
type NoopFilterHook struct{}

// NewAsyncStatsdFilterHook creates a new hook with the specified statsd address and sample rate.
// The schema name tags every metric, to tell apart filters running over different log formats.
func NewAsyncStatsdFilterHook(schema string, addr string, sampleRate float32, version string) (FilterHook, error) {
	client, err := statsdClientFactory(addr, sampleRate, version)
	if err != nil {
		return nil, err
	}

	return &AsyncStatsdFilterHook{
		client: client,
		schema: schema,
	}, nil
}

// EmitLine statsd implementation
func (h *AsyncStatsdFilterHook) EmitLine(structured bool, latency time.Duration) {
	go func() {
		kind := "passthrough"
		if structured {
			kind = "structured"
		}

		tags := map[string]string{
			"kind":   kind,
			"schema": h.schema,
		}

		h.client.Count("event.filter.line", 1, tags)
		h.client.Timing("latency.filter.line", latency, tags)
	}()
}

// EmitTransaction statsd implementation
func (h *AsyncStatsdFilterHook) EmitTransaction(outcome Outcome, records int, lifetime time.Duration) {
	go func() {
		tags := map[string]string{
			"outcome": outcome.String(),
			"schema":  h.schema,
		}

		h.client.Count("event.filter.tx", 1, tags)
		h.client.Size("size.filter.tx_records", int64(records), tags)
		h.client.Timing("latency.filter.tx_lifetime", lifetime, tags)
	}()
}

// EmitPending statsd implementation
func (h *AsyncStatsdFilterHook) EmitPending(pending int) {
	go h.client.Gauge("gauge.filter.pending", int64(pending), map[string]string{
		"schema": h.schema,
	})
}

// EmitSweep statsd implementation
func (h *AsyncStatsdFilterHook) EmitSweep(latency time.Duration, drained int) {
	go func() {
		tags := map[string]string{"schema": h.schema}

		h.client.Timing("latency.filter.sweep", latency, tags)

		if drained > 0 {
			h.client.Count("event.filter.sweep_drained", int64(drained), tags)
		}
	}()
}

// EmitError statsd implementation
func (h *AsyncStatsdFilterHook) EmitError() {
	go h.client.Count("event.filter.error", 1, map[string]string{
		"schema": h.schema,
	})
}

// NewNoopFilterHook creates a noop implementation of FilterHook.
func NewNoopFilterHook() FilterHook {
	return &NoopFilterHook{}
}

// EmitLine noops.
func (h *NoopFilterHook) EmitLine(structured bool, latency time.Duration) {}

// EmitTransaction noops.
func (h *NoopFilterHook) EmitTransaction(outcome Outcome, records int, lifetime time.Duration) {}

// EmitPending noops.
func (h *NoopFilterHook) EmitPending(pending int) {}

// EmitSweep noops.
func (h *NoopFilterHook) EmitSweep(latency time.Duration, drained int) {}

// EmitError noops.
func (h *NoopFilterHook) EmitError() {}

// statsdClientFactory creates a configured StatsdClient with reasonable defaults for the given
// statsd server address and sample rate.
func statsdClientFactory(addr string, sampleRate float32, version string) (*StatsdClient, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	defaultTags := map[string]string{
		"host": hostname,
	}

	if version != "" {
		defaultTags["version"] = version
	}

	return NewStatsdClient(addr, "dnsanon", defaultTags, sampleRate)
}
