package protocol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/raven-go"
	"lib.kevinlin.info/aperture/lib"

	"dnsanon/internal/anonymize"
	"dnsanon/internal/data"
	"dnsanon/internal/log"
	"dnsanon/internal/logline"
	"dnsanon/internal/metrics"
	"dnsanon/internal/stream"
)

// LogFilter is a DNS-log-aware stream filter. It correlates the lines of each query/response
// transaction, anonymizes a transaction once it completes or expires, and emits every line exactly
// once in arrival order of the transaction's first line. Unstructured lines are emitted untouched as
// soon as they are read.
//
// A LogFilter is driven by a single goroutine; none of its methods are safe for concurrent use.
type LogFilter struct {
	parser     *logline.Parser
	buffer     *data.CorrelationBuffer
	anonymizer *anonymize.Anonymizer
	emitter    *stream.Emitter
	hook       metrics.FilterHook
	logger     log.Logger
	opts       LogFilterOpts
}

// LogFilterOpts formalizes configuration options for the filter.
type LogFilterOpts struct {
	// FlushInterval is the period of the expiry sweep.
	FlushInterval time.Duration
	// Deadline is the maximum age of an open transaction, measured from its first record, after
	// which it is anonymized and emitted without waiting for its terminal record.
	Deadline time.Duration
	// MaxPending bounds the number of open transactions; the oldest are force-expired beyond it.
	// Any non-positive value disables the bound.
	MaxPending int
	// FlushOnShutdown emits open transactions, anonymized, on shutdown. By default they are
	// dropped.
	FlushOnShutdown bool
	// ExitOnEOF shuts the filter down at end of input. By default the filter keeps sweeping until
	// its context is cancelled.
	ExitOnEOF bool
	// Clock reads the current time. It defaults to time.Now.
	Clock func() time.Time
}

// NewLogFilter creates a filter for a log variant, emitting onto the specified emitter.
func NewLogFilter(
	variant Variant,
	settings anonymize.Settings,
	emitter *stream.Emitter,
	hook metrics.FilterHook,
	logger log.Logger,
	opts LogFilterOpts,
) (*LogFilter, error) {
	anonymizer, err := anonymize.NewAnonymizer(settings, variant.Policy)
	if err != nil {
		return nil, err
	}

	// Sane option defaults
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}

	if opts.Deadline <= 0 {
		opts.Deadline = 5 * time.Second
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	if hook == nil {
		hook = metrics.NewNoopFilterHook()
	}

	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &LogFilter{
		parser:     logline.NewParser(variant.Schema, opts.Clock),
		buffer:     data.NewCorrelationBuffer(opts.MaxPending),
		anonymizer: anonymizer,
		emitter:    emitter,
		hook:       hook,
		logger:     logger,
		opts:       opts,
	}, nil
}

// Run filters lines from the source until the context is cancelled, then shuts down. Expiry sweeps
// run once per flush interval. At end of input the filter keeps sweeping, unless ExitOnEOF is set.
// It returns nil on cancellation and the first fault otherwise.
func (f *LogFilter) Run(ctx context.Context, source *stream.LineSource) error {
	ticker := time.NewTicker(f.opts.FlushInterval)
	defer ticker.Stop()

	lines := source.Lines(ctx)

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("filter: context cancelled; shutting down")
			return f.Shutdown()

		case line, ok := <-lines:
			if !ok {
				if err := source.Err(); err != nil {
					return &TransactionError{Phase: PhaseRead, Err: err}
				}

				if f.opts.ExitOnEOF {
					f.logger.Info("filter: end of input; shutting down")
					return f.Shutdown()
				}

				f.logger.Info("filter: end of input; sweeping until shutdown")
				lines = nil
				continue
			}

			if err := f.HandleLine(line); err != nil {
				return err
			}

		case <-ticker.C:
			if err := f.Sweep(f.opts.Clock()); err != nil {
				return err
			}
		}
	}
}

// HandleLine routes one input line: passthrough lines are emitted immediately, structured lines
// join their transaction, which is emitted once its terminal record arrives.
func (f *LogFilter) HandleLine(raw string) error {
	lineTimer := lib.NewStopwatch()

	line := f.parser.Parse(raw)
	err := f.route(line)

	f.hook.EmitLine(line.Structured(), lineTimer.Elapsed())

	return err
}

// route emits a passthrough line or buffers a structured one, completing and evicting
// transactions as needed.
func (f *LogFilter) route(line logline.Line) error {
	if !line.Structured() {
		if err := f.emitter.EmitRaw(line.Raw); err != nil {
			return &TransactionError{Phase: PhasePassthrough, Err: err}
		}

		return nil
	}

	key := line.Record.Key()
	f.buffer.Insert(key, line.Record)

	if group, ok := f.buffer.TakeTerminal(key); ok {
		if err := f.complete(group, metrics.Complete); err != nil {
			return err
		}
	}

	for _, group := range f.buffer.DrainOverflow() {
		f.logger.Warn(
			"filter: buffer over capacity; evicting oldest transaction: key=%s capacity=%d",
			group.Key,
			f.opts.MaxPending,
		)

		if err := f.complete(group, metrics.Evicted); err != nil {
			return err
		}
	}

	f.hook.EmitPending(f.buffer.Len())

	return nil
}

// Sweep anonymizes and emits every open transaction older than the deadline at the specified
// instant. An abandoned query is treated as if it had completed.
func (f *LogFilter) Sweep(now time.Time) error {
	sweepTimer := lib.NewStopwatch()

	expired := f.buffer.DrainExpired(now, f.opts.Deadline)
	for _, group := range expired {
		f.logger.Debug(
			"filter: transaction expired without terminal record: key=%s records=%d",
			group.Key,
			len(group.Records),
		)

		if err := f.complete(group, metrics.Expired); err != nil {
			return err
		}
	}

	f.hook.EmitSweep(sweepTimer.Elapsed(), len(expired))

	if len(expired) > 0 {
		f.hook.EmitPending(f.buffer.Len())
	}

	return nil
}

// Shutdown empties the buffer: open transactions are emitted anonymized if FlushOnShutdown is set,
// and dropped otherwise. Nothing further is read or emitted afterwards by the caller.
func (f *LogFilter) Shutdown() error {
	groups := f.buffer.DrainAll()

	if !f.opts.FlushOnShutdown {
		if len(groups) > 0 {
			f.logger.Info("filter: dropping open transactions on shutdown: count=%d", len(groups))
		}

		for _, group := range groups {
			f.hook.EmitTransaction(metrics.Dropped, len(group.Records), f.opts.Clock().Sub(group.Opened()))
		}

		return nil
	}

	f.logger.Info("filter: flushing open transactions on shutdown: count=%d", len(groups))

	for _, group := range groups {
		if err := f.complete(group, metrics.Flushed); err != nil {
			return err
		}
	}

	return nil
}

// Pending returns the number of open transactions.
func (f *LogFilter) Pending() int {
	return f.buffer.Len()
}

// Open indicates whether a transaction key has buffered records.
func (f *LogFilter) Open(key string) bool {
	return f.buffer.Contains(key)
}

// ConsumeError logs a filter fault and reports it.
func (f *LogFilter) ConsumeError(err error) {
	f.logger.Error("%v", err)
	f.hook.EmitError()

	tags := map[string]string{}

	var txErr *TransactionError
	if errors.As(err, &txErr) {
		tags["phase"] = txErr.Phase
		tags["key"] = txErr.Key
	}

	raven.CaptureError(err, tags)
}

// complete anonymizes a whole transaction before writing any of it, so a fault never leaves a
// partially anonymized transaction on the output stream.
func (f *LogFilter) complete(group *data.Group, outcome metrics.Outcome) error {
	if err := f.anonymize(group); err != nil {
		return &TransactionError{Phase: PhaseAnonymize, Key: group.Key, Err: err}
	}

	if err := f.emitter.EmitGroup(group.Records); err != nil {
		return &TransactionError{Phase: PhaseEmit, Key: group.Key, Err: err}
	}

	f.hook.EmitTransaction(outcome, len(group.Records), f.opts.Clock().Sub(group.Opened()))

	f.logger.Debug(
		"filter: emitted transaction: key=%s records=%d outcome=%s",
		group.Key,
		len(group.Records),
		outcome,
	)

	return nil
}

// anonymize rewrites a group in place, converting a panic in the rewrite into an error.
func (f *LogFilter) anonymize(group *data.Group) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	f.anonymizer.AnonymizeGroup(group.Records)

	return nil
}
