package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dnsanon/internal/anonymize"
	"dnsanon/internal/log"
	"dnsanon/internal/meta"
	"dnsanon/internal/metrics"
	"dnsanon/internal/protocol"
	"dnsanon/internal/stream"

	"github.com/getsentry/raven-go"
)

func main() {
	configPath := flag.String(
		"config",
		os.Getenv("DNSANON_CONFIG"),
		"path to the configuration file on disk; defaults apply when empty",
	)
	version := flag.Bool(
		"version",
		false,
		"print the compiled dnsanon version SHA",
	)
	verbosity := flag.String(
		"verbosity",
		"error",
		"desired logging verbosity: one of error, warn, info, debug",
	)
	inputPath := flag.String(
		"input",
		"",
		"path to the DNS server log to anonymize; - for standard input (overrides config)",
	)
	outputPath := flag.String(
		"output",
		"",
		"path to append anonymized lines to; - for standard output (overrides config)",
	)
	exitOnEOF := flag.Bool(
		"exit-on-eof",
		false,
		"shut down at end of input instead of waiting for an interrupt",
	)
	flag.Parse()

	// Report the compiled version and exit
	if *version {
		fmt.Printf("dnsanon/%s\n", meta.VersionSHA)
		return
	}

	// Logging configuration; default to log.Error verbosity. Logs go to standard error, since
	// standard output may carry the anonymized stream.
	level, _ := log.ParseLevel(*verbosity)
	logger := log.NewConsoleLogger(level)
	logger.Debug("main: initialized logger: level=%v", level)

	// Parse application configuration
	logger.Debug("main: reading and parsing config: path=%s", *configPath)
	config, err := meta.ParseConfig(*configPath)
	if err != nil {
		panic(err)
	}

	if *inputPath != "" {
		config.IO.Input = *inputPath
	}

	if *outputPath != "" {
		config.IO.Output = *outputPath
	}

	if *exitOnEOF {
		config.IO.ExitOnEOF = true
	}

	// Configure error reporting
	if config.Application != nil && config.Application.SentryDSN != "" {
		raven.SetDSN(config.Application.SentryDSN)
		raven.SetRelease(meta.VersionSHA)
	}

	// Validated by the config layer
	variant, _ := protocol.LookupVariant(config.Anonymizer.Schema)

	// Configure metrics reporting
	filterHook := metrics.NewNoopFilterHook()

	if config.Metrics != nil && config.Metrics.Statsd != nil {
		logger.Info(
			"main: configuring statsd metrics reporting: addr=%s sample_rate=%f",
			config.Metrics.Statsd.Address,
			config.Metrics.Statsd.SampleRate,
		)

		if filterHook, err = metrics.NewAsyncStatsdFilterHook(
			variant.Schema.Name,
			config.Metrics.Statsd.Address,
			config.Metrics.Statsd.SampleRate,
			meta.VersionSHA,
		); err != nil {
			panic(err)
		}
	} else {
		logger.Warn("main: no metrics output engine specified; disabling metrics")
	}

	// Open streams before any processing begins; standard streams are never closed
	input, err := stream.OpenInput(config.IO.Input)
	if err != nil {
		panic(err)
	}
	defer input.Close()

	output, err := stream.OpenOutput(config.IO.Output)
	if err != nil {
		panic(err)
	}
	defer output.Close()

	logger.Info(
		"main: opened streams: input=%s output=%s schema=%s",
		input.Name(),
		output.Name(),
		variant.Schema.Name,
	)

	filter, err := protocol.NewLogFilter(
		variant,
		anonymize.Settings{
			Domain:  config.Anonymizer.Domain,
			Address: config.Anonymizer.Address,
		},
		stream.NewEmitter(output),
		filterHook,
		logger,
		protocol.LogFilterOpts{
			FlushInterval:   config.Buffer.FlushInterval,
			Deadline:        config.Buffer.Deadline,
			MaxPending:      config.Buffer.MaxPending,
			FlushOnShutdown: config.Buffer.FlushOnShutdown,
			ExitOnEOF:       config.IO.ExitOnEOF,
		},
	)
	if err != nil {
		panic(err)
	}

	// An interrupt is an orderly shutdown, not a fault
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(
		"main: filtering: flush_interval=%v deadline=%v max_pending=%d flush_on_shutdown=%t",
		config.Buffer.FlushInterval,
		config.Buffer.Deadline,
		config.Buffer.MaxPending,
		config.Buffer.FlushOnShutdown,
	)

	if err := filter.Run(ctx, stream.NewLineSource(input)); err != nil {
		filter.ConsumeError(err)
		raven.Wait()

		// Deferred closes do not run across os.Exit
		stop()
		output.Close()
		input.Close()
		os.Exit(1)
	}

	logger.Info("main: shut down cleanly")
}
