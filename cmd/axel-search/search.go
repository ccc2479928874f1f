package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/innero/axel/internal/config"
	axelhttp "github.com/innero/axel/internal/http"
	"github.com/innero/axel/internal/metrics"
	"github.com/innero/axel/internal/mirror"
	"github.com/innero/axel/internal/progress"
	"github.com/innero/axel/internal/report"
	"github.com/innero/axel/internal/search"
	"github.com/innero/axel/internal/speedtest"
)

var logger = logging.Logger("axel-search")

// runSearch discovers, probes and ranks mirrors for a URL.
func runSearch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML configuration file")
	searchURL := fs.String("search-url", "", "Mirror search endpoint (default "+mirror.DefaultSearchURL+")")
	maxCandidates := fs.Int("max-candidates", 0, "Maximum table size, origin included (default 15)")
	concurrency := fs.Int("concurrency", 0, "Maximum probes in flight (default 3)")
	timeout := fs.Duration("timeout", 0, "Per-probe timeout (default 10s)")
	pollInterval := fs.Duration("poll-interval", 0, "Scheduler tick (default 10ms)")
	launchRate := fs.Float64("launch-rate", 0, "Maximum probe starts per second, 0 for unlimited")
	maxResponse := fs.String("max-response-size", "", "Listing response size limit (default 4MB)")
	userAgent := fs.String("user-agent", "", "User-Agent header (default "+axelhttp.DefaultUserAgent+")")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (default warn)")
	showProgress := fs.Bool("progress", false, "Show probe progress on stderr")
	retryAttempts := fs.Int("retry-attempts", 0, "Retries for origin and search requests")
	reportBucket := fs.String("report-bucket", "", "Bucket URL to export the ranking report to")
	reportObject := fs.String("report-object", "", "Report object key (default mirrors/<id>.json)")
	overwrite := fs.Bool("overwrite", false, "Overwrite an existing report object")
	metricsFile := fs.String("metrics-file", "", "Write Prometheus metrics to this file")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: axel-search search [options] URL

Query the mirror search service for URL, probe every candidate and print
the mirrors ranked by latency.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "Error: incorrect amount of arguments")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(*configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	override := config.Config{
		URL:                 fs.Arg(0),
		SearchURL:           *searchURL,
		MaxCandidates:       *maxCandidates,
		MaxConcurrentProbes: *concurrency,
		ProbeTimeout:        *timeout,
		PollInterval:        *pollInterval,
		LaunchRate:          *launchRate,
		UserAgent:           *userAgent,
		LogLevel:            *logLevel,
		Progress:            *showProgress,
		MetricsFile:         *metricsFile,
		HTTP:                config.HTTPConfig{RetryAttempts: *retryAttempts},
		Report: config.ReportConfig{
			Bucket:    *reportBucket,
			Object:    *reportObject,
			Overwrite: *overwrite,
		},
	}
	if *maxResponse != "" {
		size, err := progress.ParseBytes(*maxResponse)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid max response size: %v\n", err)
			return ExitInvalidArgs
		}
		override.MaxResponseSize = size
	}
	cfg = cfg.Merge(override)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return ExitInvalidArgs
	}
	if err := logging.SetLogLevel("*", cfg.LogLevel); err != nil {
		fmt.Fprintf(stderr, "Invalid log level: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return searchMirrors(ctx, cfg, stdout, stderr)
}

func searchMirrors(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) int {
	// Open the bucket before probing so a bad URL fails fast.
	var bkt *blob.Bucket
	if cfg.Report.Bucket != "" {
		var err error
		bkt, err = blob.OpenBucket(ctx, cfg.Report.Bucket)
		if err != nil {
			fmt.Fprintf(stderr, "Error opening bucket: %v\n", err)
			return ExitStorageError
		}
		defer bkt.Close()
	}

	var observers speedtest.Observers
	collector := metrics.NewCollector()
	observers = append(observers, collector)

	var reporter *progress.Reporter
	if cfg.Progress {
		reporter = progress.NewReporter(progress.Options{
			Concurrent: cfg.MaxConcurrentProbes,
			Output:     stderr,
		})
		observers = append(observers, reporter)
	}

	httpOpts := axelhttp.Options{
		MaxIdleConnsPerHost: cfg.MaxConcurrentProbes * 2,
		Timeout:             cfg.HTTP.Timeout,
		RetryAttempts:       cfg.HTTP.RetryAttempts,
		RetryBackoff:        cfg.HTTP.RetryBackoff,
		RetryMaxBackoff:     cfg.HTTP.RetryMaxBackoff,
		UserAgent:           cfg.UserAgent,
	}

	res, err := search.Run(ctx, cfg.URL, search.Options{
		SearchURL:       cfg.SearchURL,
		MaxCandidates:   cfg.MaxCandidates,
		MaxResponseSize: cfg.MaxResponseSize,
		MaxConcurrent:   cfg.MaxConcurrentProbes,
		ProbeTimeout:    cfg.ProbeTimeout,
		PollInterval:    cfg.PollInterval,
		LaunchRate:      cfg.LaunchRate,
		HTTPOptions:     httpOpts,
		Observer:        observers,
		Discovered: func(table mirror.Table) {
			if reporter != nil {
				reporter.Start(cfg.URL, table[0].Size)
				reporter.Discovered(len(table) - 1)
			}
		},
	})
	if err != nil {
		if errors.Is(err, search.ErrOriginUnreachable) {
			fmt.Fprintf(stderr, "[axel] File not found: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "[axel] Mirror search failed: %v\n", err)
		}
		return ExitFailure
	}
	if reporter != nil {
		reporter.Finish()
	}

	fmt.Fprintf(stdout, "%d usable mirrors:\n", res.Working)
	printTable(stdout, res.Table)

	collector.SetUsable(res.Working)
	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return ExitFailure
		}
	}

	if bkt != nil {
		r := report.FromTable(res.Origin, res.Size, res.Working, res.Table, time.Now())
		key := cfg.Report.Object
		if key == "" {
			key = report.DefaultKey(r.ID)
		}
		if err := report.Write(ctx, bkt, key, r, cfg.Report.Overwrite); err != nil {
			fmt.Fprintf(stderr, "Error writing report: %v\n", err)
			return ExitStorageError
		}
		fmt.Fprintf(stderr, "[axel] Report written to %s\n", key)
		logger.Infow("report exported", "bucket", cfg.Report.Bucket, "key", key, "id", r.ID)
	}

	if res.Working == 0 {
		fmt.Fprintln(stderr, "[axel] Speed testing failed")
		return ExitFailure
	}
	return ExitSuccess
}

func printTable(w io.Writer, table mirror.Table) {
	for _, e := range table {
		fmt.Fprintf(w, "%-70.70s %5d\n", e.URL, int64(e.Speed))
	}
}
