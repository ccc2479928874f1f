package search

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	axelhttp "github.com/innero/axel/internal/http"
	"github.com/innero/axel/internal/mirror"
	"github.com/innero/axel/internal/speedtest"
)

// Options configures a search.
type Options struct {
	// SearchURL is the mirror-listing endpoint.
	// Default: mirror.DefaultSearchURL
	SearchURL string

	// MaxCandidates caps the table size, origin included.
	// Default: 15
	MaxCandidates int

	// MaxResponseSize caps the listing response buffer.
	// Default: 4MiB
	MaxResponseSize int64

	// MaxConcurrent is the most probes in flight at once.
	// Default: 3
	MaxConcurrent int

	// ProbeTimeout is the per-probe deadline.
	// Default: 10s
	ProbeTimeout time.Duration

	// PollInterval is the scheduler tick.
	PollInterval time.Duration

	// LaunchRate limits probe starts per second. Zero disables it.
	LaunchRate float64

	// HTTPOptions configures the origin and query requests. Probes use the
	// same options without retries or a client timeout.
	HTTPOptions axelhttp.Options

	// Clock is the time source for every measurement.
	Clock clock.Clock

	// Observer is notified of probe progress.
	Observer speedtest.Observer

	// Discovered, if set, is called with the candidate table before probing.
	Discovered func(table mirror.Table)
}

func (o Options) withDefaults() Options {
	if o.SearchURL == "" {
		o.SearchURL = mirror.DefaultSearchURL
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 15
	}
	if o.MaxResponseSize <= 0 {
		o.MaxResponseSize = 4 * 1024 * 1024
	}
	if o.HTTPOptions.MaxIdleConnsPerHost == 0 {
		o.HTTPOptions = axelhttp.DefaultOptions()
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	return o
}

// Result is a ranked candidate table.
type Result struct {
	Origin string
	Size   int64

	// Table is ranked: working mirrors fastest first, then the rest.
	Table mirror.Table

	// Working counts probed mirrors that answered with the right size.
	// The origin is not included.
	Working int
}

// Run discovers mirrors for url, probes them and ranks the result.
// When discovery fails after the origin was measured, Run returns the
// origin-only table together with the error.
func Run(ctx context.Context, url string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	table, err := NewDiscoverer(axelhttp.NewClient(opts.HTTPOptions), opts).Discover(ctx, url)
	if err != nil {
		if table == nil {
			return nil, err
		}
		// The origin was measured; hand it back so callers can fall back to it.
		return &Result{Origin: url, Size: table[0].Size, Table: table}, err
	}
	if opts.Discovered != nil {
		opts.Discovered(table)
	}

	probeOpts := opts.HTTPOptions
	probeOpts.RetryAttempts = 0
	probeOpts.Timeout = 0
	prober := speedtest.NewProber(axelhttp.NewClient(probeOpts), opts.Clock)

	scheduler := speedtest.NewScheduler(prober, speedtest.Options{
		MaxConcurrent: opts.MaxConcurrent,
		Timeout:       opts.ProbeTimeout,
		PollInterval:  opts.PollInterval,
		LaunchRate:    opts.LaunchRate,
		Clock:         opts.Clock,
		Observer:      opts.Observer,
	})
	size := table[0].Size
	working := scheduler.Run(ctx, table)

	mirror.Rank(table)

	logger.Infow("search finished", "url", url, "candidates", len(table)-1, "working", working)
	return &Result{
		Origin:  url,
		Size:    size,
		Table:   table,
		Working: working,
	}, nil
}
