package speedtest

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/time/rate"

	"github.com/innero/axel/internal/mirror"
)

var logger = logging.Logger("speedtest")

// DefaultPollInterval is the pause between two scans of the table.
const DefaultPollInterval = 10 * time.Millisecond

// Options configures the scheduler.
type Options struct {
	// MaxConcurrent is the most probes in flight at once.
	// Default: 3
	MaxConcurrent int

	// Timeout is the per-probe deadline, measured from probe start.
	// Default: 10s
	Timeout time.Duration

	// PollInterval is the sleep between scans.
	// Default: 10ms
	PollInterval time.Duration

	// LaunchRate limits how many probes start per second. Zero disables it.
	LaunchRate float64

	// Clock is the time source. Default: the wall clock.
	Clock clock.Clock

	// Observer is notified of probe starts and finishes.
	Observer Observer
}

// Scheduler drives concurrent probes over a candidate table.
type Scheduler struct {
	prober  Prober
	opts    Options
	limiter *rate.Limiter
}

// inflight is the handle of a running probe.
type inflight struct {
	cancel context.CancelFunc
	done   chan Result
}

// NewScheduler creates a scheduler that tests entries with prober.
func NewScheduler(prober Prober, opts Options) *Scheduler {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	s := &Scheduler{prober: prober, opts: opts}
	if opts.LaunchRate > 0 {
		burst := int(opts.LaunchRate)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.LaunchRate), burst)
	}
	return s
}

// Run probes every pending entry of table and settles it. Entries that are
// not pending on entry (the origin) are settled immediately and are not
// probed. Run returns the number of probed entries that ended with a score.
//
// Run always terminates. If ctx is cancelled, running probes are aborted and
// entries that never started are settled with ReasonCanceled.
func (s *Scheduler) Run(ctx context.Context, table mirror.Table) int {
	probes := make([]*inflight, len(table))
	left, running, correct := len(table), 0, 0

	for i := range table {
		if table[i].Speed != mirror.Pending {
			table[i].Start = time.Time{}
			left--
		}
	}

	logger.Debugw("speed test started", "candidates", left, "max_concurrent", s.opts.MaxConcurrent, "timeout", s.opts.Timeout)

	for left > 0 {
		now := s.opts.Clock.Now()

		for i := range table {
			e := &table[i]

			switch e.Speed {
			case mirror.Active:
				p := probes[i]
				var res Result
				select {
				case res = <-p.done:
					p.cancel()
				default:
					if now.Before(e.Start.Add(s.opts.Timeout)) {
						continue // not timed out yet
					}
					p.cancel()
					<-p.done
					res = Result{Speed: mirror.Failed, Reason: mirror.ReasonTimeout, Elapsed: now.Sub(e.Start)}
					logger.Debugw("probe timed out", "url", e.URL, "timeout", s.opts.Timeout)
				}
				probes[i] = nil
				running--
				left--
				if s.settle(e, res) {
					correct++
				}

			case mirror.Pending:
				if ctx.Err() != nil {
					e.Speed, e.Reason = mirror.Done, mirror.ReasonCanceled
					left--
					continue
				}
				if running >= s.opts.MaxConcurrent {
					continue // running too many, skip
				}
				if s.limiter != nil && !s.limiter.AllowN(now, 1) {
					continue
				}
				e.Speed = mirror.Active
				e.Start = now
				probes[i] = s.launch(ctx, e)
				running++
				s.opts.Observer.ProbeStarted(e.URL)

			default:
				continue // settled
			}
		}

		if left > 0 {
			s.opts.Clock.Sleep(s.opts.PollInterval)
		}
	}

	logger.Debugw("speed test finished", "working", correct)
	return correct
}

// launch starts a probe for e. The probe sees a copy of the entry and never
// touches the table.
func (s *Scheduler) launch(ctx context.Context, e *mirror.Entry) *inflight {
	pctx, cancel := context.WithCancel(ctx)
	p := &inflight{cancel: cancel, done: make(chan Result, 1)}
	job := Job{URL: e.URL, Size: e.Size, Start: e.Start}

	go func() {
		p.done <- s.prober.Probe(pctx, job)
	}()
	return p
}

// settle applies a finished probe's result to its entry and reports whether
// the entry ended with a score.
func (s *Scheduler) settle(e *mirror.Entry, res Result) bool {
	s.opts.Observer.ProbeFinished(Outcome{URL: e.URL, Result: res})

	if !res.Speed.Measured() {
		e.Speed, e.Reason = mirror.Done, res.Reason
		logger.Debugw("probe failed", "url", e.URL, "reason", res.Reason, "error", res.Err)
		return false
	}

	e.Speed, e.Reason = res.Speed, mirror.ReasonNone
	e.Start = time.Time{}
	logger.Debugw("probe finished", "url", e.URL, "score", int(e.Speed))
	return true
}
