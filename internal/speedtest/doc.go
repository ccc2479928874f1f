// Package speedtest measures how quickly each candidate mirror answers and
// settles every entry of a [mirror.Table].
//
// A [Scheduler] runs a fixed-tick polling loop over the table. On each tick
// it collects finished probes, cancels probes past their deadline and starts
// pending ones while fewer than MaxConcurrent are in flight.
//
// Probes never write to the table. Each runs in its own goroutine with its
// own context and hands a [Result] back over a per-entry channel; the
// scheduler is the only writer of entry state. A probe that outlives its
// deadline has its context cancelled, which aborts the transport wherever it
// is blocked, and the scheduler waits for the probe to return before
// settling the entry.
//
// # Usage
//
//	prober := speedtest.NewProber(client, clock.New())
//	s := speedtest.NewScheduler(prober, speedtest.Options{
//	    MaxConcurrent: 3,
//	    Timeout:       10 * time.Second,
//	})
//	working := s.Run(ctx, table)
package speedtest
