package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/docker/go-units"

	"github.com/innero/axel/internal/speedtest"
)

// Options configures the progress reporter.
type Options struct {
	// Candidates is the number of mirrors that will be probed.
	Candidates int

	// Concurrent is the probe concurrency ceiling (for display).
	Concurrent int

	// Output is where to write progress output.
	// Default: os.Stdout
	Output io.Writer

	// Clock measures the total search time.
	// Default: wall clock
	Clock clock.Clock
}

// Reporter outputs human-readable probe progress.
type Reporter struct {
	opts Options

	mu      sync.Mutex
	active  int
	done    int
	working int
	start   time.Time
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Reporter{opts: opts}
}

// Start prints the search header.
func (r *Reporter) Start(source string, size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.start = r.opts.Clock.Now()
	fmt.Fprintf(r.opts.Output, "[axel] Searching mirrors for: %s (%s)\n", source, FormatBytes(size))
}

// Discovered records how many candidates the search returned.
func (r *Reporter) Discovered(candidates int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.opts.Candidates = candidates
	fmt.Fprintf(r.opts.Output, "[axel] Probing %d candidates | %d concurrent\n", candidates, r.opts.Concurrent)
}

// ProbeStarted marks a probe as in flight.
func (r *Reporter) ProbeStarted(string) {
	r.mu.Lock()
	r.active++
	r.mu.Unlock()
}

// ProbeFinished prints the outcome of a probe and the running tally.
func (r *Reporter) ProbeFinished(o speedtest.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active--
	r.done++
	if o.Result.Speed.Measured() {
		r.working++
		fmt.Fprintf(r.opts.Output, "[axel] %s: %d ms\n", o.URL, int(o.Result.Speed)-1)
	} else {
		fmt.Fprintf(r.opts.Output, "[axel] %s: failed (%s)\n", o.URL, o.Result.Reason)
	}

	pending := max(r.opts.Candidates-r.done-r.active, 0)
	fmt.Fprintf(r.opts.Output, "[axel] Probes: %d done | %d active | %d pending\n", r.done, r.active, pending)
}

// Finish prints the final summary.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := r.opts.Clock.Since(r.start)
	fmt.Fprintf(r.opts.Output, "[axel] Finished: %d usable of %d in %s\n",
		r.working, r.opts.Candidates, formatDuration(elapsed))
}

// FormatBytes formats bytes as a human-readable string.
func FormatBytes(b int64) string {
	return units.BytesSize(float64(b))
}

// ParseBytes parses a human-readable byte string (e.g., "4MB").
// Units are binary: "4MB" and "4MiB" are both 4*1024*1024.
func ParseBytes(s string) (int64, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte string: %w", err)
	}
	return n, nil
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
