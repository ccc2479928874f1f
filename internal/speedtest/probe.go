package speedtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	axelhttp "github.com/innero/axel/internal/http"
	"github.com/innero/axel/internal/mirror"
)

// ErrSizeMismatch is returned when a mirror serves a resource of another size.
var ErrSizeMismatch = errors.New("speedtest: size mismatch")

// Transport fetches resource metadata. Implementations must release any
// connection before returning, including when ctx is cancelled.
type Transport interface {
	Info(ctx context.Context, url string) (*axelhttp.FileInfo, error)
}

// Job is the part of an entry handed to a probe.
type Job struct {
	URL   string
	Size  int64
	Start time.Time
}

// Result is what a probe hands back to the scheduler.
type Result struct {
	Speed   mirror.State // Failed or a measured score
	Reason  mirror.Reason
	Elapsed time.Duration
	Err     error
}

// Prober tests one candidate.
type Prober interface {
	Probe(ctx context.Context, job Job) Result
}

// HTTPProber probes a mirror by fetching its metadata and comparing sizes.
type HTTPProber struct {
	transport Transport
	clock     clock.Clock
}

// NewProber creates a prober. clk must be the scheduler's clock since the
// score is measured from the job's start time.
func NewProber(transport Transport, clk clock.Clock) *HTTPProber {
	if clk == nil {
		clk = clock.New()
	}
	return &HTTPProber{transport: transport, clock: clk}
}

// Probe connects to the mirror and fetches its metadata. The score is the
// time from job.Start until the metadata matched.
func (p *HTTPProber) Probe(ctx context.Context, job Job) Result {
	info, err := p.transport.Info(ctx, job.URL)
	elapsed := p.clock.Since(job.Start)
	if err == nil && info.Size != job.Size {
		err = fmt.Errorf("%w: expected %d, got %d", ErrSizeMismatch, job.Size, info.Size)
	}
	if err != nil {
		return Result{Speed: mirror.Failed, Reason: classify(ctx, err), Elapsed: elapsed, Err: err}
	}

	return Result{Speed: mirror.Score(elapsed), Elapsed: elapsed}
}

// classify maps a probe error to a failure reason.
func classify(ctx context.Context, err error) mirror.Reason {
	switch {
	case errors.Is(err, ErrSizeMismatch), errors.Is(err, axelhttp.ErrUnknownSize):
		return mirror.ReasonSizeMismatch
	case errors.Is(err, axelhttp.ErrNotFound),
		errors.Is(err, axelhttp.ErrForbidden),
		errors.Is(err, axelhttp.ErrUnauthorized):
		return mirror.ReasonNotFound
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return mirror.ReasonTimeout
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return mirror.ReasonCanceled
	default:
		return mirror.ReasonCannotConnect
	}
}
