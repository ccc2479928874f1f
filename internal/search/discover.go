package search

import (
	"context"
	"errors"
	"fmt"
	"io"

	logging "github.com/ipfs/go-log/v2"

	axelhttp "github.com/innero/axel/internal/http"
	"github.com/innero/axel/internal/mirror"
)

var logger = logging.Logger("search")

// Discovery errors.
var (
	ErrOriginUnreachable = errors.New("search: origin unreachable")
	ErrQueryFailed       = errors.New("search: mirror query failed")
	ErrAllocation        = errors.New("search: response exceeds buffer limit")
	ErrIncompleteList    = mirror.ErrIncompleteList
)

const initialBufferSize = 8 * 1024

// Transport is what discovery needs from the network.
type Transport interface {
	Info(ctx context.Context, url string) (*axelhttp.FileInfo, error)
	Get(ctx context.Context, url string) (io.ReadCloser, error)
}

// Discoverer builds candidate tables.
type Discoverer struct {
	transport Transport
	opts      Options
}

// NewDiscoverer creates a discoverer. Only the discovery fields of opts are
// used.
func NewDiscoverer(transport Transport, opts Options) *Discoverer {
	return &Discoverer{transport: transport, opts: opts.withDefaults()}
}

// Discover measures origin and returns it as entry 0 followed by the
// mirrors the listing service reports, at most MaxCandidates entries in all.
//
// ErrOriginUnreachable is returned with a nil table. Failures after the
// origin was measured (ErrQueryFailed, ErrIncompleteList, ErrAllocation)
// come with the one-entry table so the caller can fall back to the origin.
func (d *Discoverer) Discover(ctx context.Context, origin string) (mirror.Table, error) {
	clk := d.opts.Clock

	start := clk.Now()
	info, err := d.transport.Info(ctx, origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOriginUnreachable, err)
	}

	table := make(mirror.Table, 1, d.opts.MaxCandidates+1)
	table[0] = mirror.NewEntry(origin, info.Size)
	table[0].Speed = mirror.Score(clk.Since(start))
	logger.Debugw("origin measured", "url", origin, "size", info.Size, "score", int(table[0].Speed))

	query, err := mirror.QueryURL(d.opts.SearchURL, origin, d.opts.MaxCandidates, info.Size)
	if err != nil {
		return table, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	body, err := d.fetch(ctx, query)
	if err != nil {
		return table, err
	}

	urls, err := mirror.ParseList(body, table[0].URL, d.opts.MaxCandidates-1)
	if err != nil {
		return table, fmt.Errorf("search: parse listing: %w", err)
	}
	for _, u := range urls {
		table = append(table, mirror.NewEntry(u, info.Size))
	}

	logger.Infow("mirrors discovered", "url", origin, "candidates", len(table)-1)
	return table, nil
}

// fetch runs the listing query and reads the whole response.
func (d *Discoverer) fetch(ctx context.Context, query string) ([]byte, error) {
	logger.Debugw("querying mirror list", "query", query)

	body, err := d.transport.Get(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer body.Close()

	data, err := readBody(body, d.opts.MaxResponseSize)
	if err != nil && !errors.Is(err, ErrAllocation) {
		return nil, fmt.Errorf("%w: read response: %w", ErrQueryFailed, err)
	}
	return data, err
}

// readBody reads r into a buffer that starts at 8 KiB and doubles whenever
// it is nearly full. Growing past limit fails with ErrAllocation.
func readBody(r io.Reader, limit int64) ([]byte, error) {
	buf := make([]byte, initialBufferSize)
	n := 0

	for {
		m, err := r.Read(buf[n:])
		n += m
		if err == io.EOF {
			return buf[:n], nil
		}
		if err != nil {
			return nil, err
		}

		if n+10 >= len(buf) {
			size := 2 * len(buf)
			if int64(size) > limit {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrAllocation, limit)
			}
			grown := make([]byte, size)
			copy(grown, buf[:n])
			buf = grown
		}
	}
}
