package speedtest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	axelhttp "github.com/innero/axel/internal/http"
	"github.com/innero/axel/internal/mirror"
)

func sizedServer(t *testing.T, size string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", size)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHTTPProberSuccess(t *testing.T) {
	server := sizedServer(t, "2048")
	prober := NewProber(axelhttp.NewClient(axelhttp.DefaultOptions()), clock.New())

	res := prober.Probe(context.Background(), Job{URL: server.URL, Size: 2048, Start: time.Now()})
	require.NoError(t, res.Err)
	assert.True(t, res.Speed.Measured())
	assert.Equal(t, mirror.ReasonNone, res.Reason)
}

func TestHTTPProberSizeMismatch(t *testing.T) {
	server := sizedServer(t, "2047")
	prober := NewProber(axelhttp.NewClient(axelhttp.DefaultOptions()), clock.New())

	res := prober.Probe(context.Background(), Job{URL: server.URL, Size: 2048, Start: time.Now()})
	assert.ErrorIs(t, res.Err, ErrSizeMismatch)
	assert.Equal(t, mirror.Failed, res.Speed)
	assert.Equal(t, mirror.ReasonSizeMismatch, res.Reason)
}

func TestHTTPProberNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	prober := NewProber(axelhttp.NewClient(axelhttp.DefaultOptions()), clock.New())

	res := prober.Probe(context.Background(), Job{URL: server.URL, Size: 1, Start: time.Now()})
	assert.Equal(t, mirror.Failed, res.Speed)
	assert.Equal(t, mirror.ReasonNotFound, res.Reason)
}

func TestHTTPProberCannotConnect(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	prober := NewProber(axelhttp.NewClient(axelhttp.DefaultOptions()), clock.New())

	res := prober.Probe(context.Background(), Job{URL: url, Size: 1, Start: time.Now()})
	assert.Equal(t, mirror.Failed, res.Speed)
	assert.Equal(t, mirror.ReasonCannotConnect, res.Reason)
}

// TestSchedulerAbortsHungMirror runs the real transport against a server
// that never answers and checks the probe is cancelled and its request torn
// down.
func TestSchedulerAbortsHungMirror(t *testing.T) {
	var aborted atomic.Int32
	release := make(chan struct{})
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			aborted.Add(1)
		case <-release:
		}
	}))
	defer hung.Close()
	defer close(release)

	good := sizedServer(t, "100")

	table := mirror.Table{
		{URL: good.URL + "/origin", Size: 100, Speed: 3},
		mirror.NewEntry(hung.URL+"/f", 100),
		mirror.NewEntry(good.URL+"/f", 100),
	}

	prober := NewProber(axelhttp.NewClient(axelhttp.DefaultOptions()), clock.New())
	s := NewScheduler(prober, Options{MaxConcurrent: 2, Timeout: 200 * time.Millisecond})

	start := time.Now()
	working := s.Run(context.Background(), table)

	assert.Equal(t, 1, working)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, mirror.Done, table[1].Speed)
	assert.Equal(t, mirror.ReasonTimeout, table[1].Reason)
	assert.True(t, table[2].Speed.Measured())

	assert.Eventually(t, func() bool { return aborted.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}
