package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		if ua := r.Header.Get("User-Agent"); ua != DefaultUserAgent {
			t.Errorf("expected User-Agent %q, got %q", DefaultUserAgent, ua)
		}
		w.Header().Set("Content-Length", "1024")
		w.Header().Set("ETag", `"abc123"`)
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Last-Modified", "Sat, 01 Jan 2025 00:00:00 GMT")
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	info, err := client.Head(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}

	if info.Size != 1024 {
		t.Errorf("expected size 1024, got %d", info.Size)
	}
	if info.ETag != "abc123" {
		t.Errorf("expected ETag 'abc123', got %s", info.ETag)
	}
	if !info.AcceptsRanges {
		t.Error("expected AcceptsRanges to be true")
	}
	if info.LastModified.IsZero() {
		t.Error("expected LastModified to be parsed")
	}
}

func TestHeadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	_, err := client.Head(context.Background(), server.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInfoUsesHeadLength(t *testing.T) {
	var gets atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
		w.Header().Set("Content-Length", "4096")
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	info, err := client.Info(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Size != 4096 {
		t.Errorf("expected size 4096, got %d", info.Size)
	}
	if gets.Load() != 0 {
		t.Errorf("expected no GET requests, got %d", gets.Load())
	}
}

func TestInfoFallsBackToRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			// no Content-Length on purpose
			return
		}
		if r.Header.Get("Range") != "bytes=0-0" {
			t.Errorf("expected Range bytes=0-0, got %q", r.Header.Get("Range"))
		}
		w.Header().Set("Content-Range", "bytes 0-0/777")
		w.Header().Set("Content-Length", "1")
		w.Header().Set("ETag", `"range-etag"`)
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("x"))
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	info, err := client.Info(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Size != 777 {
		t.Errorf("expected size 777, got %d", info.Size)
	}
	if info.ETag != "range-etag" {
		t.Errorf("expected ETag 'range-etag', got %s", info.ETag)
	}
}

func TestInfoUnknownSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	_, err := client.Info(context.Background(), server.URL)
	if !errors.Is(err, ErrUnknownSize) {
		t.Errorf("expected ErrUnknownSize, got %v", err)
	}
}

func TestGetRange(t *testing.T) {
	data := []byte("Hello, World! This is test data for range requests.")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := strings.TrimPrefix(r.Header.Get("Range"), "bytes=")
		parts := strings.Split(rangeHeader, "-")
		start, _ := strconv.ParseInt(parts[0], 10, 64)
		end, _ := strconv.ParseInt(parts[1], 10, 64)

		w.Header().Set("Content-Range", "bytes "+rangeHeader+"/"+strconv.Itoa(len(data)))
		w.Header().Set("Content-Length", strconv.Itoa(int(end-start+1)))
		w.Header().Set("ETag", `"test-etag"`)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[start : end+1])
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	resp, err := client.GetRange(context.Background(), server.URL, 0, 4)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(body) != "Hello" {
		t.Errorf("expected 'Hello', got '%s'", string(body))
	}
	if resp.ContentRange != "bytes 0-4/52" {
		t.Errorf("expected Content-Range 'bytes 0-4/52', got %q", resp.ContentRange)
	}
}

func TestGetRangeNotSupported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Server ignores Range header and returns full content
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	_, err := client.GetRange(context.Background(), server.URL, 0, 10)
	if !errors.Is(err, ErrRangeNotSupported) {
		t.Errorf("expected ErrRangeNotSupported, got %v", err)
	}
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "file.iso" {
			t.Errorf("expected q=file.iso, got %q", r.URL.RawQuery)
		}
		w.Write([]byte("listing"))
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	body, err := client.Get(context.Background(), server.URL+"/?q=file.iso")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if string(data) != "listing" {
		t.Errorf("expected 'listing', got %q", data)
	}
}

func TestNoRetryByDefault(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(DefaultOptions())
	_, err := client.Head(context.Background(), server.URL)
	if !errors.Is(err, ErrServerError) {
		t.Errorf("expected ErrServerError, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Length", "10")
		w.Header().Set("Accept-Ranges", "bytes")
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.RetryAttempts = 5
	opts.RetryBackoff = 10 * time.Millisecond
	opts.RetryMaxBackoff = 50 * time.Millisecond

	client := NewClient(opts)
	info, err := client.Head(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
	if info.Size != 10 {
		t.Errorf("expected size 10, got %d", info.Size)
	}
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		header string
		start  int64
		end    int64
		total  int64
	}{
		{"bytes 0-99/1000", 0, 99, 1000},
		{"bytes 100-199/1000", 100, 199, 1000},
		{"bytes 0-99/*", 0, 99, -1},
	}

	for _, tt := range tests {
		start, end, total, err := ParseContentRange(tt.header)
		if err != nil {
			t.Errorf("ParseContentRange(%q): %v", tt.header, err)
			continue
		}
		if start != tt.start || end != tt.end || total != tt.total {
			t.Errorf("ParseContentRange(%q) = (%d, %d, %d), want (%d, %d, %d)",
				tt.header, start, end, total, tt.start, tt.end, tt.total)
		}
	}

	for _, bad := range []string{"", "bytes 0-99", "bytes x-1/2", "bytes 0-1/y"} {
		if _, _, _, err := ParseContentRange(bad); err == nil {
			t.Errorf("ParseContentRange(%q): expected error", bad)
		}
	}
}

func TestCleanETag(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"abc123"`, "abc123"},
		{`W/"abc123"`, "abc123"},
		{"abc123", "abc123"},
		{`""`, ""},
	}

	for _, tt := range tests {
		result := cleanETag(tt.input)
		if result != tt.expected {
			t.Errorf("cleanETag(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(DefaultOptions())
	start := time.Now()
	_, err := client.Head(ctx, server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("request was not aborted by the context")
	}
}
