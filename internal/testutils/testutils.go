// Package testutils provides shared test infrastructure: an HTTP server
// that plays origin and mirrors, a fake mirror-listing service and, behind
// the integration build tag, a MinIO container.
package testutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

// TestFile is a resource served by the test HTTP server.
type TestFile struct {
	Name string // path without leading slash
	Size int64

	// Delay holds back every response.
	Delay time.Duration

	// Hang blocks the response until the client gives up.
	Hang bool

	// NoLength omits Content-Length on HEAD so clients must fall back to a
	// range request.
	NoLength bool
}

// StartTestHTTPServer starts a server answering HEAD and range GET requests
// for files. Unknown paths get 404.
func StartTestHTTPServer(t *testing.T, files []TestFile) *httptest.Server {
	t.Helper()

	fileMap := make(map[string]TestFile)
	for _, f := range files {
		fileMap["/"+f.Name] = f
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := fileMap[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}

		if f.Hang {
			<-r.Context().Done()
			return
		}
		if f.Delay > 0 {
			select {
			case <-time.After(f.Delay):
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("ETag", fmt.Sprintf(`"%s"`, r.URL.Path))

		if r.Method == http.MethodHead {
			if !f.NoLength {
				w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
			}
			return
		}

		// Parse range header: bytes=start-end
		rangeHeader := strings.TrimPrefix(r.Header.Get("Range"), "bytes=")
		parts := strings.Split(rangeHeader, "-")
		if len(parts) != 2 {
			w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
			w.Write(pattern(0, f.Size))
			return
		}
		start, _ := strconv.ParseInt(parts[0], 10, 64)
		end, _ := strconv.ParseInt(parts[1], 10, 64)
		if end >= f.Size {
			end = f.Size - 1
		}

		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, f.Size))
		w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(pattern(start, end+1))
	}))
	t.Cleanup(server.Close)
	return server
}

func pattern(from, to int64) []byte {
	data := make([]byte, 0, to-from)
	for i := from; i < to; i++ {
		data = append(data, byte(i%256))
	}
	return data
}

// ListingPage renders a mirror-listing result page for urls.
func ListingPage(urls ...string) []byte {
	var b strings.Builder
	b.WriteString("<html><head><title>search results</title></head><body>\n")
	b.WriteString("<p>Results for your query:</p>\n")
	b.WriteString("<pre class=list>  #  size  date        name\n")
	for i, u := range urls {
		fmt.Fprintf(&b, "%3d  1M  2024-01-01  <a href=\"/about\">info</a> <a href=%s >%s</a>\n", i+1, u, u)
	}
	b.WriteString("</pre>\n</body></html>\n")
	return []byte(b.String())
}

// Listing is a fake mirror-listing service.
type Listing struct {
	*httptest.Server

	queries chan string
}

// StartListingServer serves body for every request and records raw queries.
func StartListingServer(t *testing.T, body []byte) *Listing {
	t.Helper()

	l := &Listing{queries: make(chan string, 16)}
	l.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case l.queries <- r.URL.RawQuery:
		default:
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write(body)
	}))
	t.Cleanup(l.Server.Close)
	return l
}

// SearchURL is the endpoint to configure as the search URL.
func (l *Listing) SearchURL() string {
	return l.URL + "/cgi-bin/s"
}

// LastQuery returns the most recent raw query, or "" if none arrived.
func (l *Listing) LastQuery() string {
	q := ""
	for {
		select {
		case q = <-l.queries:
		default:
			return q
		}
	}
}
