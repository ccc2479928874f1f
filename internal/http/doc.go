// Package http is the transport used by mirror discovery and speed probes.
//
// This package handles:
//   - HEAD requests for resource size, with a one-byte range GET fallback
//     for servers that omit Content-Length
//   - Plain GET requests streamed to the caller
//   - Optional retry with exponential backoff
//
// Every call takes a context; cancelling it aborts the request wherever it
// is blocked and releases the connection.
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	info, err := client.Info(ctx, url)
//	// info.Size, info.ETag, info.AcceptsRanges
//
//	body, err := client.Get(ctx, queryURL)
//	defer body.Close()
package http
