package mirror

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"path"
)

// DefaultSearchURL is the listing service queried for mirrors.
const DefaultSearchURL = "http://www.filesearching.com/cgi-bin/s"

// ErrIncompleteList is returned when the result list is never closed,
// which happens when the response was truncated.
var ErrIncompleteList = errors.New("mirror: incomplete list")

var (
	listStart = []byte("<pre class=list")
	listEnd   = []byte("</pre>")
	anchor    = []byte("<a href=")
)

// QueryURL builds the listing query for a resource. The parameter order is
// fixed; the service is sensitive to it.
func QueryURL(searchURL, resourceURL string, maxResults int, size int64) (string, error) {
	u, err := url.Parse(resourceURL)
	if err != nil {
		return "", fmt.Errorf("mirror: parse resource url: %w", err)
	}
	file := path.Base(u.EscapedPath())
	if file == "/" || file == "." {
		return "", fmt.Errorf("mirror: no file name in %q", resourceURL)
	}

	return fmt.Sprintf("%s?q=%s&w=a&l=en&t=f&e=on&m=%d&o=n&s1=%d&s2=%d&x=15&y=15",
		searchURL, file, maxResults, size, size), nil
}

// ParseList extracts candidate URLs from a listing page. URLs equal to
// origin are skipped without using a slot. At most limit URLs are returned.
//
// A page without a result list yields no URLs. A list without its closing
// marker yields ErrIncompleteList.
func ParseList(body []byte, origin string, limit int) ([]string, error) {
	start := bytes.Index(body, listStart)
	if start < 0 {
		return nil, nil
	}
	rest := body[start:]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 {
		return nil, ErrIncompleteList
	}
	rest = rest[nl+1:]
	if !bytes.Contains(rest, listEnd) {
		return nil, ErrIncompleteList
	}

	var urls []string
	for len(rest) > 0 && len(urls) < limit && !bytes.HasPrefix(rest, listEnd) {
		line := rest
		if nl := bytes.IndexByte(rest, '\n'); nl >= 0 {
			line, rest = rest[:nl], rest[nl+1:]
		} else {
			rest = nil
		}

		u := lineURL(line)
		if u == "" || u == origin {
			continue
		}
		urls = append(urls, u)
	}

	return urls, nil
}

// lineURL returns the URL following the last anchor on line.
func lineURL(line []byte) string {
	i := bytes.LastIndex(line, anchor)
	if i < 0 {
		return ""
	}
	u := line[i+len(anchor):]
	if end := bytes.IndexAny(u, " \t\r"); end >= 0 {
		u = u[:end]
	}
	return string(u)
}
