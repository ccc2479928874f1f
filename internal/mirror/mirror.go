package mirror

import (
	"strconv"
	"time"
)

// MaxURLLength is the longest URL an entry stores. Longer URLs are truncated.
const MaxURLLength = 1024

// State is either a sentinel or, when positive, a measured score.
type State int

const (
	// Active means a probe for the entry is in flight.
	Active State = -3
	// Failed means the probe finished without confirming the mirror.
	Failed State = -2
	// Done means the entry is settled without a score.
	Done State = -1
	// Pending means the entry has not been probed yet.
	Pending State = 0
)

// Measured reports whether s holds a score rather than a sentinel.
func (s State) Measured() bool {
	return s > 0
}

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Failed:
		return "failed"
	case Done:
		return "done"
	case Pending:
		return "pending"
	}
	if s > 0 {
		return strconv.Itoa(int(s))
	}
	return "invalid(" + strconv.Itoa(int(s)) + ")"
}

// Score converts an elapsed probe duration to a measured state:
// 1 + elapsed milliseconds, rounded. The result is never below 1.
func Score(elapsed time.Duration) State {
	if elapsed < 0 {
		elapsed = 0
	}
	return State(1 + elapsed.Round(time.Millisecond).Milliseconds())
}

// Reason explains why an entry did not end with a score.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonCannotConnect Reason = "cannot_connect"
	ReasonNotFound      Reason = "not_found"
	ReasonSizeMismatch  Reason = "size_mismatch"
	ReasonTimeout       Reason = "timeout"
	ReasonCanceled      Reason = "canceled"
)

// Entry is one row of the candidate table.
type Entry struct {
	URL  string
	Size int64 // expected resource size; a mirror with another size is rejected

	Speed  State
	Start  time.Time // probe start; zero when not started or settled
	Reason Reason
}

// Working reports whether the entry holds a measured score.
func (e *Entry) Working() bool {
	return e.Speed.Measured()
}

// Table is the candidate table. Index 0 is the original URL.
type Table []Entry

// NewEntry returns a pending entry for url, truncating overly long URLs.
func NewEntry(url string, size int64) Entry {
	return Entry{URL: truncate(url), Size: size, Speed: Pending}
}

// Working counts entries holding a measured score.
func (t Table) Working() int {
	n := 0
	for i := range t {
		if t[i].Working() {
			n++
		}
	}
	return n
}

func truncate(s string) string {
	if len(s) > MaxURLLength {
		return s[:MaxURLLength]
	}
	return s
}
