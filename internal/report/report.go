package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/innero/axel/internal/mirror"
)

var (
	// ErrExists is returned by Write when the object exists and overwrite is off.
	ErrExists = errors.New("report: object already exists")

	// ErrNotFound is returned by Read when no report is stored under the key.
	ErrNotFound = errors.New("report: not found")
)

// Mirror is one ranked candidate.
type Mirror struct {
	URL     string        `json:"url"`
	Score   int64         `json:"score,omitempty"`
	Working bool          `json:"working"`
	Reason  mirror.Reason `json:"reason,omitempty"`
}

// Report is a snapshot of a finished search.
type Report struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Size      int64     `json:"size"`
	Working   int       `json:"working"`
	Mirrors   []Mirror  `json:"mirrors"`
	CreatedAt time.Time `json:"created_at"`
}

// FromTable builds a report from a ranked table.
func FromTable(source string, size int64, working int, table mirror.Table, now time.Time) *Report {
	r := &Report{
		ID:        uuid.NewString(),
		Source:    source,
		Size:      size,
		Working:   working,
		Mirrors:   make([]Mirror, 0, len(table)),
		CreatedAt: now.UTC(),
	}
	for _, e := range table {
		m := Mirror{URL: e.URL, Working: e.Working(), Reason: e.Reason}
		if m.Working {
			m.Score = int64(e.Speed)
		}
		r.Mirrors = append(r.Mirrors, m)
	}
	return r
}

// DefaultKey returns the object key used when none is configured.
func DefaultKey(id string) string {
	return "mirrors/" + id + ".json"
}

// Write stores r under key.
func Write(ctx context.Context, bucket *blob.Bucket, key string, r *Report, overwrite bool) (err error) {
	if !overwrite {
		exists, err := bucket.Exists(ctx, key)
		if err != nil {
			return fmt.Errorf("check %s: %w", key, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrExists, key)
		}
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("open %s: %w", key, err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", key, cerr))
		}
	}()

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Read loads the report stored under key.
func Read(ctx context.Context, bucket *blob.Bucket, key string) (*Report, error) {
	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}
