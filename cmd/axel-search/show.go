package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"gocloud.dev/blob"

	"github.com/innero/axel/internal/mirror"
	"github.com/innero/axel/internal/report"
)

// runShow prints a stored ranking report.
func runShow(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	fs.SetOutput(stderr)

	bucket := fs.String("bucket", "", "Bucket URL holding the report (required)")
	object := fs.String("object", "", "Report object key (required)")

	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: axel-search show [options]

Print a ranking report written by 'axel-search search -report-bucket'.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitInvalidArgs
	}

	if *bucket == "" || *object == "" {
		fmt.Fprintln(stderr, "Error: -bucket and -object are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx := context.Background()
	bkt, err := blob.OpenBucket(ctx, *bucket)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	r, err := report.Read(ctx, bkt, *object)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Fprintf(stderr, "[axel] Report %s for %s (%s)\n", r.ID, r.Source, r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(stdout, "%d usable mirrors:\n", r.Working)
	for _, m := range r.Mirrors {
		score := int64(mirror.Done)
		if m.Working {
			score = m.Score
		}
		fmt.Fprintf(stdout, "%-70.70s %5d\n", m.URL, score)
	}
	return ExitSuccess
}
