// Package search finds mirrors for a resource and ranks them by how quickly
// they answer.
//
// [Run] is the main entry point. It measures the original URL, asks the
// mirror-listing service for alternates of the same name and size, probes
// every candidate with a [speedtest.Scheduler] and ranks the table:
//
//	res, err := search.Run(ctx, url, search.Options{
//	    MaxCandidates: 15,
//	    MaxConcurrent: 3,
//	    ProbeTimeout:  10 * time.Second,
//	})
//	for _, e := range res.Table {
//	    fmt.Println(e.URL, e.Speed)
//	}
//
// [Discoverer] exposes the discovery step on its own.
package search
