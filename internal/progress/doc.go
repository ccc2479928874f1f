// Package progress prints human-readable probe progress for a mirror search.
//
// A Reporter is a speedtest.Observer: hand it to the scheduler and it
// writes one line per finished probe followed by a running tally.
//
// # Output Format
//
//	[axel] Searching mirrors for: https://example.com/pub/file.iso (4.00 MiB)
//	[axel] Probing 15 candidates | 3 concurrent
//	[axel] http://mirror.example.org/pub/file.iso: 142 ms
//	[axel] http://old.example.net/file.iso: failed (not_found)
//	[axel] Probes: 2 done | 3 active | 10 pending
//	[axel] Finished: 9 usable of 15 in 4.2s
package progress
