// Package mirror defines the candidate table shared by mirror discovery,
// speed testing and ranking.
//
// A [Table] is allocated once per search. Entry 0 always holds the original
// URL with a measured score; the remaining entries are alternate sources
// scraped from a mirror-listing service.
//
// # States
//
// An entry's [State] is either a sentinel or a measured score:
//
//	Pending (0)  not probed yet
//	Active  (-3) a probe is in flight
//	Failed  (-2) the probe finished unsuccessfully
//	Done    (-1) settled without a score
//	> 0          1 + elapsed milliseconds, lower is faster
//
// Transitions are monotonic: Pending → Active → {Failed | score} → Done.
//
// # Listing Format
//
// [ParseList] understands the plain HTML result page of the search service:
//
//	<pre class=list>
//	... <a href=http://mirror.example/pub/file.tar.gz >file.tar.gz</a>
//	</pre>
//
// Only the last `<a href=` on each line is used; the URL runs to the next
// whitespace.
package mirror
