package speedtest

// Outcome describes how a probe ended.
type Outcome struct {
	URL    string
	Result Result
}

// Observer is notified as probes start and finish. Calls are made from the
// scheduler goroutine, one at a time.
type Observer interface {
	ProbeStarted(url string)
	ProbeFinished(o Outcome)
}

// Observers fans out notifications to every observer in the slice.
type Observers []Observer

func (obs Observers) ProbeStarted(url string) {
	for _, o := range obs {
		o.ProbeStarted(url)
	}
}

func (obs Observers) ProbeFinished(out Outcome) {
	for _, o := range obs {
		o.ProbeFinished(out)
	}
}

type nopObserver struct{}

func (nopObserver) ProbeStarted(string)    {}
func (nopObserver) ProbeFinished(Outcome) {}
