// Package progress defines the Observer port the downloader reports
// byte progress through, plus a Noop default and an optional terminal
// multi-bar implementation.
package progress

// Observer receives byte-count progress for one unit of work: either
// the job as a whole (the main bar) or a single segment (a child bar).
type Observer interface {
	// SetTotal sets the size, in bytes, the observed unit will reach
	// at completion.
	SetTotal(total int64)
	// Increase reports that n more bytes have been written.
	Increase(n int64)
	// Finish marks the observed unit complete.
	Finish()
}

// Manager hands out a main Observer for the whole job and a child
// Observer per segment, mirroring the progress reporter's
// main-bar/child-bar split: reporting a segment's bytes always also
// advances the job total.
type Manager interface {
	Main() Observer
	NewChild(name string) Observer
}

type noopObserver struct{}

func (noopObserver) SetTotal(int64) {}
func (noopObserver) Increase(int64) {}
func (noopObserver) Finish()        {}

type noopManager struct{}

func (noopManager) Main() Observer           { return noopObserver{} }
func (noopManager) NewChild(string) Observer { return noopObserver{} }

// Noop is a Manager whose Observers discard every update. It is the
// default for jobs started without a terminal attached.
var Noop Manager = noopManager{}
