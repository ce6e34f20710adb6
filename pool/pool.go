// Package pool runs a bounded-concurrency set of segment-fetch tasks
// and tracks each segment's state in a lock-free concurrent map, the
// way the teacher's concurrency managers track per-stream counters
// without a shared mutex on the read path.
package pool

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"segdl/segment"
)

// State is a segment's position in its fetch FSM:
// Pending -> Running -> (Succeeded | Retrying -> Running | Exhausted).
// There is no separate Failed value: a failed attempt that will be
// retried is reported directly as Retrying.
type State int

const (
	Pending State = iota
	Running
	Succeeded
	Retrying
	Exhausted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Retrying:
		return "retrying"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Reporter lets a FetchFunc publish intermediate FSM transitions
// (Retrying/Running) while it runs its own retry loop; the pool sets
// the terminal Succeeded/Exhausted state itself once FetchFunc
// returns.
type Reporter func(State)

// FetchFunc fetches one segment. A non-nil error marks the segment
// Exhausted after the fetcher's own retry budget is spent; it is not
// retried again by the pool itself.
type FetchFunc func(ctx context.Context, index int, seg segment.Segment, report Reporter) error

// Pool runs FetchFunc over a segment list with at most maxConcurrent
// tasks in flight at once, tracking per-segment state in states.
type Pool struct {
	maxConcurrent uint
	states        *xsync.MapOf[int, State]
}

// New builds a Pool bounded to maxConcurrent concurrent tasks.
func New(maxConcurrent uint) *Pool {
	return &Pool{
		maxConcurrent: maxConcurrent,
		states:        xsync.NewMapOf[int, State](),
	}
}

// State returns the current state of segment index, or Pending if
// unseen.
func (p *Pool) State(index int) State {
	state, ok := p.states.Load(index)
	if !ok {
		return Pending
	}
	return state
}

// Run launches fetch for every segment, gated by a counting semaphore
// so that at most maxConcurrent are in flight. Permits are acquired
// one task at a time as each is launched, not all up front, so launch
// itself is backpressured by running capacity. Run blocks until every
// task has finished and returns the counts of segments that ended
// Succeeded and Exhausted.
func (p *Pool) Run(ctx context.Context, segments []segment.Segment, fetch FetchFunc) (succeeded, exhausted int) {
	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, seg := range segments {
		sem <- struct{}{}
		wg.Add(1)
		p.states.Store(i, Running)

		go func(i int, seg segment.Segment) {
			defer wg.Done()
			defer func() { <-sem }()

			report := func(s State) { p.states.Store(i, s) }
			if err := fetch(ctx, i, seg, report); err != nil {
				p.states.Store(i, Exhausted)
				mu.Lock()
				exhausted++
				mu.Unlock()
				return
			}

			p.states.Store(i, Succeeded)
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(i, seg)
	}

	wg.Wait()
	return succeeded, exhausted
}
