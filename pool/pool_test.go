package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"segdl/segment"
)

func TestRunTracksSucceededAndExhausted(t *testing.T) {
	p := New(2)
	segments := []segment.Segment{
		segment.New("http://example.com", 0, 9),
		segment.New("http://example.com", 10, 19),
		segment.New("http://example.com", 20, 29),
	}

	succeeded, exhausted := p.Run(context.Background(), segments, func(ctx context.Context, index int, seg segment.Segment, report Reporter) error {
		if index == 1 {
			return errors.New("boom")
		}
		return nil
	})

	if succeeded != 2 {
		t.Errorf("succeeded = %d, want 2", succeeded)
	}
	if exhausted != 1 {
		t.Errorf("exhausted = %d, want 1", exhausted)
	}
	if p.State(0) != Succeeded {
		t.Errorf("State(0) = %v, want Succeeded", p.State(0))
	}
	if p.State(1) != Exhausted {
		t.Errorf("State(1) = %v, want Exhausted", p.State(1))
	}
}

func TestRunRespectsConcurrencyLimit(t *testing.T) {
	p := New(2)
	segments := make([]segment.Segment, 6)
	for i := range segments {
		segments[i] = segment.New("http://example.com", int64(i*10), int64(i*10+9))
	}

	var current, max int32
	p.Run(context.Background(), segments, func(ctx context.Context, index int, seg segment.Segment, report Reporter) error {
		n := atomic.AddInt32(&current, 1)
		for {
			m := atomic.LoadInt32(&max)
			if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
				break
			}
		}
		atomic.AddInt32(&current, -1)
		return nil
	})

	if max > 2 {
		t.Errorf("observed max concurrency = %d, want <= 2", max)
	}
}
