package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	rec := Record{
		ID:           "11111111-1111-1111-1111-111111111111",
		URL:          "http://example.com/video.mp4",
		OutputName:   "video.mp4",
		BytesWritten: 1024,
		SegmentCount: 4,
		StartedAt:    time.Now().Add(-time.Minute),
		FinishedAt:   time.Now(),
		Outcome:      Done,
	}
	if err := s.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	defer reopened.Close()

	var count int
	if err := reopened.db.QueryRow("SELECT COUNT(*) FROM job_records WHERE id = ?", rec.ID).Scan(&count); err != nil {
		t.Fatalf("query count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
