package segment

import "testing"

func TestRangeHeader(t *testing.T) {
	s := New("http://example.com/file.bin", 1000, 1999)
	if got := s.RangeHeader(); got != "bytes=1000-1999" {
		t.Errorf("RangeHeader() = %q, want bytes=1000-1999", got)
	}
}

func TestSize(t *testing.T) {
	s := New("http://example.com/file.bin", 0, 999)
	if got := s.Size(); got != 1000 {
		t.Errorf("Size() = %d, want 1000", got)
	}
}
