package filenameresolver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFromContentDisposition(t *testing.T) {
	got := Resolve(`attachment; filename="movie.mp4"`, "http://example.com/x")
	if got != "movie.mp4" {
		t.Errorf("Resolve() = %q, want movie.mp4", got)
	}
}

func TestResolveFromURL(t *testing.T) {
	got := Resolve("", "http://example.com/path/to/video.mp4?token=abc")
	if got != "video.mp4" {
		t.Errorf("Resolve() = %q, want video.mp4", got)
	}
}

func TestResolveFallback(t *testing.T) {
	got := Resolve("", "http://example.com/")
	if got != fallbackName {
		t.Errorf("Resolve() = %q, want %q", got, fallbackName)
	}
}

func TestDedupeAvoidsCollision(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Dedupe(dir, "video.mp4")
	if err != nil {
		t.Fatalf("Dedupe() error = %v", err)
	}
	want := filepath.Join(dir, "video (1).mp4")
	if got != want {
		t.Errorf("Dedupe() = %q, want %q", got, want)
	}
}

func TestHLSOutputName(t *testing.T) {
	if got := HLSOutputName("stream.m3u8"); got != "stream.ts" {
		t.Errorf("HLSOutputName() = %q, want stream.ts", got)
	}
	if got := HLSOutputName("video.mp4"); got != "video.mp4" {
		t.Errorf("HLSOutputName() = %q, want unchanged video.mp4", got)
	}
}
