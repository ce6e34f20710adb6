package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"segdl/config"
	"segdl/logger"
)

// parseRangeHeader parses "bytes=<start>-<end>" into start/end.
func parseRangeHeader(header string) (start, end int, ok bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return 0, 0, false
	}
	parts := strings.SplitN(strings.TrimPrefix(header, prefix), "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	s, err1 := strconv.Atoi(parts[0])
	e, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return s, e, true
}

func TestDownloadOrdinaryRangeMode(t *testing.T) {
	const body = "0123456789abcdefghij"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", "20")
			w.WriteHeader(200)
			return
		}
		start, end, ok := parseRangeHeader(r.Header.Get("Range"))
		if !ok {
			_, _ = w.Write([]byte(body))
			return
		}
		_, _ = w.Write([]byte(body[start : end+1]))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.OutputDir = dir
	cfg.ChunkSize = 8
	cfg.MaxConcurrent = 2

	eng, err := New(cfg, nil, logger.Default, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	result, err := eng.Download(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}

	data, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != body {
		t.Errorf("downloaded content = %q, want %q", data, body)
	}
	if result.ExhaustedCount != 0 {
		t.Errorf("ExhaustedCount = %d, want 0", result.ExhaustedCount)
	}
}
