package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"segdl/config"
	"segdl/httpclient"
	"segdl/logger"
	"segdl/pool"
	"segdl/progress"
	"segdl/segment"
	"segdl/writer"
)

func TestFetchWritesBytesAtOffset(t *testing.T) {
	const body = "hello, segment world"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	client, err := httpclient.New(config.Defaults())
	if err != nil {
		t.Fatalf("httpclient.New() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.bin")
	out, err := writer.Create(path)
	if err != nil {
		t.Fatalf("writer.Create() error = %v", err)
	}

	f := New(client, out, logger.Default)
	seg := segment.New(srv.URL, 5, 5+int64(len(body))-1)

	var reported []pool.State
	report := func(s pool.State) { reported = append(reported, s) }

	if _, err := f.Fetch(context.Background(), false, seg, nil, progress.Noop.Main(), report); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if err := out.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data[5:5+len(body)]) != body {
		t.Errorf("data at offset = %q, want %q", data[5:5+len(body)], body)
	}
}

func TestFetchRetriesThenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := httpclient.New(config.Defaults())
	if err != nil {
		t.Fatalf("httpclient.New() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.bin")
	out, err := writer.Create(path)
	if err != nil {
		t.Fatalf("writer.Create() error = %v", err)
	}
	defer out.Close()

	f := New(client, out, logger.Default)
	// A 500 response surfaces as a request failure before any body is
	// ever copied, exhausting the retry budget.
	seg := segment.New(srv.URL, 0, 9)

	var transitions []pool.State
	report := func(s pool.State) { transitions = append(transitions, s) }

	if _, err := f.Fetch(context.Background(), false, seg, nil, progress.Noop.Main(), report); err == nil {
		t.Fatal("Fetch() error = nil, want request failure after retries")
	}

	if len(transitions) == 0 {
		t.Error("expected Retrying/Running transitions to be reported")
	}
}
