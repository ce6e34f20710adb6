package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"segdl/config"
	"segdl/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfgStore, err := config.Load(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	return New(cfgStore, nil, logger.Default, nil)
}

func TestHandleDownloadStripsSensitiveHeaders(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			t.Errorf("If-None-Match header leaked through: %q", r.Header.Get("If-None-Match"))
		}
		if r.Header.Get("X-Keep") != "keep-me" {
			t.Errorf("X-Keep header = %q, want keep-me", r.Header.Get("X-Keep"))
		}
		w.Header().Set("Content-Length", "4")
		_, _ = w.Write([]byte("data"))
	}))
	defer origin.Close()

	s := newTestServer(t)
	body, _ := json.Marshal(downloadRequest{
		URL: origin.URL,
		Headers: map[string]string{
			"If-None-Match": `"etag"`,
			"X-Keep":        "keep-me",
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/download", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("body = %q, want success", w.Body.String())
	}
}

func TestHandleConfigUpdatesStore(t *testing.T) {
	s := newTestServer(t)

	next := config.Defaults()
	next.MaxConcurrent = 9
	body, _ := json.Marshal(next)

	req := httptest.NewRequest(http.MethodPut, "/config", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := s.cfg.Snapshot(); got.MaxConcurrent != 9 {
		t.Errorf("MaxConcurrent = %d, want 9", got.MaxConcurrent)
	}
}

func TestHandleConfigRejectsInvalid(t *testing.T) {
	s := newTestServer(t)

	next := config.Defaults()
	next.MaxConcurrent = 0
	body, _ := json.Marshal(next)

	req := httptest.NewRequest(http.MethodPut, "/config", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
