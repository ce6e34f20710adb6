// Package server implements the control plane: a small HTTP API to
// kick off downloads and to replace the live config, the way the
// teacher's main.go wires handlers directly onto a ServeMux.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"segdl/config"
	"segdl/downloader"
	"segdl/history"
	"segdl/logger"
	"segdl/progress"
)

// strippedHeaders are removed (case-insensitively) from a caller's
// supplied headers before they are forwarded to the origin.
var strippedHeaders = map[string]struct{}{
	"cache-control":     {},
	"pragma":            {},
	"if-modified-since": {},
	"if-none-match":     {},
	"user-agent":        {},
}

// downloadRequest is the POST /download body.
type downloadRequest struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// Server is the control plane's HTTP handler set.
type Server struct {
	cfg  *config.Store
	hist *history.Store
	log  logger.Logger
	mgr  progress.Manager
}

// New builds a Server over cfg (the live, mutable config store) and
// hist (the job history sink). mgr may be nil for a headless run.
func New(cfg *config.Store, hist *history.Store, log logger.Logger, mgr progress.Manager) *Server {
	return &Server{cfg: cfg, hist: hist, log: log, mgr: mgr}
}

// Handler returns the http.Handler exposing /download and /config.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/download", s.handleDownload)
	mux.HandleFunc("/config", s.handleConfig)
	return mux
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	headers := stripHeaders(req.Headers)
	snapshot := s.cfg.Snapshot()

	eng, err := downloader.New(snapshot, s.hist, s.log, s.mgr)
	if err != nil {
		s.log.Errorf("Failed to build downloader for %s: %v", req.URL, err)
		fmt.Fprint(w, "success")
		return
	}

	if _, err := eng.Download(r.Context(), req.URL, headers); err != nil {
		s.log.Errorf("%v", err)
	}

	fmt.Fprint(w, "success")
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var next config.Config
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.cfg.Update(next); err != nil {
		s.log.Errorf("Failed to update config: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fmt.Fprint(w, "success")
}

func stripHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if _, strip := strippedHeaders[strings.ToLower(k)]; strip {
			continue
		}
		out[k] = v
	}
	return out
}
