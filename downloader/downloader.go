// Package downloader orchestrates one download job end to end: head
// the target, plan its segments, open the output file, run the
// worker pool over the fetcher, and record the outcome.
package downloader

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"segdl/config"
	"segdl/fetcher"
	"segdl/filenameresolver"
	"segdl/history"
	"segdl/httpclient"
	"segdl/logger"
	"segdl/planner"
	"segdl/pool"
	"segdl/progress"
	"segdl/segment"
	"segdl/writer"
)

// JobState is a job's position in its lifecycle:
// Planning -> Downloading -> Finalizing -> (Done | Aborted).
type JobState int

const (
	Planning JobState = iota
	Downloading
	Finalizing
	Done
	Aborted
)

// Result summarizes a completed job.
type Result struct {
	JobID          string
	OutputPath     string
	BytesWritten   int64
	SegmentCount   int
	ExhaustedCount int
	State          JobState
}

// Engine wires a config snapshot's dependent services together and
// runs jobs against it. One Engine instance is built per job so that
// a concurrent config update never affects an in-flight download.
type Engine struct {
	cfg     config.Config
	client  *httpclient.Client
	planner *planner.Planner
	hist    *history.Store
	log     logger.Logger
	manager progress.Manager
}

// New builds an Engine from a config snapshot. hist and manager may
// be nil; a nil manager behaves like progress.Noop.
func New(cfg config.Config, hist *history.Store, log logger.Logger, manager progress.Manager) (*Engine, error) {
	client, err := httpclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("downloader: build http client: %w", err)
	}

	p, err := planner.New(client, cfg.ChunkSize, cfg.MaxConcurrent, log)
	if err != nil {
		return nil, fmt.Errorf("downloader: build planner: %w", err)
	}

	if manager == nil {
		manager = progress.Noop
	}

	return &Engine{cfg: cfg, client: client, planner: p, hist: hist, log: log, manager: manager}, nil
}

// Download runs one job for targetURL with caller-supplied headers.
// It returns an error only for PlanError/FileError conditions (head,
// plan, or output-file failures); individual exhausted segments are
// logged and leave a gap in the output but do not fail the job.
func (e *Engine) Download(ctx context.Context, targetURL string, headers map[string]string) (*Result, error) {
	jobID := uuid.NewString()
	log := e.log.Named(jobID)
	started := time.Now()

	log.Logf("Planning job for %s", targetURL)

	head, err := e.client.Head(ctx, targetURL, headers)
	if err != nil {
		return nil, e.abort(ctx, jobID, targetURL, "", started, fmt.Errorf("downloader: head %s: %w", targetURL, err))
	}
	defer head.Close()

	contentDisposition, _ := head.ContentDisposition()
	baseName := filenameresolver.Resolve(contentDisposition, targetURL)

	plan, err := e.planner.Plan(ctx, targetURL, head, baseName, headers)
	if err != nil {
		return nil, e.abort(ctx, jobID, targetURL, baseName, started, fmt.Errorf("downloader: plan %s: %w", targetURL, err))
	}
	outputName := filenameresolver.HLSOutputName(plan.OutputName)

	outputPath, err := filenameresolver.Dedupe(e.cfg.OutputDir, outputName)
	if err != nil {
		return nil, e.abort(ctx, jobID, targetURL, outputName, started, fmt.Errorf("downloader: resolve output path: %w", err))
	}

	out, err := writer.Create(outputPath)
	if err != nil {
		return nil, e.abort(ctx, jobID, targetURL, outputName, started, fmt.Errorf("downloader: create output file: %w", err))
	}
	defer out.Close()

	mainObserver := e.manager.Main()
	if plan.TotalBytes != nil {
		mainObserver.SetTotal(*plan.TotalBytes)
	}

	log.Logf("Downloading %d segment(s) for %s", len(plan.Segments), targetURL)

	f := fetcher.New(e.client, out, log)
	workerPool := pool.New(e.cfg.MaxConcurrent)

	var bytesWritten int64
	succeeded, exhausted := workerPool.Run(ctx, plan.Segments, func(ctx context.Context, index int, s segment.Segment, report pool.Reporter) error {
		child := e.manager.NewChild(fmt.Sprintf("%d/%d", index+1, len(plan.Segments)))
		child.SetTotal(s.Size())

		written, fetchErr := f.Fetch(ctx, plan.RangeMode, s, headers, child, report)
		atomic.AddInt64(&bytesWritten, written)
		child.Finish()
		return fetchErr
	})

	if err := out.Sync(); err != nil {
		return nil, e.abort(ctx, jobID, targetURL, outputName, started, fmt.Errorf("downloader: sync output file: %w", err))
	}
	mainObserver.Finish()

	log.Logf("Finished %s: %d/%d segments succeeded, %d exhausted", targetURL, succeeded, len(plan.Segments), exhausted)

	result := &Result{
		JobID:          jobID,
		OutputPath:     outputPath,
		BytesWritten:   atomic.LoadInt64(&bytesWritten),
		SegmentCount:   len(plan.Segments),
		ExhaustedCount: exhausted,
		State:          Done,
	}

	e.recordHistory(ctx, jobID, targetURL, outputName, result.BytesWritten, result.SegmentCount, exhausted, started, history.Done)
	return result, nil
}

// abort logs and records an aborted job, then returns the triggering
// error for the caller to propagate.
func (e *Engine) abort(ctx context.Context, jobID, targetURL, outputName string, started time.Time, err error) error {
	e.log.Named(jobID).Errorf("Job aborted: %v", err)
	e.recordHistory(ctx, jobID, targetURL, outputName, 0, 0, 0, started, history.Aborted)
	return err
}

func (e *Engine) recordHistory(ctx context.Context, jobID, targetURL, outputName string, bytesWritten int64, segmentCount, exhaustedCount int, started time.Time, outcome history.Outcome) {
	if e.hist == nil {
		return
	}
	rec := history.Record{
		ID:             jobID,
		URL:            targetURL,
		OutputName:     outputName,
		BytesWritten:   bytesWritten,
		SegmentCount:   segmentCount,
		ExhaustedCount: exhaustedCount,
		StartedAt:      started,
		FinishedAt:     time.Now(),
		Outcome:        outcome,
	}
	if err := e.hist.Record(ctx, rec); err != nil {
		e.log.Named(jobID).Warnf("Failed to record job history: %v", err)
	}
}
