// Package fetcher implements the per-segment GET-with-retry loop:
// stream a segment's bytes into the Positional Writer, retrying on
// transport failure or a short body after a fixed two-second delay.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/valyala/bytebufferpool"

	"segdl/httpclient"
	"segdl/logger"
	"segdl/pool"
	"segdl/progress"
	"segdl/segment"
	"segdl/writer"
)

const (
	maxAttempts  = 3
	retryDelay   = 2 * time.Second
	copyChunkLen = 32 * 1024
)

// Fetcher fetches one segment at a time, writing its bytes into out
// and reporting progress through observer.
type Fetcher struct {
	client *httpclient.Client
	out    *writer.File
	log    logger.Logger
}

// New builds a Fetcher writing into out via client.
func New(client *httpclient.Client, out *writer.File, log logger.Logger) *Fetcher {
	return &Fetcher{client: client, out: out, log: log}
}

// Fetch downloads seg, retrying up to maxAttempts times with a fixed
// 2-second delay between attempts. report publishes Retrying/Running
// transitions to the owning pool between attempts; observer receives
// byte counters for every chunk actually written.
func (f *Fetcher) Fetch(ctx context.Context, rangeMode bool, seg segment.Segment, headers map[string]string, observer progress.Observer, report pool.Reporter) (int64, error) {
	var lastErr error
	var lastWritten int64

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		written, err := f.attempt(ctx, rangeMode, seg, headers, observer)
		if err == nil {
			return written, nil
		}
		lastErr = err
		lastWritten = written

		if attempt == maxAttempts {
			break
		}

		f.log.Warnf("Failed to download segment: %s, Chunk %d-%d retrying %d/%d...", err, seg.Start, seg.End, attempt, maxAttempts)
		report(pool.Retrying)

		select {
		case <-ctx.Done():
			return lastWritten, ctx.Err()
		case <-time.After(retryDelay):
		}
		report(pool.Running)
	}

	f.log.Errorf("Failed to download chunk %d-%d after %d attempts", seg.Start, seg.End, maxAttempts)
	return lastWritten, fmt.Errorf("fetcher: segment %s exhausted after %d attempts: %w", seg, maxAttempts, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, rangeMode bool, seg segment.Segment, headers map[string]string, observer progress.Observer) (int64, error) {
	reqHeaders := headers
	if rangeMode {
		reqHeaders = mergeHeader(headers, "Range", seg.RangeHeader())
	}

	resp, err := f.client.Get(ctx, seg.URL, reqHeaders)
	if err != nil {
		return 0, err
	}
	defer resp.Close()

	offset := seg.Start
	if offset < 0 {
		offset = 0
	}

	written, err := f.copyToWriter(resp.Body(), offset, observer)
	if err != nil {
		return written, err
	}

	if seg.End >= seg.Start && seg.Start >= 0 {
		want := seg.Size()
		if written != want {
			return written, fmt.Errorf("truncated segment: wrote %d bytes, want %d", written, want)
		}
	}

	return written, nil
}

func (f *Fetcher) copyToWriter(body io.Reader, startOffset int64, observer progress.Observer) (int64, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if cap(buf.B) < copyChunkLen {
		buf.B = append(buf.B[:0], make([]byte, copyChunkLen)...)
	}
	chunk := buf.B[:copyChunkLen]

	var written int64
	offset := startOffset

	for {
		n, readErr := body.Read(chunk)
		if n > 0 {
			if err := f.out.WriteAt(chunk[:n], offset); err != nil {
				return written, err
			}
			offset += int64(n)
			written += int64(n)
			observer.Increase(int64(n))
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

func mergeHeader(headers map[string]string, key, value string) map[string]string {
	merged := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		merged[k] = v
	}
	merged[key] = value
	return merged
}
