// Package planner classifies a download target (ordinary byte
// resource vs. HLS playlist) and produces the ordered segment list a
// worker pool will fetch.
package planner

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"segdl/httpclient"
	"segdl/logger"
	"segdl/segment"
)

// Plan is the Planner's output: an ordered segment list plus enough
// metadata for the fetcher and progress observer to set up.
type Plan struct {
	Segments   []segment.Segment
	RangeMode  bool
	OutputName string
	TotalBytes *int64
}

// headResult is what the HEAD cache stores per URL.
type headResult struct {
	contentLength int64
	hasLength     bool
	acceptRanges  string
	contentType   string
}

// Planner classifies resources and builds Plans, memoizing the HLS
// media-segment HEAD responses in a ristretto cache keyed by URL (five
// minute TTL), so a media URL this Planner has already HEADed can be
// answered from the cache. The target's own HEAD is not cached.
type Planner struct {
	client        *httpclient.Client
	chunkSize     uint64
	maxConcurrent uint
	cache         *ristretto.Cache
	log           logger.Logger
}

// New builds a Planner. client performs HEAD/GET requests; chunkSize
// is the range-mode segment size; maxConcurrent bounds the HLS HEAD
// fan-out; log receives a warning for every HLS media segment skipped
// for a failed or length-less HEAD.
func New(client *httpclient.Client, chunkSize uint64, maxConcurrent uint, log logger.Logger) (*Planner, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("planner: new cache: %w", err)
	}
	return &Planner{client: client, chunkSize: chunkSize, maxConcurrent: maxConcurrent, cache: cache, log: log}, nil
}

// isHLS reports whether rawURL/contentType identify an HLS playlist.
func isHLS(rawURL, contentType string) bool {
	if strings.HasSuffix(rawURL, ".m3u8") {
		return true
	}
	return strings.Contains(contentType, "application/vnd.apple.mpegurl")
}

// Plan classifies target and builds its segment list. headResp is the
// already-issued HEAD response for target; headers are forwarded to
// any further HTTP calls the planner makes (the playlist GET, and the
// per-media-segment HEAD fan-out).
func (p *Planner) Plan(ctx context.Context, target string, headResp *httpclient.Response, outputName string, headers map[string]string) (*Plan, error) {
	contentType, _ := headResp.ContentType()

	if isHLS(target, contentType) {
		return p.planHLS(ctx, target, outputName, headers)
	}
	return p.planOrdinary(target, headResp, outputName)
}

func (p *Planner) planOrdinary(target string, headResp *httpclient.Response, outputName string) (*Plan, error) {
	contentLength, hasLength := headResp.ContentLength()
	acceptRanges, _ := headResp.AcceptRanges()

	if hasLength && acceptRanges == "bytes" {
		segments := rangeSegments(target, contentLength, int64(p.chunkSize))
		total := contentLength
		return &Plan{Segments: segments, RangeMode: true, OutputName: outputName, TotalBytes: &total}, nil
	}

	// Degenerate plan: the fetcher streams the full body from offset 0.
	return &Plan{
		Segments:   []segment.Segment{segment.New(target, 0, -1)},
		RangeMode:  false,
		OutputName: outputName,
	}, nil
}

func rangeSegments(url string, contentLength, chunkSize int64) []segment.Segment {
	var segments []segment.Segment
	for offset := int64(0); offset < contentLength; offset += chunkSize {
		end := offset + chunkSize - 1
		if end > contentLength-1 {
			end = contentLength - 1
		}
		segments = append(segments, segment.New(url, offset, end))
	}
	return segments
}

func (p *Planner) planHLS(ctx context.Context, target, outputName string, headers map[string]string) (*Plan, error) {
	resp, err := p.client.Get(ctx, target, headers)
	if err != nil {
		return nil, fmt.Errorf("planner: fetch playlist %s: %w", target, err)
	}
	body, err := resp.Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("planner: read playlist %s: %w", target, err)
	}

	mediaURLs, err := parsePlaylist(target, body)
	if err != nil {
		return nil, fmt.Errorf("planner: parse playlist %s: %w", target, err)
	}

	segments, totalSize := p.headFanOut(ctx, mediaURLs, headers)
	plan := &Plan{Segments: segments, RangeMode: false, OutputName: outputName}
	if len(segments) > 0 {
		plan.TotalBytes = &totalSize
	}
	return plan, nil
}

// parsePlaylist extracts media-segment URLs from an M3U8 body,
// skipping blank lines, comment/tag lines (starting with "#"), and
// any line with no "." in it (a heuristic the source itself uses to
// distinguish a segment reference from a bare tag value).
func parsePlaylist(playlistURL, body string) ([]string, error) {
	base, err := url.Parse(playlistURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var urls []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ".") {
			continue
		}
		if abs, err := url.Parse(line); err == nil && abs.IsAbs() {
			urls = append(urls, abs.String())
			continue
		}
		urls = append(urls, base.ResolveReference(&url.URL{Path: line}).String())
	}
	return urls, nil
}

// headFanOut issues a bounded-concurrency HEAD per media URL, through
// the ristretto cache, and returns segments with cumulative offsets.
// URLs whose HEAD fails or omits Content-Length are skipped with a
// warning, per the source's known limitation.
func (p *Planner) headFanOut(ctx context.Context, mediaURLs []string, headers map[string]string) ([]segment.Segment, int64) {
	type sized struct {
		url  string
		size int64
		ok   bool
	}

	results := make([]sized, len(mediaURLs))
	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup

	for i, u := range mediaURLs {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			defer func() { <-sem }()

			size, ok := p.cachedHeadLength(ctx, u, headers)
			results[i] = sized{url: u, size: size, ok: ok}
		}(i, u)
	}
	wg.Wait()

	var segments []segment.Segment
	var start int64
	for _, r := range results {
		if !r.ok {
			p.log.Warnf("Fail to get size %s", r.url)
			continue
		}
		segments = append(segments, segment.New(r.url, start, start+r.size-1))
		start += r.size
	}
	return segments, start
}

func (p *Planner) cachedHeadLength(ctx context.Context, u string, headers map[string]string) (int64, bool) {
	if v, found := p.cache.Get(u); found {
		hr := v.(headResult)
		return hr.contentLength, hr.hasLength
	}

	resp, err := p.client.Head(ctx, u, headers)
	if err != nil {
		return 0, false
	}
	defer resp.Close()

	length, hasLength := resp.ContentLength()
	acceptRanges, _ := resp.AcceptRanges()
	contentType, _ := resp.ContentType()

	hr := headResult{contentLength: length, hasLength: hasLength, acceptRanges: acceptRanges, contentType: contentType}
	p.cache.SetWithTTL(u, hr, 1, 5*time.Minute)

	return length, hasLength
}
