// Package filenameresolver derives the output filename for a download
// job from response headers or the URL, then avoids colliding with an
// existing file in the output directory.
package filenameresolver

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const fallbackName = "downloaded_file.ts"

// Resolve picks a base filename from, in order: the Content-Disposition
// header's filename parameter, the last path segment of rawURL, or the
// fallback name. It does not check for collisions; call Dedupe with the
// result to place it safely in outputDir.
func Resolve(contentDisposition, rawURL string) string {
	if contentDisposition != "" {
		if name, ok := filenameFromDisposition(contentDisposition); ok {
			return name
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			return base
		}
	}

	return fallbackName
}

func filenameFromDisposition(header string) (string, bool) {
	idx := strings.Index(header, "filename=")
	if idx < 0 {
		return "", false
	}
	name := header[idx+len("filename="):]
	if semi := strings.IndexByte(name, ';'); semi >= 0 {
		name = name[:semi]
	}
	name = strings.Trim(strings.TrimSpace(name), `"`)
	if name == "" {
		return "", false
	}
	return name, true
}

// Dedupe returns the path, joined onto outputDir, of a filename that
// does not already exist there, appending " (n)" before the extension
// as needed. The returned value includes the outputDir prefix.
func Dedupe(outputDir, filename string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("filenameresolver: create output dir %s: %w", outputDir, err)
	}

	candidate := filename
	for count := 1; ; count++ {
		full := filepath.Join(outputDir, candidate)
		if _, err := os.Stat(full); os.IsNotExist(err) {
			return full, nil
		} else if err != nil {
			return "", fmt.Errorf("filenameresolver: stat %s: %w", full, err)
		}

		ext := filepath.Ext(filename)
		stem := strings.TrimSuffix(filename, ext)
		if ext == "" {
			candidate = fmt.Sprintf("%s (%d)", stem, count)
		} else {
			candidate = fmt.Sprintf("%s (%d)%s", stem, count, ext)
		}
	}
}

// HLSOutputName rewrites an .m3u8 playlist filename to .ts, since the
// job's actual output is the merged transport stream, not the
// playlist text.
func HLSOutputName(filename string) string {
	if strings.HasSuffix(filename, ".m3u8") {
		return strings.TrimSuffix(filename, ".m3u8") + ".ts"
	}
	return filename
}
