// Package download fetches remote images for the editor: decorations added
// from a URL and catalog entries whose image lives on the web.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

const defaultUserAgent = "tree-decor/1.0 (+image fetch)"

// MaxBytes caps a single download.
const MaxBytes = 32 << 20

// Client is the HTTP client used by Fetch. Tests may replace it.
var Client = &http.Client{Timeout: 60 * time.Second}

// File is a downloaded payload with the name it should be known by.
type File struct {
	Name string // base name without extension, sanitized
	Ext  string // with leading dot, e.g. ".png"
	MIME string
	Data []byte
}

// FileName returns Name+Ext.
func (f File) FileName() string { return f.Name + f.Ext }

// IsRemote reports whether ref is an http(s) URL.
func IsRemote(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch downloads rawURL into memory. The name comes from Content-Disposition
// or the URL path; the extension from the sniffed bytes, then Content-Type,
// then the URL.
func Fetch(ctx context.Context, rawURL string) (File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return File{}, fmt.Errorf("download: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	resp, err := Client.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return File{}, fmt.Errorf("download: %s: HTTP %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBytes+1))
	if err != nil {
		return File{}, fmt.Errorf("download: %w", err)
	}
	if len(data) > MaxBytes {
		return File{}, fmt.Errorf("download: %s: larger than %d bytes", rawURL, MaxBytes)
	}

	f := File{Data: data, MIME: resp.Header.Get("Content-Type")}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		f.Ext = "." + kind.Extension
		f.MIME = kind.MIME.Value
	}
	if f.Ext == "" {
		f.Ext = extensionFromContentType(f.MIME)
	}
	if f.Ext == "" {
		f.Ext = extensionFromURL(rawURL)
	}
	if f.Ext == "" {
		f.Ext = ".bin"
	}
	name := filenameFromContentDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		name = filenameFromURL(rawURL)
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	f.Name = sanitizeFilename(name)
	return f, nil
}

func filenameFromContentDisposition(cd string) string {
	cd = strings.TrimSpace(cd)
	// filename="..."; or filename*=UTF-8''...
	if i := strings.Index(cd, "filename*=UTF-8''"); i >= 0 {
		s := cd[i+len("filename*=UTF-8''"):]
		if j := strings.IndexAny(s, ";\r\n"); j >= 0 {
			s = s[:j]
		}
		if un, err := url.PathUnescape(s); err == nil {
			s = un
		}
		return strings.Trim(s, "\"")
	}
	if i := strings.Index(cd, "filename="); i >= 0 {
		s := cd[i+len("filename="):]
		if j := strings.IndexAny(s, ";\r\n"); j >= 0 {
			s = s[:j]
		}
		return strings.Trim(s, "\" ")
	}
	return ""
}

func extensionFromContentType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = ct[:idx]
	}
	switch {
	case strings.Contains(ct, "png"):
		return ".png"
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ".jpg"
	case strings.Contains(ct, "gif"):
		return ".gif"
	case strings.Contains(ct, "webp"):
		return ".webp"
	}
	return ""
}

func extensionFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	}
	return ""
}

func filenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return ""
	}
	return base
}

var safeNameRe = regexp.MustCompile(`[^\p{L}\p{N}_. -]+`)

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(safeNameRe.ReplaceAllString(name, "_"))
	if name == "" {
		return "download"
	}
	if r := []rune(name); len(r) > 96 {
		name = string(r[:96])
	}
	return name
}
