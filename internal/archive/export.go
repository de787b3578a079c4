package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"tree-decor/internal/blobstore"
	"tree-decor/internal/catalog"
	"tree-decor/internal/faults"
	"tree-decor/internal/ingest"
)

// AssetsDir is where exported blobs land inside the archive.
const AssetsDir = "assets/toys"

// Export is everything that goes into a published arrangement.
type Export struct {
	Catalog []catalog.Entry // merged catalog, in presentation order
	Decor   []byte          // persisted decoration list, copied as is
	Blobs   *blobstore.Store
	Log     *slog.Logger
}

// Report summarizes a written archive.
type Report struct {
	Entries int
	Assets  []string // archive paths of the materialized blobs
	Skipped []string // catalog ids whose blob was missing
}

type asset struct {
	data []byte
	ext  string
	ok   bool
}

// Write streams the archive to w: catalog.json with every blob-backed entry
// rewritten to a relative path under AssetsDir, decor.json, and the blobs.
// Entries whose blob is missing are left out of the catalog.
func (e Export) Write(ctx context.Context, w io.Writer) (Report, error) {
	log := e.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	assets, err := e.readBlobs(ctx)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	used := make(map[string]bool)
	out := make([]catalog.Entry, 0, len(e.Catalog))
	files := make([]string, len(e.Catalog))
	for i, entry := range e.Catalog {
		if !entry.Image.IsStored() {
			out = append(out, entry)
			continue
		}
		a := assets[i]
		if !a.ok {
			log.Warn("export: blob missing, entry skipped", "id", entry.ID)
			rep.Skipped = append(rep.Skipped, entry.ID)
			continue
		}
		name := exportName(entry, a.ext, used)
		used[name] = true
		files[i] = name

		var rewritten catalog.Entry
		if err := copier.Copy(&rewritten, &entry); err != nil {
			return Report{}, fmt.Errorf("archive: copy entry %q: %w", entry.ID, err)
		}
		rewritten.Image = catalog.External("./" + AssetsDir + "/" + name)
		rewritten.ExportFilename = name
		out = append(out, rewritten)
	}

	catalogJSON, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return Report{}, fmt.Errorf("archive: encode catalog: %w", err)
	}
	decorJSON, err := indentDecor(e.Decor)
	if err != nil {
		return Report{}, err
	}

	zw := zip.NewWriter(w)
	if err := writeFile(zw, "catalog.json", catalogJSON); err != nil {
		return Report{}, err
	}
	if err := writeFile(zw, "decor.json", decorJSON); err != nil {
		return Report{}, err
	}
	for i, name := range files {
		if name == "" {
			continue
		}
		p := AssetsDir + "/" + name
		if err := writeFile(zw, p, assets[i].data); err != nil {
			return Report{}, err
		}
		rep.Assets = append(rep.Assets, p)
	}
	if err := zw.Close(); err != nil {
		return Report{}, fmt.Errorf("archive: %w", err)
	}
	rep.Entries = len(out)
	log.Info("export written", "entries", rep.Entries, "assets", len(rep.Assets), "skipped", len(rep.Skipped))
	return rep, nil
}

// WriteFile writes the archive to path through a temp file in the same directory.
func (e Export) WriteFile(ctx context.Context, path string) (Report, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Report{}, fmt.Errorf("archive: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.zip")
	if err != nil {
		return Report{}, fmt.Errorf("archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	rep, err := e.Write(ctx, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("archive: %w", cerr)
	}
	if err != nil {
		return Report{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Report{}, fmt.Errorf("archive: %w", err)
	}
	return rep, nil
}

// readBlobs loads every stored entry's blob concurrently. A missing blob is
// not an error; any other store failure aborts the export.
func (e Export) readBlobs(ctx context.Context) ([]asset, error) {
	assets := make([]asset, len(e.Catalog))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, entry := range e.Catalog {
		if !entry.Image.IsStored() {
			continue
		}
		if e.Blobs == nil {
			continue
		}
		g.Go(func() error {
			data, err := e.Blobs.Get(ctx, entry.Image.Key())
			if errors.Is(err, faults.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("archive: read %q: %w", entry.ID, err)
			}
			assets[i] = asset{data: data, ext: ingest.Extension(data, "png"), ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// exportName picks the archive file name for entry: its recorded export
// filename when that has the right extension, otherwise
// slug(name, attribution or "toy")-id.ext. Names already taken get the id
// appended.
func exportName(entry catalog.Entry, ext string, used map[string]bool) string {
	suffix := "." + ext
	name := filepath.Base(entry.ExportFilename)
	if entry.ExportFilename == "" || !strings.HasSuffix(strings.ToLower(name), suffix) || name == suffix {
		label := entry.Name
		if strings.TrimSpace(label) == "" {
			label = entry.Attribution
		}
		name = catalog.Slug(label) + "-" + entry.ID + suffix
	}
	if used[name] {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + "-" + entry.ID + suffix
	}
	return name
}

func indentDecor(raw []byte) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []byte("[]"), nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("archive: decor list: %w: %w", faults.ErrMalformedInput, err)
	}
	return buf.Bytes(), nil
}

func writeFile(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("archive: %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("archive: %s: %w", name, err)
	}
	return nil
}
