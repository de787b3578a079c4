// Package archive packs an arrangement into a zip for publishing and unpacks
// such a zip into a content directory.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Unzip extracts zipPath into destDir, preserving directory structure.
// Entries that would land outside destDir are skipped. Returns the extracted
// file paths.
func Unzip(zipPath, destDir string) (extracted []string, err error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	defer r.Close()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	absDir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	for _, f := range r.File {
		dest, ok := within(absDir, f.Name)
		if !ok {
			continue
		}
		if f.FileInfo().IsDir() {
			_ = os.MkdirAll(dest, 0o755)
			continue
		}
		if err := extract(f, dest); err != nil {
			return nil, fmt.Errorf("unzip: %s: %w", f.Name, err)
		}
		extracted = append(extracted, dest)
	}
	return extracted, nil
}

func within(absDir, name string) (string, bool) {
	dest := filepath.Clean(filepath.Join(absDir, filepath.FromSlash(name)))
	if dest == absDir || !strings.HasPrefix(dest, absDir+string(os.PathSeparator)) {
		return "", false
	}
	return dest, true
}

func extract(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
