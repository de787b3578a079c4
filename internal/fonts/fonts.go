// Package fonts locates the TTF/OTF file used for overlay and console text.
package fonts

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"tree-decor/internal/faults"
)

// Exts are the font file extensions considered when scanning.
var Exts = []string{".ttf", ".otf"}

// Dirs returns the directories searched for fonts: <content>/fonts, then
// assets/fonts relative to the working directory.
func Dirs(contentDir string) []string {
	var out []string
	if contentDir != "" {
		out = append(out, filepath.Join(contentDir, "fonts"))
	}
	return append(out, filepath.Join("assets", "fonts"))
}

// ScanDir returns slash-separated paths of font files under dir, relative to
// dir. A missing dir yields an empty list.
func ScanDir(dir string) ([]string, error) {
	var out []string
	dir = filepath.Clean(dir)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !hasFontExt(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	return out, err
}

func hasFontExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Exts {
		if ext == e {
			return true
		}
	}
	return false
}

// normalize lowercases and drops spaces, dashes and underscores.
func normalize(s string) string {
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
}

// IsFont reports whether the file at path starts with a TTF or OTF signature.
func IsFont(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	head := make([]byte, 262)
	n, _ := f.Read(head)
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return false
	}
	return kind.Extension == "ttf" || kind.Extension == "otf"
}

// Find resolves search to a font file. An existing file path is returned as
// is; otherwise dirs are scanned for a file whose path contains search
// (ignoring case, spaces, dashes and underscores), preferring a "Regular"
// cut. Files without a font signature are skipped.
func Find(dirs []string, search string) (string, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", faults.ErrNotFound
	}
	if st, err := os.Stat(search); err == nil && !st.IsDir() && IsFont(search) {
		return search, nil
	}
	norm := normalize(strings.TrimSuffix(search, filepath.Ext(search)))
	var matches []string
	for _, dir := range dirs {
		list, err := ScanDir(dir)
		if err != nil {
			continue
		}
		for _, rel := range list {
			if !strings.Contains(normalize(rel), norm) {
				continue
			}
			full := filepath.Join(dir, filepath.FromSlash(rel))
			if IsFont(full) {
				matches = append(matches, full)
			}
		}
	}
	if len(matches) == 0 {
		return "", faults.ErrNotFound
	}
	for _, m := range matches {
		if strings.Contains(strings.ToLower(filepath.Base(m)), "regular") {
			return m, nil
		}
	}
	return matches[0], nil
}
