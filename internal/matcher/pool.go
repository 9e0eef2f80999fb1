package matcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Candidate is one product photo on disk.
type Candidate struct {
	Path       string
	Stem       string
	Normalized string
}

// NewCandidate derives the stem and normalized name from path.
func NewCandidate(path string) Candidate {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Candidate{
		Path:       path,
		Stem:       stem,
		Normalized: NormalizeStem(stem),
	}
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImageFile reports whether name has a supported image extension.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Scan walks root recursively and returns every image file, sorted by path.
// Paths are made absolute when root is on the OS filesystem.
func Scan(fs afero.Fs, root string) ([]Candidate, error) {
	info, err := fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open image directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("image path %s is not a directory", root)
	}

	if _, ok := fs.(*afero.OsFs); ok {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	var pool []Candidate
	err = afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if info.IsDir() || !IsImageFile(info.Name()) {
			return nil
		}
		pool = append(pool, NewCandidate(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan image directory: %w", err)
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].Path < pool[j].Path })
	slog.Info("Scanned image directory", "root", root, "images", len(pool))
	return pool, nil
}
