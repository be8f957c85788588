package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/ports"
)

const filePrefix = "marine_heatwave_discussion_init_"

// FileArchive stores one Markdown document per forecast date in a flat
// directory. A file that already exists is never rewritten.
type FileArchive struct {
	dir string
}

var _ ports.Archive = (*FileArchive)(nil)

// NewFileArchive wires the archive to its data directory.
func NewFileArchive(dir string) *FileArchive {
	return &FileArchive{dir: dir}
}

// Dir returns the archive data directory.
func (a *FileArchive) Dir() string {
	return a.dir
}

// FileName returns the archive filename for a forecast date.
func FileName(forecastDate string) string {
	return filePrefix + forecastDate + ".md"
}

// Exists reports whether a discussion for the forecast date is already archived.
func (a *FileArchive) Exists(forecastDate string) (bool, error) {
	_, err := os.Stat(filepath.Join(a.dir, FileName(forecastDate)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat discussion %s: %w", forecastDate, err)
}

// Save renders the discussion and writes it to the data directory,
// returning the path of the new file.
func (a *FileArchive) Save(_ context.Context, discussion domain.Discussion) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	rendered, err := RenderDocument(discussion)
	if err != nil {
		return "", err
	}

	path := filepath.Join(a.dir, FileName(discussion.ForecastDate))
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write discussion %s: %w", discussion.ForecastDate, err)
	}

	return path, nil
}

// LoadAll parses every archived discussion, sorted by filename.
func (a *FileArchive) LoadAll(_ context.Context) ([]domain.Document, error) {
	paths, err := filepath.Glob(filepath.Join(a.dir, filePrefix+"*.md"))
	if err != nil {
		return nil, fmt.Errorf("glob archive: %w", err)
	}
	sort.Strings(paths)

	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		doc, err := ParseDocument(raw, path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// List returns the archived discussion files with their sizes.
func (a *FileArchive) List() ([]domain.ArchiveEntry, error) {
	paths, err := filepath.Glob(filepath.Join(a.dir, filePrefix+"*.md"))
	if err != nil {
		return nil, fmt.Errorf("glob archive: %w", err)
	}
	sort.Strings(paths)

	entries := make([]domain.ArchiveEntry, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		entries = append(entries, domain.ArchiveEntry{Name: filepath.Base(path), Size: info.Size()})
	}

	return entries, nil
}
