package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/ports"
)

const syncLogName = "sync_log.json"

// FileSyncLog keeps scraping history in a JSON array, newest first,
// truncated to a fixed number of entries.
type FileSyncLog struct {
	path  string
	limit int
}

var _ ports.SyncLog = (*FileSyncLog)(nil)

// NewFileSyncLog stores the log next to the archived documents.
func NewFileSyncLog(dir string, limit int) *FileSyncLog {
	if limit <= 0 {
		limit = 50
	}
	return &FileSyncLog{path: filepath.Join(dir, syncLogName), limit: limit}
}

// Append prepends the entry and rewrites the log file.
func (l *FileSyncLog) Append(entry domain.SyncEntry) error {
	entries := l.load()
	entries = append([]domain.SyncEntry{entry}, entries...)
	if len(entries) > l.limit {
		entries = entries[:l.limit]
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sync log: %w", err)
	}

	if err := os.WriteFile(l.path, raw, 0o644); err != nil {
		return fmt.Errorf("write sync log: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (l *FileSyncLog) Recent(n int) ([]domain.SyncEntry, error) {
	entries := l.load()
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// load tolerates a missing or corrupt log by starting over empty.
func (l *FileSyncLog) load() []domain.SyncEntry {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}

	var entries []domain.SyncEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	return entries
}
