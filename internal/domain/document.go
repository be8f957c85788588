package domain

import (
	"errors"
	"fmt"
	"time"
)

// DocumentTitle is the fixed title carried by every archived discussion.
const DocumentTitle = "Marine Heatwave Forecast Discussion"

// Discussion is the raw result of scraping one forecast discussion page.
type Discussion struct {
	Source         string
	SourceURL      string
	ForecastDate   string
	ForecastPeriod string
	Markdown       string
	ExtractedAt    time.Time
}

// FrontMatter mirrors the YAML header of an archived document.
type FrontMatter struct {
	Title     string `yaml:"title"`
	Source    string `yaml:"source"`
	Extracted string `yaml:"extracted"`
}

// Document is an archived discussion: front matter plus prose body.
type Document struct {
	Title        string
	SourceURL    string
	ForecastDate string
	ExtractedAt  time.Time
	Body         string
	Path         string
}

// Validate checks the content-level invariants of an archived document.
func (d Document) Validate() error {
	if d.Title == "" {
		return errors.New("document has no title")
	}
	if d.ExtractedAt.IsZero() {
		return errors.New("document has no extraction timestamp")
	}
	if d.Body == "" {
		return fmt.Errorf("document %s has an empty body", d.Path)
	}
	return nil
}

// Chunk is a slice of a document prepared for embedding.
type Chunk struct {
	ID           string
	DocumentPath string
	Content      string
	StartIndex   int
	Embedding    []float32
}

// ScoredChunk pairs a retrieved chunk with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk
	Score float64
}

// SyncStatus enumerates scrape outcomes recorded in the sync log.
type SyncStatus string

const (
	SyncSuccess       SyncStatus = "success"
	SyncAlreadyExists SyncStatus = "already_exists"
	SyncError         SyncStatus = "error"
)

// SyncEntry is one line of scraping history, newest first on disk.
type SyncEntry struct {
	Timestamp    time.Time  `json:"timestamp"`
	ForecastDate string     `json:"forecast_date"`
	Status       SyncStatus `json:"status"`
	SourceURL    string     `json:"source_url"`
}

// ArchiveEntry describes one stored discussion file.
type ArchiveEntry struct {
	Name string
	Size int64
}

// IndexStats summarizes the chunk index contents.
type IndexStats struct {
	Chunks    int
	Documents int
}
