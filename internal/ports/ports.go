package ports

import (
	"context"
	"time"

	"HeatwaveScanner/internal/domain"
)

// DiscussionSource pulls forecast discussions from upstream pages.
type DiscussionSource interface {
	FetchLatest(ctx context.Context) ([]domain.Discussion, error)
}

// Archive persists rendered discussion documents on disk.
type Archive interface {
	Exists(forecastDate string) (bool, error)
	Save(ctx context.Context, discussion domain.Discussion) (string, error)
	LoadAll(ctx context.Context) ([]domain.Document, error)
	List() ([]domain.ArchiveEntry, error)
}

// SyncLog records scraping history for audit, newest first.
type SyncLog interface {
	Append(entry domain.SyncEntry) error
	Recent(n int) ([]domain.SyncEntry, error)
}

// Embedder turns text into dense vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex stores embedded chunks and answers similarity queries.
type VectorIndex interface {
	Replace(ctx context.Context, chunks []domain.Chunk) error
	Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error)
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// Chunker splits a document body into overlapping pieces.
type Chunker interface {
	Split(doc domain.Document) []domain.Chunk
}

// ChatModel generates an answer for a fully rendered prompt.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Notifier announces newly archived discussions to an outbound channel.
type Notifier interface {
	Announce(ctx context.Context, discussion domain.Discussion) error
}

// Scheduler controls when the scrape pipeline executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
