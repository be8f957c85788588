package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/observability"
	"HeatwaveScanner/internal/ports"
)

// IndexerDeps wires the archive, splitter, embedder and index together.
type IndexerDeps struct {
	Archive  ports.Archive
	Chunker  ports.Chunker
	Embedder ports.Embedder
	Index    ports.VectorIndex
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Indexer rebuilds the chunk index from the archived documents.
type Indexer struct {
	archive  ports.Archive
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.VectorIndex
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewIndexer constructs the indexing use case.
func NewIndexer(deps IndexerDeps) *Indexer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		archive:  deps.Archive,
		chunker:  deps.Chunker,
		embedder: deps.Embedder,
		index:    deps.Index,
		logger:   logger,
		metrics:  deps.Metrics,
	}
}

// Rebuild loads every archived document, chunks and embeds it, and
// replaces the index contents in one transaction.
func (ix *Indexer) Rebuild(ctx context.Context) error {
	start := time.Now()

	docs, err := ix.archive.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load archive: %w", err)
	}
	ix.logger.Info("loaded documents", "count", len(docs))

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, ix.chunker.Split(doc)...)
	}
	ix.logger.Info("chunked documents", "documents", len(docs), "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := ix.index.Replace(ctx, chunks); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}

	if ix.metrics != nil {
		ix.metrics.IndexRebuilds.Inc()
		ix.metrics.IndexRebuildDuration.Observe(time.Since(start).Seconds())
		ix.metrics.ChunksInIndex.Set(float64(len(chunks)))
	}

	ix.logger.Info("index rebuilt", "chunks", len(chunks), "elapsed", time.Since(start))
	return nil
}
