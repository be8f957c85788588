package index

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/infrastructure/llm"
	"HeatwaveScanner/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
    id            TEXT PRIMARY KEY,
    collection    TEXT NOT NULL,
    document_path TEXT NOT NULL,
    content       TEXT NOT NULL,
    start_index   INTEGER NOT NULL,
    embedding     BLOB NOT NULL,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks (collection);
`

// SQLiteIndex persists embedded chunks in a local SQLite database. The
// corpus is small enough that search scans the collection and ranks by
// cosine similarity in memory.
type SQLiteIndex struct {
	db         *sql.DB
	collection string
}

var _ ports.VectorIndex = (*SQLiteIndex)(nil)

// Open creates or opens the index database and ensures the schema exists.
func Open(path, collection string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}

	return &SQLiteIndex{db: db, collection: collection}, nil
}

// Close releases the underlying database handle.
func (i *SQLiteIndex) Close() error {
	return i.db.Close()
}

// Replace atomically swaps the collection contents for the given chunks.
func (i *SQLiteIndex) Replace(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	delQuery, delArgs, err := sq.Delete("chunks").
		Where(sq.Eq{"collection": i.collection}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", chunk.ID)
		}

		insQuery, insArgs, err := sq.Insert("chunks").
			Columns("id", "collection", "document_path", "content", "start_index", "embedding").
			Values(chunk.ID, i.collection, chunk.DocumentPath, chunk.Content, chunk.StartIndex, encodeVector(chunk.Embedding)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insQuery, insArgs...); err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Search returns the k chunks most similar to the query embedding,
// scored by cosine similarity, best first.
func (i *SQLiteIndex) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = 3
	}

	query, args, err := sq.Select("id", "document_path", "content", "start_index", "embedding").
		From("chunks").
		Where(sq.Eq{"collection": i.collection}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search: %w", err)
	}

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredChunk
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentPath, &chunk.Content, &chunk.StartIndex, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}

		chunk.Embedding, err = decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
		}

		score, err := llm.CosineSimilarity(embedding, chunk.Embedding)
		if err != nil {
			return nil, fmt.Errorf("score chunk %s: %w", chunk.ID, err)
		}

		scored = append(scored, domain.ScoredChunk{Chunk: chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Stats reports the collection size for diagnostics.
func (i *SQLiteIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	query, args, err := sq.Select("COUNT(*)", "COUNT(DISTINCT document_path)").
		From("chunks").
		Where(sq.Eq{"collection": i.collection}).
		ToSql()
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("build stats: %w", err)
	}

	var stats domain.IndexStats
	if err := i.db.QueryRowContext(ctx, query, args...).Scan(&stats.Chunks, &stats.Documents); err != nil {
		return domain.IndexStats{}, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}

// encodeVector packs a float32 slice as a little-endian blob.
func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d not a multiple of 4", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}
