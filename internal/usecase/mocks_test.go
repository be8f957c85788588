package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"HeatwaveScanner/internal/domain"
)

type fakeSource struct {
	discussions []domain.Discussion
	err         error
}

func (f *fakeSource) FetchLatest(ctx context.Context) ([]domain.Discussion, error) {
	return f.discussions, f.err
}

type fakeArchive struct {
	existing map[string]bool
	docs     []domain.Document
	saveErr  error

	mu    sync.Mutex
	saved []domain.Discussion
}

func (f *fakeArchive) Exists(forecastDate string) (bool, error) {
	return f.existing[forecastDate], nil
}

func (f *fakeArchive) Save(ctx context.Context, discussion domain.Discussion) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, discussion)
	return "data/marine_heatwave_discussion_init_" + discussion.ForecastDate + ".md", nil
}

func (f *fakeArchive) LoadAll(ctx context.Context) ([]domain.Document, error) {
	return f.docs, nil
}

func (f *fakeArchive) List() ([]domain.ArchiveEntry, error) {
	return nil, nil
}

type fakeSyncLog struct {
	entries []domain.SyncEntry
}

func (f *fakeSyncLog) Append(entry domain.SyncEntry) error {
	f.entries = append([]domain.SyncEntry{entry}, f.entries...)
	return nil
}

func (f *fakeSyncLog) Recent(n int) ([]domain.SyncEntry, error) {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[:n], nil
}

type fakeNotifier struct {
	announced []domain.Discussion
	err       error
}

func (f *fakeNotifier) Announce(ctx context.Context, discussion domain.Discussion) error {
	f.announced = append(f.announced, discussion)
	return f.err
}

type fakeChunker struct {
	perDoc int
}

func (f *fakeChunker) Split(doc domain.Document) []domain.Chunk {
	n := f.perDoc
	if n == 0 {
		n = 1
	}
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:           fmt.Sprintf("%s-%d", doc.ForecastDate, i),
			DocumentPath: doc.Path,
			Content:      fmt.Sprintf("%s chunk %d", doc.ForecastDate, i),
			StartIndex:   i * 100,
		}
	}
	return chunks
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vector != nil {
		return f.vector, nil
	}
	return []float32{float32(len(text)), 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

type fakeIndex struct {
	scored     []domain.ScoredChunk
	searchErr  error
	replaceErr error

	replaced [][]domain.Chunk
}

func (f *fakeIndex) Replace(ctx context.Context, chunks []domain.Chunk) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = append(f.replaced, chunks)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, embedding []float32, k int) ([]domain.ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.scored) {
		return f.scored[:k], nil
	}
	return f.scored, nil
}

func (f *fakeIndex) Stats(ctx context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{}, nil
}

type fakeChat struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeChat) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.response == "" {
		return "generated answer", nil
	}
	return f.response, nil
}

func discussionFixture(forecastDate string) domain.Discussion {
	return domain.Discussion{
		Source:         "noaa-psl",
		SourceURL:      "https://psl.noaa.gov/marine-heatwaves/#report",
		ForecastDate:   forecastDate,
		ForecastPeriod: "September_2026_-_April_2027",
		Markdown:       strings.Repeat("Warm anomalies persist across the basin. ", 3),
	}
}
