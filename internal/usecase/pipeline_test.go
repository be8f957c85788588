package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/observability"
)

func TestProcessArchivesNewDiscussion(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	arch := &fakeArchive{existing: map[string]bool{}, docs: []domain.Document{
		{Title: domain.DocumentTitle, SourceURL: "https://psl.noaa.gov", ForecastDate: "August_2026", ExtractedAt: clock.Now(), Body: "warm water", Path: "data/a.md"},
	}}
	syncLog := &fakeSyncLog{}
	notifier := &fakeNotifier{}
	idx := &fakeIndex{}

	indexer := NewIndexer(IndexerDeps{
		Archive:  arch,
		Chunker:  &fakeChunker{perDoc: 2},
		Embedder: &fakeEmbedder{},
		Index:    idx,
		Metrics:  observability.NewMetricsForTesting(),
	})
	p := NewPipeline(PipelineDeps{
		Source:   &fakeSource{discussions: []domain.Discussion{discussionFixture("August_2026")}},
		Archive:  arch,
		SyncLog:  syncLog,
		Indexer:  indexer,
		Notifier: notifier,
		Metrics:  observability.NewMetricsForTesting(),
		Clock:    clock,
	})

	require.NoError(t, p.Process(context.Background()))

	require.Len(t, arch.saved, 1)
	assert.Equal(t, "August_2026", arch.saved[0].ForecastDate)

	require.Len(t, syncLog.entries, 1)
	assert.Equal(t, domain.SyncSuccess, syncLog.entries[0].Status)
	assert.Equal(t, "August_2026", syncLog.entries[0].ForecastDate)
	assert.Equal(t, clock.Now().UTC(), syncLog.entries[0].Timestamp)

	require.Len(t, notifier.announced, 1)

	// A new document triggers a full index rebuild.
	require.Len(t, idx.replaced, 1)
	assert.Len(t, idx.replaced[0], 2)
}

func TestProcessSkipsExistingDiscussion(t *testing.T) {
	t.Parallel()

	arch := &fakeArchive{existing: map[string]bool{"August_2026": true}}
	syncLog := &fakeSyncLog{}
	notifier := &fakeNotifier{}
	idx := &fakeIndex{}

	p := NewPipeline(PipelineDeps{
		Source:  &fakeSource{discussions: []domain.Discussion{discussionFixture("August_2026")}},
		Archive: arch,
		SyncLog: syncLog,
		Indexer: NewIndexer(IndexerDeps{
			Archive:  arch,
			Chunker:  &fakeChunker{},
			Embedder: &fakeEmbedder{},
			Index:    idx,
		}),
		Notifier: notifier,
	})

	require.NoError(t, p.Process(context.Background()))

	assert.Empty(t, arch.saved)
	assert.Empty(t, notifier.announced)
	assert.Empty(t, idx.replaced)

	require.Len(t, syncLog.entries, 1)
	assert.Equal(t, domain.SyncAlreadyExists, syncLog.entries[0].Status)
}

func TestProcessRecordsFetchError(t *testing.T) {
	t.Parallel()

	syncLog := &fakeSyncLog{}
	p := NewPipeline(PipelineDeps{
		Source:  &fakeSource{err: errors.New("status 503")},
		Archive: &fakeArchive{},
		SyncLog: syncLog,
	})

	err := p.Process(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch latest")

	require.Len(t, syncLog.entries, 1)
	assert.Equal(t, domain.SyncError, syncLog.entries[0].Status)
	assert.Equal(t, "unknown_date", syncLog.entries[0].ForecastDate)
}

func TestProcessRecordsSaveError(t *testing.T) {
	t.Parallel()

	syncLog := &fakeSyncLog{}
	p := NewPipeline(PipelineDeps{
		Source:  &fakeSource{discussions: []domain.Discussion{discussionFixture("August_2026")}},
		Archive: &fakeArchive{existing: map[string]bool{}, saveErr: errors.New("disk full")},
		SyncLog: syncLog,
	})

	err := p.Process(context.Background())
	require.Error(t, err)

	require.Len(t, syncLog.entries, 1)
	assert.Equal(t, domain.SyncError, syncLog.entries[0].Status)
	assert.Equal(t, "August_2026", syncLog.entries[0].ForecastDate)
}

func TestProcessToleratesNotifierFailure(t *testing.T) {
	t.Parallel()

	arch := &fakeArchive{existing: map[string]bool{}}
	p := NewPipeline(PipelineDeps{
		Source:   &fakeSource{discussions: []domain.Discussion{discussionFixture("August_2026")}},
		Archive:  arch,
		SyncLog:  &fakeSyncLog{},
		Notifier: &fakeNotifier{err: errors.New("telegram unavailable")},
	})

	require.NoError(t, p.Process(context.Background()))
	require.Len(t, arch.saved, 1)
}
