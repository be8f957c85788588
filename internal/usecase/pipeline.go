package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/observability"
	"HeatwaveScanner/internal/ports"
)

// PipelineDeps wires all driven adapters into the scrape orchestration.
type PipelineDeps struct {
	Source   ports.DiscussionSource
	Archive  ports.Archive
	SyncLog  ports.SyncLog
	Indexer  *Indexer
	Notifier ports.Notifier
	Logger   *slog.Logger
	Metrics  *observability.Metrics
	Clock    clockwork.Clock
}

// Pipeline implements the scrape → archive → index workflow.
type Pipeline struct {
	source   ports.DiscussionSource
	archive  ports.Archive
	syncLog  ports.SyncLog
	indexer  *Indexer
	notifier ports.Notifier
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:   deps.Source,
		archive:  deps.Archive,
		syncLog:  deps.SyncLog,
		indexer:  deps.Indexer,
		notifier: deps.Notifier,
		logger:   logger,
		metrics:  deps.Metrics,
		clock:    clock,
	}
}

// Process fetches the latest discussions, archives the ones not seen
// before, and rebuilds the chunk index when anything new arrived.
func (p *Pipeline) Process(ctx context.Context) error {
	if p.source == nil {
		return nil
	}

	if p.metrics != nil {
		p.metrics.PipelineRunning.Set(1)
		defer p.metrics.PipelineRunning.Set(0)
	}

	discussions, err := p.source.FetchLatest(ctx)
	if err != nil {
		p.record(domain.SyncEntry{
			Timestamp:    p.clock.Now().UTC(),
			ForecastDate: "unknown_date",
			Status:       domain.SyncError,
		})
		p.count(domain.SyncError)
		return fmt.Errorf("fetch latest: %w", err)
	}

	archived := 0
	for _, discussion := range discussions {
		ok, err := p.processDiscussion(ctx, discussion)
		if err != nil {
			return err
		}
		if ok {
			archived++
		}
	}

	if archived == 0 {
		p.logger.Info("no new discussions", "sources", len(discussions))
		return nil
	}

	p.logger.Info("archived new discussions", "count", archived)

	if p.indexer != nil {
		if err := p.indexer.Rebuild(ctx); err != nil {
			return fmt.Errorf("rebuild index: %w", err)
		}
	}

	return nil
}

// processDiscussion archives one discussion; it returns true when a new
// document was written.
func (p *Pipeline) processDiscussion(ctx context.Context, discussion domain.Discussion) (bool, error) {
	exists, err := p.archive.Exists(discussion.ForecastDate)
	if err != nil {
		return false, fmt.Errorf("check archive for %s: %w", discussion.ForecastDate, err)
	}

	if exists {
		p.logger.Info("discussion already archived", "forecast_date", discussion.ForecastDate)
		p.record(p.entry(discussion, domain.SyncAlreadyExists))
		p.count(domain.SyncAlreadyExists)
		return false, nil
	}

	path, err := p.archive.Save(ctx, discussion)
	if err != nil {
		p.record(p.entry(discussion, domain.SyncError))
		p.count(domain.SyncError)
		return false, fmt.Errorf("save discussion %s: %w", discussion.ForecastDate, err)
	}

	p.logger.Info("saved discussion", "forecast_date", discussion.ForecastDate, "path", path)
	p.record(p.entry(discussion, domain.SyncSuccess))
	p.count(domain.SyncSuccess)
	if p.metrics != nil {
		p.metrics.DocumentsArchived.Inc()
	}

	if p.notifier != nil {
		// Notification failures should not abort the cycle.
		if err := p.notifier.Announce(ctx, discussion); err != nil {
			p.logger.Warn("notify failed", "forecast_date", discussion.ForecastDate, "error", err)
		}
	}

	return true, nil
}

func (p *Pipeline) entry(discussion domain.Discussion, status domain.SyncStatus) domain.SyncEntry {
	return domain.SyncEntry{
		Timestamp:    p.clock.Now().UTC(),
		ForecastDate: discussion.ForecastDate,
		Status:       status,
		SourceURL:    discussion.SourceURL,
	}
}

func (p *Pipeline) record(entry domain.SyncEntry) {
	if p.syncLog == nil {
		return
	}
	if err := p.syncLog.Append(entry); err != nil {
		p.logger.Warn("sync log append failed", "error", err)
	}
}

func (p *Pipeline) count(status domain.SyncStatus) {
	if p.metrics != nil {
		p.metrics.ScrapeRuns.WithLabelValues(string(status)).Inc()
	}
}
