package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"HeatwaveScanner/internal/config"
	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/infrastructure/archive"
	"HeatwaveScanner/internal/infrastructure/chunker"
	"HeatwaveScanner/internal/infrastructure/index"
	"HeatwaveScanner/internal/infrastructure/llm"
	"HeatwaveScanner/internal/infrastructure/parser"
	"HeatwaveScanner/internal/infrastructure/scheduler"
	"HeatwaveScanner/internal/infrastructure/telegram"
	"HeatwaveScanner/internal/infrastructure/web"
	"HeatwaveScanner/internal/logging"
	"HeatwaveScanner/internal/observability"
	"HeatwaveScanner/internal/ports"
	"HeatwaveScanner/internal/scanner"
	"HeatwaveScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	archive  *archive.FileArchive
	syncLog  *archive.FileSyncLog
	index    *index.SQLiteIndex
	metrics  *observability.Metrics
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	registry := scanner.NewRegistry()
	registry.Register(parser.NewPSLScanner(nil))

	source := parser.NewStrategySource(registry, cfg.Sources, baseLogger.With("component", "source"))

	fileArchive := archive.NewFileArchive(cfg.Archive.DataDir)
	syncLog := archive.NewFileSyncLog(cfg.Archive.DataDir, cfg.Archive.SyncLogLimit)

	chunkIndex, err := index.Open(cfg.Index.Path, cfg.Index.Collection)
	if err != nil {
		return nil, fmt.Errorf("open chunk index: %w", err)
	}

	ollama := llm.NewOllamaClient(cfg.Ollama)
	metrics := observability.NewMetrics()

	indexer := usecase.NewIndexer(usecase.IndexerDeps{
		Archive:  fileArchive,
		Chunker:  chunker.NewSplitter(cfg.Index.ChunkSize, cfg.Index.ChunkOverlap),
		Embedder: ollama,
		Index:    chunkIndex,
		Logger:   baseLogger.With("component", "indexer"),
		Metrics:  metrics,
	})

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:   source,
		Archive:  fileArchive,
		SyncLog:  syncLog,
		Indexer:  indexer,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "pipeline"),
		Metrics:  metrics,
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		archive:  fileArchive,
		syncLog:  syncLog,
		index:    chunkIndex,
		metrics:  metrics,
	}, nil
}

// Close releases the chunk index handle.
func (a *Application) Close() error {
	return a.index.Close()
}

// Run performs a single scrape and index cycle.
func (a *Application) Run(ctx context.Context) error {
	return a.pipeline.Process(ctx)
}

// Serve runs the scheduler and the health/metrics endpoint until the
// context is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	server := web.NewServer(a.cfg.HTTP.Addr, a, a.logger.With("component", "web"))
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		_ = sched.Stop(context.Background())
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler stop failed", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// CheckReadiness pings the chunk index; the service is ready when its
// storage is reachable.
func (a *Application) CheckReadiness(ctx context.Context) error {
	_, err := a.index.Stats(ctx)
	return err
}

// ListArchive returns the locally archived discussion files.
func (a *Application) ListArchive() ([]domain.ArchiveEntry, error) {
	return a.archive.List()
}

// SyncHistory returns the n most recent sync log entries.
func (a *Application) SyncHistory(n int) ([]domain.SyncEntry, error) {
	return a.syncLog.Recent(n)
}
