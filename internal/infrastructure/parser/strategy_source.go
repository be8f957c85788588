package parser

import (
	"context"
	"fmt"
	"log/slog"

	"HeatwaveScanner/internal/config"
	"HeatwaveScanner/internal/domain"
	"HeatwaveScanner/internal/ports"
	"HeatwaveScanner/internal/scanner"
)

// StrategySource implements DiscussionSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.DiscussionSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined sources.
func NewStrategySource(reg *scanner.Registry, sources []config.SourceConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchLatest iterates over configured sources and executes their scanners.
func (s *StrategySource) FetchLatest(ctx context.Context) ([]domain.Discussion, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch latest", "sources", len(s.sources))

	var discussions []domain.Discussion
	for _, src := range s.sources {
		s.debug("process source", "source", src.Name, "scanner", src.Scanner)
		strategy, err := s.registry.Resolve(src.Scanner)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Name, err)
		}

		req := scanner.Request{
			SourceName: src.Name,
			URL:        src.URL,
			Options:    src.Options,
		}

		discussion, err := strategy.Scan(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("scan source %s: %w", src.Name, err)
		}

		if discussion.Source == "" {
			discussion.Source = src.Name
		}
		s.debug("source produced discussion", "source", src.Name, "forecast_date", discussion.ForecastDate)
		discussions = append(discussions, discussion)
	}

	s.debug("strategy source done", "total_discussions", len(discussions))
	return discussions, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
