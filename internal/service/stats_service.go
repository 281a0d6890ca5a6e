package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/kanji-api/internal/domain/srs"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/store"
)

// StatsService computes learning statistics over the whole collection.
type StatsService interface {
	Stats(ctx context.Context) (srs.Stats, error)
}

type statsServiceImpl struct {
	kanji  store.KanjiStore
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewStatsService creates a StatsService. Streak days are counted in loc;
// nil means UTC.
func NewStatsService(
	kanji store.KanjiStore,
	loc *time.Location,
	logger *slog.Logger,
	opts ...Option,
) (StatsService, error) {
	if kanji == nil {
		return nil, fmt.Errorf("%w: kanji store", ErrNilDependency)
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := buildOptions(opts)

	return &statsServiceImpl{
		kanji:  kanji,
		loc:    loc,
		now:    o.now,
		logger: logger.With(slog.String("component", "stats_service")),
	}, nil
}

// Stats implements StatsService.Stats
func (s *statsServiceImpl) Stats(ctx context.Context) (srs.Stats, error) {
	items, err := s.kanji.ListAll(ctx)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to load kanji for stats",
			slog.String("error", err.Error()))
		return srs.Stats{}, NewServiceError("stats", "failed to load kanji", err)
	}
	return srs.ComputeStats(items, s.now(), s.loc), nil
}
