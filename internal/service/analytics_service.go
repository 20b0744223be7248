package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
)

// AnalyticsBehaviorSource loads the entries analytics are computed from.
type AnalyticsBehaviorSource interface {
	ListAll(ctx context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, error)
}

// AnalyticsService computes behavior analytics with cache integration.
type AnalyticsService struct {
	behaviors AnalyticsBehaviorSource
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyticsService constructs an analytics service.
func NewAnalyticsService(behaviors AnalyticsBehaviorSource, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{behaviors: behaviors, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// Summary returns aggregate analytics. The boolean indicates whether data originated from cache.
func (s *AnalyticsService) Summary(ctx context.Context, accountID string, filter models.AnalyticsFilter) (*models.AnalyticsSummary, bool, error) {
	var summary models.AnalyticsSummary
	now := s.now()
	cached, err := s.cached(ctx, accountID, "summary", asOf(now), filter, &summary, func(entries []models.BehaviorEntry) interface{} {
		summary = ComputeSummary(entries, now)
		return summary
	})
	if err != nil {
		return nil, false, err
	}
	return &summary, cached, nil
}

// Weekly returns per-ISO-week incident counts and severity.
func (s *AnalyticsService) Weekly(ctx context.Context, accountID string, filter models.AnalyticsFilter) ([]models.WeeklyStat, bool, error) {
	var stats []models.WeeklyStat
	cached, err := s.cached(ctx, accountID, "weekly", "", filter, &stats, func(entries []models.BehaviorEntry) interface{} {
		stats = ComputeWeeklyStats(entries)
		return stats
	})
	if err != nil {
		return nil, false, err
	}
	return stats, cached, nil
}

// Milestones returns improvements detected as of now.
func (s *AnalyticsService) Milestones(ctx context.Context, accountID string, filter models.AnalyticsFilter) ([]models.Milestone, bool, error) {
	var milestones []models.Milestone
	now := s.now()
	cached, err := s.cached(ctx, accountID, "milestones", asOf(now), filter, &milestones, func(entries []models.BehaviorEntry) interface{} {
		milestones = DetectMilestones(entries, now)
		return milestones
	})
	if err != nil {
		return nil, false, err
	}
	return milestones, cached, nil
}

// Invalidate drops every cached analytics payload of an account.
func (s *AnalyticsService) Invalidate(ctx context.Context, accountID string) {
	if s == nil {
		return
	}
	s.cache.Invalidate(ctx, makeAnalyticsCacheKey(accountID)+":*")
}

// asOf is the calendar day clock-dependent results are keyed by, so trends,
// streaks and the last completed week roll over at midnight.
func asOf(now time.Time) string {
	return now.Format(models.DateLayout)
}

// cached reads through the cache. day is empty for kinds that do not depend
// on the clock.
func (s *AnalyticsService) cached(ctx context.Context, accountID, kind, day string, filter models.AnalyticsFilter, dest interface{}, compute func([]models.BehaviorEntry) interface{}) (bool, error) {
	cacheKey := makeAnalyticsCacheKey(accountID, kind, filter.DateFrom, filter.DateTo, filter.ProfileID, day)
	return s.cache.Remember(ctx, cacheKey, dest, func(ctx context.Context) (interface{}, error) {
		start := time.Now()
		entries, err := s.behaviors.ListAll(ctx, accountID, models.BehaviorFilter{
			DateFrom:  filter.DateFrom,
			DateTo:    filter.DateTo,
			ProfileID: filter.ProfileID,
		})
		if err != nil {
			return nil, appErrors.ErrInternal.With(err, "failed to load behaviors for analytics")
		}
		s.metrics.ObserveDBQuery("analytics_"+kind, time.Since(start))
		return compute(entries), nil
	})
}

// makeAnalyticsCacheKey keeps positional parts so empty filters cannot collide.
func makeAnalyticsCacheKey(parts ...string) string {
	var builder strings.Builder
	builder.Grow(len(parts) * 16)
	builder.WriteString("analytics")
	for _, part := range parts {
		builder.WriteByte(':')
		if part == "" {
			builder.WriteByte('-')
			continue
		}
		builder.WriteString(strings.ReplaceAll(part, ":", "|"))
	}
	return builder.String()
}
