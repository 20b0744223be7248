package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
)

type countingBehaviorSource struct {
	behaviorRepoStub
	calls int
}

func (c *countingBehaviorSource) ListAll(ctx context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, error) {
	c.calls++
	return c.behaviorRepoStub.ListAll(ctx, accountID, filter)
}

func newAnalyticsForTest(t *testing.T, cacheEnabled bool) (*AnalyticsService, *countingBehaviorSource, *memoryCacheRepo) {
	t.Helper()
	source := &countingBehaviorSource{}
	source.entries = []models.BehaviorEntry{
		{AccountID: "acct-1", Date: "2024-03-05", Time: "09:00", Severity: 3, Function: models.FunctionEscape, Behavior: "hitting"},
		{AccountID: "acct-1", Date: "2024-03-12", Time: "15:30", Severity: 2, Function: models.FunctionSensory, Behavior: "rocking"},
		{AccountID: "acct-2", Date: "2024-03-12", Time: "15:30", Severity: 5, Function: models.FunctionSensory, Behavior: "rocking"},
	}
	cacheRepo := &memoryCacheRepo{}
	metrics := NewMetricsService()
	cache := NewCacheService(cacheRepo, metrics, time.Minute, zap.NewNop(), cacheEnabled)
	svc := NewAnalyticsService(source, cache, metrics, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC) }
	return svc, source, cacheRepo
}

func TestAnalyticsSummaryUsesCache(t *testing.T) {
	svc, source, _ := newAnalyticsForTest(t, true)
	filter := models.AnalyticsFilter{DateFrom: "2024-03-01"}

	first, cached, err := svc.Summary(context.Background(), "acct-1", filter)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, first.TotalIncidents)
	assert.Equal(t, "2024-03-01", source.lastList.DateFrom)

	second, cached, err := svc.Summary(context.Background(), "acct-1", filter)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.TotalIncidents, second.TotalIncidents)
	assert.Equal(t, first.SeverityDistribution, second.SeverityDistribution)
	assert.Equal(t, 1, source.calls)
}

func TestAnalyticsClockDependentKeysRollOverAtMidnight(t *testing.T) {
	svc, source, cacheRepo := newAnalyticsForTest(t, true)
	ctx := context.Background()

	_, _, err := svc.Milestones(ctx, "acct-1", models.AnalyticsFilter{})
	require.NoError(t, err)
	_, cached, err := svc.Milestones(ctx, "acct-1", models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Contains(t, cacheRepo.store, "analytics:acct-1:milestones:-:-:-:2024-03-13")

	// Monday of the next ISO week: the last completed week is now W11.
	svc.now = func() time.Time { return time.Date(2024, 3, 18, 0, 5, 0, 0, time.UTC) }
	milestones, cached, err := svc.Milestones(ctx, "acct-1", models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, source.calls)
	for _, m := range milestones {
		if m.Week != "" {
			assert.Equal(t, "2024-W11", m.Week)
		}
	}

	_, _, err = svc.Weekly(ctx, "acct-1", models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.store, "analytics:acct-1:weekly:-:-:-:-")
}

func TestAnalyticsInvalidateDropsAccountKeys(t *testing.T) {
	svc, source, cacheRepo := newAnalyticsForTest(t, true)
	ctx := context.Background()

	_, _, err := svc.Weekly(ctx, "acct-1", models.AnalyticsFilter{})
	require.NoError(t, err)
	_, _, err = svc.Weekly(ctx, "acct-2", models.AnalyticsFilter{})
	require.NoError(t, err)
	require.Len(t, cacheRepo.store, 2)

	svc.Invalidate(ctx, "acct-1")
	assert.Equal(t, []string{"analytics:acct-1:*"}, cacheRepo.deleted)
	assert.Len(t, cacheRepo.store, 1)

	_, cached, err := svc.Weekly(ctx, "acct-1", models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, source.calls)
}

func TestAnalyticsCacheDisabled(t *testing.T) {
	svc, source, cacheRepo := newAnalyticsForTest(t, false)
	for i := 0; i < 2; i++ {
		stats, cached, err := svc.Weekly(context.Background(), "acct-1", models.AnalyticsFilter{})
		require.NoError(t, err)
		assert.False(t, cached)
		require.Len(t, stats, 2)
	}
	assert.Equal(t, 2, source.calls)
	assert.Empty(t, cacheRepo.store)
	svc.Invalidate(context.Background(), "acct-1")
	assert.Empty(t, cacheRepo.deleted)
}

func TestAnalyticsMilestonesUseClock(t *testing.T) {
	svc, _, _ := newAnalyticsForTest(t, false)
	milestones, _, err := svc.Milestones(context.Background(), "acct-1", models.AnalyticsFilter{})
	require.NoError(t, err)
	types := milestoneTypes(milestones)
	assert.Contains(t, types, models.MilestoneLowSeverityWeek)
}

func TestAnalyticsSourceError(t *testing.T) {
	svc, source, _ := newAnalyticsForTest(t, false)
	source.listErr = errors.New("db down")
	_, _, err := svc.Summary(context.Background(), "acct-1", models.AnalyticsFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestMakeAnalyticsCacheKey(t *testing.T) {
	assert.Equal(t, "analytics:acct:summary:-:2024-01-31:-", makeAnalyticsCacheKey("acct", "summary", "", "2024-01-31", ""))
	assert.Equal(t, "analytics:a|b", makeAnalyticsCacheKey("a:b"))
}
