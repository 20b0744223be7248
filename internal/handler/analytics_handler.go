package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/middleware"
	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/response"
)

type analyticsService interface {
	Summary(ctx context.Context, accountID string, filter models.AnalyticsFilter) (*models.AnalyticsSummary, bool, error)
	Weekly(ctx context.Context, accountID string, filter models.AnalyticsFilter) ([]models.WeeklyStat, bool, error)
	Milestones(ctx context.Context, accountID string, filter models.AnalyticsFilter) ([]models.Milestone, bool, error)
}

// AnalyticsHandler exposes behavior analytics endpoints.
type AnalyticsHandler struct {
	analytics analyticsService
}

// NewAnalyticsHandler constructs the analytics handler.
func NewAnalyticsHandler(analytics analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Summary godoc
// @Summary Analytics summary
// @Description Distributions, top items and the 7-day severity trend
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "YYYY-MM-DD"
// @Param dateTo query string false "YYYY-MM-DD"
// @Param profileId query string false "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /analytics/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	h.serve(c, func(ctx context.Context, accountID string, filter models.AnalyticsFilter) (interface{}, bool, error) {
		return h.analytics.Summary(ctx, accountID, filter)
	})
}

// Weekly godoc
// @Summary Weekly statistics
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "YYYY-MM-DD"
// @Param dateTo query string false "YYYY-MM-DD"
// @Param profileId query string false "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /analytics/weekly [get]
func (h *AnalyticsHandler) Weekly(c *gin.Context) {
	h.serve(c, func(ctx context.Context, accountID string, filter models.AnalyticsFilter) (interface{}, bool, error) {
		return h.analytics.Weekly(ctx, accountID, filter)
	})
}

// Milestones godoc
// @Summary Progress milestones
// @Tags Analytics
// @Produce json
// @Security BearerAuth
// @Param profileId query string false "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /analytics/milestones [get]
func (h *AnalyticsHandler) Milestones(c *gin.Context) {
	h.serve(c, func(ctx context.Context, accountID string, filter models.AnalyticsFilter) (interface{}, bool, error) {
		return h.analytics.Milestones(ctx, accountID, filter)
	})
}

func (h *AnalyticsHandler) serve(c *gin.Context, load func(context.Context, string, models.AnalyticsFilter) (interface{}, bool, error)) {
	if h.analytics == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	filter, err := parseAnalyticsFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, cacheHit, err := load(c.Request.Context(), accountID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, data, nil, middleware.ResponseMeta(c))
}

func parseAnalyticsFilter(c *gin.Context) (models.AnalyticsFilter, error) {
	filter := models.AnalyticsFilter{
		DateFrom:  strings.TrimSpace(c.Query("dateFrom")),
		DateTo:    strings.TrimSpace(c.Query("dateTo")),
		ProfileID: strings.TrimSpace(c.Query("profileId")),
	}
	for _, d := range []string{filter.DateFrom, filter.DateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "dates must use YYYY-MM-DD")
		}
	}
	if filter.DateFrom != "" && filter.DateTo != "" && filter.DateFrom > filter.DateTo {
		return filter, appErrors.Clone(appErrors.ErrValidation, "dateFrom must not be after dateTo")
	}
	return filter, nil
}
