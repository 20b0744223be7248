package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/middleware"
	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/internal/service"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/response"
)

type behaviorService interface {
	List(ctx context.Context, accountID string, req service.BehaviorListRequest) ([]models.BehaviorEntry, *models.Pagination, error)
	Get(ctx context.Context, accountID, id string) (*models.BehaviorEntry, error)
	Create(ctx context.Context, accountID, profileID string, req service.CreateBehaviorRequest) (*models.BehaviorEntry, error)
	Delete(ctx context.Context, accountID, id string) error
}

// BehaviorHandler exposes ABC incident endpoints.
type BehaviorHandler struct {
	service behaviorService
}

// NewBehaviorHandler constructs the handler.
func NewBehaviorHandler(svc behaviorService) *BehaviorHandler {
	return &BehaviorHandler{service: svc}
}

// List godoc
// @Summary List behavior entries
// @Description Newest first, filterable by date range, function, severity and profile
// @Tags Behaviors
// @Produce json
// @Security BearerAuth
// @Param dateFrom query string false "YYYY-MM-DD"
// @Param dateTo query string false "YYYY-MM-DD"
// @Param function query string false "escape|attention|tangible|sensory"
// @Param severityMin query int false "Minimum severity"
// @Param severityMax query int false "Maximum severity"
// @Param profileId query string false "Profile ID"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /behaviors [get]
func (h *BehaviorHandler) List(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req service.BehaviorListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.With(err, "invalid query parameters"))
		return
	}
	entries, pagination, err := h.service.List(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Get godoc
// @Summary Get behavior entry
// @Tags Behaviors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Behavior ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /behaviors/{id} [get]
func (h *BehaviorHandler) Get(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	entry, err := h.service.Get(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Create godoc
// @Summary Record behavior entry
// @Description The X-Profile-ID header is used when the payload names no profile
// @Tags Behaviors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Profile-ID header string false "Acting profile"
// @Param payload body service.CreateBehaviorRequest true "Behavior"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /behaviors [post]
func (h *BehaviorHandler) Create(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req service.CreateBehaviorRequest
	if !bindJSON(c, &req, "invalid behavior payload") {
		return
	}
	entry, err := h.service.Create(c.Request.Context(), accountID, middleware.ProfileID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// Delete godoc
// @Summary Delete behavior entry
// @Tags Behaviors
// @Security BearerAuth
// @Param id path string true "Behavior ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /behaviors/{id} [delete]
func (h *BehaviorHandler) Delete(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), accountID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
