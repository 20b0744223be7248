package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/internal/service"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/response"
)

type reinforcerService interface {
	List(ctx context.Context, accountID string, req service.ReinforcerListRequest) ([]models.ReinforcerStatus, *models.Pagination, error)
	Get(ctx context.Context, accountID, id string) (*models.ReinforcerStatus, error)
	Create(ctx context.Context, accountID string, req service.CreateReinforcerRequest) (*models.ReinforcerStatus, error)
	Update(ctx context.Context, accountID, id string, req models.ReinforcerUpdate) (*models.ReinforcerStatus, error)
	Use(ctx context.Context, accountID, id string) (*models.ReinforcerStatus, error)
	Suggest(ctx context.Context, accountID string, limit int) ([]models.ReinforcerStatus, error)
	Delete(ctx context.Context, accountID, id string) error
}

// ReinforcerHandler exposes reinforcer endpoints.
type ReinforcerHandler struct {
	service reinforcerService
}

// NewReinforcerHandler constructs the handler.
func NewReinforcerHandler(svc reinforcerService) *ReinforcerHandler {
	return &ReinforcerHandler{service: svc}
}

// List godoc
// @Summary List reinforcers
// @Tags Reinforcers
// @Produce json
// @Security BearerAuth
// @Param type query string false "edible|tangible|activity|social"
// @Param available query bool false "Only reinforcers outside their cooldown"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /reinforcers [get]
func (h *ReinforcerHandler) List(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req service.ReinforcerListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.ErrValidation.With(err, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Suggestions godoc
// @Summary Suggest reinforcers
// @Description Available reinforcers, most effective and least used first
// @Tags Reinforcers
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum suggestions (default 3)"
// @Success 200 {object} response.Envelope
// @Router /reinforcers/suggestions [get]
func (h *ReinforcerHandler) Suggestions(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	items, err := h.service.Suggest(c.Request.Context(), accountID, queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get reinforcer
// @Tags Reinforcers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reinforcer ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reinforcers/{id} [get]
func (h *ReinforcerHandler) Get(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create reinforcer
// @Tags Reinforcers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateReinforcerRequest true "Reinforcer"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reinforcers [post]
func (h *ReinforcerHandler) Create(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req service.CreateReinforcerRequest
	if !bindJSON(c, &req, "invalid reinforcer payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), accountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update reinforcer
// @Description Usage counters cannot be changed here
// @Tags Reinforcers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reinforcer ID"
// @Param payload body models.ReinforcerUpdate true "Reinforcer"
// @Success 200 {object} response.Envelope
// @Router /reinforcers/{id} [put]
func (h *ReinforcerHandler) Update(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req models.ReinforcerUpdate
	if !bindJSON(c, &req, "invalid reinforcer payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), accountID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Use godoc
// @Summary Record a reinforcer use
// @Description Increments usageCount by one and starts the cooldown
// @Tags Reinforcers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reinforcer ID"
// @Success 200 {object} response.Envelope
// @Router /reinforcers/{id}/use [post]
func (h *ReinforcerHandler) Use(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	item, err := h.service.Use(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete reinforcer
// @Tags Reinforcers
// @Security BearerAuth
// @Param id path string true "Reinforcer ID"
// @Success 204
// @Router /reinforcers/{id} [delete]
func (h *ReinforcerHandler) Delete(c *gin.Context) {
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
