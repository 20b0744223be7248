package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/internal/service"
	"github.com/noah-isme/aba-tracker-api/pkg/response"
)

type crisisProtocolService interface {
	List(ctx context.Context, accountID string, activeOnly bool, page, pageSize int) ([]models.CrisisProtocol, *models.Pagination, error)
	Get(ctx context.Context, accountID, id string) (*models.CrisisProtocol, error)
	Create(ctx context.Context, accountID string, req service.CrisisProtocolRequest) (*models.CrisisProtocol, error)
	Update(ctx context.Context, accountID, id string, req service.CrisisProtocolRequest) (*models.CrisisProtocol, error)
	SetActive(ctx context.Context, accountID, id string, active bool) (*models.CrisisProtocol, error)
	Delete(ctx context.Context, accountID, id string) error
	RenderPDF(ctx context.Context, accountID, id string) ([]byte, string, error)
}

// CrisisProtocolHandler exposes crisis plan endpoints.
type CrisisProtocolHandler struct {
	service crisisProtocolService
}

// NewCrisisProtocolHandler constructs the handler.
func NewCrisisProtocolHandler(svc crisisProtocolService) *CrisisProtocolHandler {
	return &CrisisProtocolHandler{service: svc}
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// List godoc
// @Summary List crisis protocols
// @Tags CrisisProtocols
// @Produce json
// @Security BearerAuth
// @Param active query bool false "Only active protocols"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /crisis-protocols [get]
func (h *CrisisProtocolHandler) List(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), accountID, queryBool(c, "active"), queryInt(c, "page", 1), queryInt(c, "pageSize", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get crisis protocol
// @Tags CrisisProtocols
// @Produce json
// @Security BearerAuth
// @Param id path string true "Protocol ID"
// @Success 200 {object} response.Envelope
// @Router /crisis-protocols/{id} [get]
func (h *CrisisProtocolHandler) Get(c *gin.Context) {
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
// @Summary Create crisis protocol
// @Tags CrisisProtocols
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CrisisProtocolRequest true "Protocol"
// @Success 201 {object} response.Envelope
// @Router /crisis-protocols [post]
func (h *CrisisProtocolHandler) Create(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req service.CrisisProtocolRequest
	if !bindJSON(c, &req, "invalid crisis protocol payload") {
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
// @Summary Update crisis protocol
// @Tags CrisisProtocols
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Protocol ID"
// @Param payload body service.CrisisProtocolRequest true "Protocol"
// @Success 200 {object} response.Envelope
// @Router /crisis-protocols/{id} [put]
func (h *CrisisProtocolHandler) Update(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req service.CrisisProtocolRequest
	if !bindJSON(c, &req, "invalid crisis protocol payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), accountID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// SetActive godoc
// @Summary Activate or deactivate a crisis protocol
// @Tags CrisisProtocols
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Protocol ID"
// @Param payload body setActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Router /crisis-protocols/{id}/active [put]
func (h *CrisisProtocolHandler) SetActive(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req setActiveRequest
	if !bindJSON(c, &req, "isActive is required") {
		return
	}
	item, err := h.service.SetActive(c.Request.Context(), accountID, c.Param("id"), *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// PDF godoc
// @Summary Printable crisis protocol
// @Tags CrisisProtocols
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Protocol ID"
// @Success 200 {file} file
// @Router /crisis-protocols/{id}/pdf [get]
func (h *CrisisProtocolHandler) PDF(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	data, filename, err := h.service.RenderPDF(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/pdf", data)
}

// Delete godoc
// @Summary Delete crisis protocol
// @Tags CrisisProtocols
// @Security BearerAuth
// @Param id path string true "Protocol ID"
// @Success 204
// @Router /crisis-protocols/{id} [delete]
func (h *CrisisProtocolHandler) Delete(c *gin.Context) {
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
