package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/internal/service"
	"github.com/noah-isme/aba-tracker-api/pkg/response"
)

type profileService interface {
	List(ctx context.Context, accountID string) ([]models.Profile, error)
	Get(ctx context.Context, accountID, id string) (*models.Profile, error)
	Active(ctx context.Context, accountID string) (*models.Profile, error)
	Create(ctx context.Context, accountID string, req service.ProfileRequest) (*models.Profile, error)
	Update(ctx context.Context, accountID, id string, req service.ProfileRequest) (*models.Profile, error)
	Delete(ctx context.Context, accountID, id string) error
	Activate(ctx context.Context, accountID, id string) (*models.Profile, error)
}

// ProfileHandler exposes family-member profile endpoints.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// List godoc
// @Summary List profiles
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /profiles [get]
func (h *ProfileHandler) List(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Active godoc
// @Summary Active profile
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /profiles/active [get]
func (h *ProfileHandler) Active(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	item, err := h.service.Active(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Get godoc
// @Summary Get profile
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /profiles/{id} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
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
// @Summary Create profile
// @Description The first profile of an account becomes active
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ProfileRequest true "Profile"
// @Success 201 {object} response.Envelope
// @Router /profiles [post]
func (h *ProfileHandler) Create(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req service.ProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
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
// @Summary Update profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Param payload body service.ProfileRequest true "Profile"
// @Success 200 {object} response.Envelope
// @Router /profiles/{id} [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req service.ProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), accountID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Activate godoc
// @Summary Make a profile the active one
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /profiles/{id}/activate [post]
func (h *ProfileHandler) Activate(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	item, err := h.service.Activate(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete profile
// @Description Behavior entries keep their profileId
// @Tags Profiles
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Success 204
// @Router /profiles/{id} [delete]
func (h *ProfileHandler) Delete(c *gin.Context) {
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
