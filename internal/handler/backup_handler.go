package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/internal/service"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/response"
)

type backupService interface {
	Export(ctx context.Context, accountID string) (*models.Backup, error)
	Decode(r io.Reader) (*models.Backup, error)
	Import(ctx context.Context, accountID string, doc *models.Backup, mode models.ImportMode) (*models.ImportResult, error)
}

// BackupHandler exposes backup export and import.
type BackupHandler struct {
	service  backupService
	maxBytes int64
}

// NewBackupHandler constructs the handler. maxBytes <= 0 disables the size check.
func NewBackupHandler(svc backupService, maxBytes int64) *BackupHandler {
	return &BackupHandler{service: svc, maxBytes: maxBytes}
}

// Export godoc
// @Summary Export backup
// @Description Downloads every record of the account as a version 2 backup file
// @Tags Backup
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Backup
// @Router /backup/export [get]
func (h *BackupHandler) Export(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	doc, err := h.service.Export(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		response.Error(c, appErrors.ErrInternal.With(err, "failed to encode backup"))
		return
	}
	filename := fmt.Sprintf("aba-tracker-backup-%s.json", doc.ExportDate.Format(models.DateLayout))
	response.Attachment(c, filename, "application/json", payload)
}

// Import godoc
// @Summary Import backup
// @Description Accepts the backup as the JSON body or as a multipart "file" field. Nothing is written when any record is invalid.
// @Tags Backup
// @Accept json
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param mode query string false "merge (default) or replace"
// @Param file formData file false "Backup file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /backup/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	payload, err := h.readDocument(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	mode, err := service.ParseImportMode(firstNonEmpty(c.Query("mode"), c.PostForm("mode")))
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := h.service.Decode(bytes.NewReader(payload))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Import(c.Request.Context(), accountID, doc, mode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func (h *BackupHandler) readDocument(c *gin.Context) ([]byte, error) {
	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			if isTooLarge(err) {
				return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "backup file is too large")
			}
			return nil, appErrors.Clone(appErrors.ErrValidation, "multipart field \"file\" is required")
		}
		file, err := header.Open()
		if err != nil {
			return nil, appErrors.ErrValidation.With(err, "failed to read backup file")
		}
		defer file.Close()
		src = file
	}
	if src == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "backup document is required")
	}
	if h.maxBytes > 0 {
		src = io.LimitReader(src, h.maxBytes+1)
	}
	payload, err := io.ReadAll(src)
	if err != nil {
		if isTooLarge(err) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "backup file is too large")
		}
		return nil, appErrors.ErrValidation.With(err, "failed to read backup")
	}
	if h.maxBytes > 0 && int64(len(payload)) > h.maxBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "backup file is too large")
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "backup document is required")
	}
	return payload, nil
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
