package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/aba-tracker-api/internal/middleware"
	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/gemini"
	"github.com/noah-isme/aba-tracker-api/pkg/response"
)

type aiService interface {
	ExtractBehavior(ctx context.Context, accountID, profileID, apiKey string, req models.ExtractRequest) (*models.ExtractionResult, error)
	AnalyzeVoice(ctx context.Context, accountID, profileID, apiKey string, audio gemini.Media, save bool) (*models.VoiceAnalysis, error)
	AnalyzeVideo(ctx context.Context, accountID, profileID, apiKey string, video gemini.Media, save bool) (*models.MediaAnalysis, error)
	AnalyzeImage(ctx context.Context, accountID, profileID, apiKey string, image gemini.Media, save bool) (*models.MediaAnalysis, error)
	ImportPDFs(ctx context.Context, accountID, profileID, apiKey string, files []gemini.Media, save bool) (*models.PDFImportResult, error)
	Chat(ctx context.Context, accountID, apiKey string, req models.ChatRequest) (*models.ChatReply, error)
	Insights(ctx context.Context, accountID, apiKey string, filter models.AnalyticsFilter) (*models.Insights, error)
}

// AIHandler exposes the Gemini-backed helpers. Every route reads the caller's
// key from X-Gemini-API-Key and passes it straight to the service.
type AIHandler struct {
	service  aiService
	maxBytes int64
}

// NewAIHandler constructs the handler. maxBytes bounds each uploaded file.
func NewAIHandler(svc aiService, maxBytes int64) *AIHandler {
	return &AIHandler{service: svc, maxBytes: maxBytes}
}

// Extract godoc
// @Summary Extract behavior entries from text
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Gemini-API-Key header string true "Gemini API key, used for this request only"
// @Param X-Profile-ID header string false "Acting profile"
// @Param payload body models.ExtractRequest true "Free text"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /ai/extract [post]
func (h *AIHandler) Extract(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req models.ExtractRequest
	if !bindJSON(c, &req, "invalid extract payload") {
		return
	}
	result, err := h.service.ExtractBehavior(c.Request.Context(), accountID, middleware.ProfileID(c), middleware.GeminiKey(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Voice godoc
// @Summary Transcribe and analyze an audio note
// @Tags AI
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param X-Gemini-API-Key header string true "Gemini API key"
// @Param file formData file true "Audio recording"
// @Param save formData bool false "Persist valid drafts"
// @Success 200 {object} response.Envelope
// @Router /ai/voice [post]
func (h *AIHandler) Voice(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	media, err := h.singleFile(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.AnalyzeVoice(c.Request.Context(), accountID, middleware.ProfileID(c), middleware.GeminiKey(c), media, formBool(c, "save"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Video godoc
// @Summary Analyze a video clip
// @Tags AI
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param X-Gemini-API-Key header string true "Gemini API key"
// @Param file formData file true "Video clip"
// @Param save formData bool false "Persist valid drafts"
// @Success 200 {object} response.Envelope
// @Router /ai/video [post]
func (h *AIHandler) Video(c *gin.Context) {
	h.media(c, h.service.AnalyzeVideo)
}

// Image godoc
// @Summary Analyze a photo
// @Tags AI
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param X-Gemini-API-Key header string true "Gemini API key"
// @Param file formData file true "Image"
// @Param save formData bool false "Persist valid drafts"
// @Success 200 {object} response.Envelope
// @Router /ai/image [post]
func (h *AIHandler) Image(c *gin.Context) {
	h.media(c, h.service.AnalyzeImage)
}

func (h *AIHandler) media(c *gin.Context, analyze func(context.Context, string, string, string, gemini.Media, bool) (*models.MediaAnalysis, error)) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	media, err := h.singleFile(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := analyze(c.Request.Context(), accountID, middleware.ProfileID(c), middleware.GeminiKey(c), media, formBool(c, "save"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// PDFImport godoc
// @Summary Import behavior logs from PDF documents
// @Description Files are processed concurrently; a failing file is reported and the rest continue
// @Tags AI
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param X-Gemini-API-Key header string true "Gemini API key"
// @Param files formData file true "PDF documents (repeat the field)"
// @Param save formData bool false "Persist valid drafts"
// @Success 200 {object} response.Envelope
// @Router /ai/pdf-import [post]
func (h *AIHandler) PDFImport(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, uploadError(err))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		headers = form.File["file"]
	}
	files := make([]gemini.Media, 0, len(headers))
	for _, header := range headers {
		media, err := h.readMedia(header)
		if err != nil {
			response.Error(c, err)
			return
		}
		files = append(files, media)
	}
	result, err := h.service.ImportPDFs(c.Request.Context(), accountID, middleware.ProfileID(c), middleware.GeminiKey(c), files, formBool(c, "save"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Chat godoc
// @Summary Ask about the account's data
// @Tags AI
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Gemini-API-Key header string true "Gemini API key"
// @Param payload body models.ChatRequest true "Message and history"
// @Success 200 {object} response.Envelope
// @Router /ai/chat [post]
func (h *AIHandler) Chat(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	var req models.ChatRequest
	if !bindJSON(c, &req, "invalid chat payload") {
		return
	}
	reply, err := h.service.Chat(c.Request.Context(), accountID, middleware.GeminiKey(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

// Insights godoc
// @Summary Recommendations from analytics
// @Tags AI
// @Produce json
// @Security BearerAuth
// @Param X-Gemini-API-Key header string true "Gemini API key"
// @Param dateFrom query string false "YYYY-MM-DD"
// @Param dateTo query string false "YYYY-MM-DD"
// @Param profileId query string false "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /ai/insights [post]
func (h *AIHandler) Insights(c *gin.Context) {
	accountID, ok := requireAccount(c)
	if !ok {
		return
	}
	filter, err := parseAnalyticsFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	insights, err := h.service.Insights(c.Request.Context(), accountID, middleware.GeminiKey(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, insights, nil)
}

func (h *AIHandler) singleFile(c *gin.Context) (gemini.Media, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return gemini.Media{}, uploadError(err)
	}
	return h.readMedia(header)
}

func (h *AIHandler) readMedia(header *multipart.FileHeader) (gemini.Media, error) {
	if h.maxBytes > 0 && header.Size > h.maxBytes {
		return gemini.Media{}, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%s exceeds %d bytes", header.Filename, h.maxBytes))
	}
	file, err := header.Open()
	if err != nil {
		return gemini.Media{}, appErrors.ErrValidation.With(err, "failed to read upload")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return gemini.Media{}, appErrors.ErrValidation.With(err, "failed to read upload")
	}
	mimeType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return gemini.Media{Name: header.Filename, MIMEType: mimeType, Data: data}, nil
}

func uploadError(err error) error {
	if isTooLarge(err) {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, "upload is too large")
	}
	if errors.Is(err, http.ErrMissingFile) {
		return appErrors.Clone(appErrors.ErrValidation, "multipart field \"file\" is required")
	}
	return appErrors.ErrValidation.With(err, "invalid multipart upload")
}

func formBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(firstNonEmpty(c.PostForm(key), c.Query(key)))
	return err == nil && v
}
