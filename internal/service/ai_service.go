package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/gemini"
	"github.com/noah-isme/aba-tracker-api/pkg/logger"
)

const (
	opExtract   = "extract"
	opVoice     = "voice"
	opVideo     = "video"
	opImage     = "image"
	opPDF       = "pdf_import"
	opChat      = "chat"
	opInsights  = "insights"
	pdfParallel = 4
)

type behaviorDrafter interface {
	ValidateEntry(entry *models.BehaviorEntry) error
	CreateMany(ctx context.Context, accountID, profileID string, entries []models.BehaviorEntry) ([]models.BehaviorEntry, error)
}

type recentBehaviorLister interface {
	List(ctx context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, int, error)
}

type allReinforcerLister interface {
	ListAll(ctx context.Context, accountID string) ([]models.Reinforcer, error)
}

type protocolLister interface {
	List(ctx context.Context, accountID string, filter models.CrisisProtocolFilter) ([]models.CrisisProtocol, int, error)
}

type summaryProvider interface {
	Summary(ctx context.Context, accountID string, filter models.AnalyticsFilter) (*models.AnalyticsSummary, bool, error)
}

// AIContextSources feed account data into chat prompts.
type AIContextSources struct {
	Behaviors   recentBehaviorLister
	Reinforcers allReinforcerLister
	Protocols   protocolLister
}

// AIServiceConfig bounds AI requests.
type AIServiceConfig struct {
	MaxUploadBytes int64
	MaxPDFFiles    int
	ChatContextMax int
}

// AIService wraps Gemini calls made with the caller's own key.
type AIService struct {
	generator gemini.Generator
	drafts    behaviorDrafter
	sources   AIContextSources
	analytics summaryProvider
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       AIServiceConfig
	now       func() time.Time
}

// NewAIService constructs the service.
func NewAIService(generator gemini.Generator, drafts behaviorDrafter, sources AIContextSources, analytics summaryProvider, metrics *MetricsService, logger *zap.Logger, cfg AIServiceConfig) *AIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxPDFFiles <= 0 {
		cfg.MaxPDFFiles = 10
	}
	if cfg.ChatContextMax <= 0 {
		cfg.ChatContextMax = 20
	}
	return &AIService{
		generator: generator,
		drafts:    drafts,
		sources:   sources,
		analytics: analytics,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// draftEntry is the loose shape models reply with.
type draftEntry struct {
	Date        string       `json:"date"`
	Time        string       `json:"time"`
	Antecedent  string       `json:"antecedent"`
	Behavior    string       `json:"behavior"`
	Consequence string       `json:"consequence"`
	Severity    looseNumber  `json:"severity"`
	Function    string       `json:"function"`
	Duration    *looseNumber `json:"duration"`
	Intensity   string       `json:"intensity"`
	Location    string       `json:"location"`
	Notes       string       `json:"notes"`
}

// looseNumber accepts 3, 3.0 and "3". Fractions are kept so the caller can
// reject them instead of truncating.
type looseNumber float64

func (l *looseNumber) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*l = 0
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", raw)
	}
	*l = looseNumber(f)
	return nil
}

func (l looseNumber) whole() (int, bool) {
	f := float64(l)
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

type entriesReply struct {
	Entries []draftEntry `json:"entries"`
}

// UnmarshalJSON accepts {"entries": [...]}, a bare array, or a single entry.
func (r *entriesReply) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &r.Entries)
	}
	var wrapped struct {
		Entries *[]draftEntry `json:"entries"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.Entries != nil {
		r.Entries = *wrapped.Entries
		return nil
	}
	var single draftEntry
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single.Behavior != "" {
		r.Entries = []draftEntry{single}
	}
	return nil
}

// ExtractBehavior turns free text into behavior drafts, saving them when asked.
func (s *AIService) ExtractBehavior(ctx context.Context, accountID, profileID, apiKey string, req models.ExtractRequest) (*models.ExtractionResult, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text is required")
	}
	var reply entriesReply
	if err := s.generateJSON(ctx, opExtract, apiKey, gemini.Request{
		System: extractSystemPrompt,
		Prompt: s.datedPrompt(text),
		JSON:   true,
	}, &reply); err != nil {
		return nil, err
	}
	return s.finishDrafts(ctx, accountID, profileID, reply.Entries, req.Save)
}

// AnalyzeVoice transcribes an audio note and extracts drafts from it.
func (s *AIService) AnalyzeVoice(ctx context.Context, accountID, profileID, apiKey string, audio gemini.Media, save bool) (*models.VoiceAnalysis, error) {
	if err := s.checkMedia(audio, "audio/"); err != nil {
		return nil, err
	}
	raw, err := s.generate(ctx, opVoice, apiKey, gemini.Request{
		System: voiceSystemPrompt,
		Prompt: s.datedPrompt("Transcribe and analyze this audio note."),
		Media:  []gemini.Media{audio},
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	var reply struct {
		Transcript string `json:"transcript"`
		Summary    string `json:"summary"`
	}
	if err := decodeReply(raw, &reply); err != nil {
		return nil, err
	}
	var entries entriesReply
	if err := decodeReply(raw, &entries); err != nil {
		return nil, err
	}
	result, err := s.finishDrafts(ctx, accountID, profileID, entries.Entries, save)
	if err != nil {
		return nil, err
	}
	return &models.VoiceAnalysis{Transcript: reply.Transcript, Summary: reply.Summary, ExtractionResult: *result}, nil
}

// AnalyzeVideo reads observations and emotions from a video clip.
func (s *AIService) AnalyzeVideo(ctx context.Context, accountID, profileID, apiKey string, video gemini.Media, save bool) (*models.MediaAnalysis, error) {
	return s.analyzeMedia(ctx, opVideo, "video/", accountID, profileID, apiKey, video, save)
}

// AnalyzeImage reads observations and emotions from a photo.
func (s *AIService) AnalyzeImage(ctx context.Context, accountID, profileID, apiKey string, image gemini.Media, save bool) (*models.MediaAnalysis, error) {
	return s.analyzeMedia(ctx, opImage, "image/", accountID, profileID, apiKey, image, save)
}

func (s *AIService) analyzeMedia(ctx context.Context, op, mimePrefix, accountID, profileID, apiKey string, media gemini.Media, save bool) (*models.MediaAnalysis, error) {
	if err := s.checkMedia(media, mimePrefix); err != nil {
		return nil, err
	}
	raw, err := s.generate(ctx, op, apiKey, gemini.Request{
		System: mediaSystemPrompt,
		Prompt: s.datedPrompt("Analyze the attached " + strings.TrimSuffix(mimePrefix, "/") + "."),
		Media:  []gemini.Media{media},
		JSON:   true,
	})
	if err != nil {
		return nil, err
	}
	var reply struct {
		Observations []string `json:"observations"`
		Emotions     []string `json:"emotions"`
		Summary      string   `json:"summary"`
	}
	if err := decodeReply(raw, &reply); err != nil {
		return nil, err
	}
	var entries entriesReply
	if err := decodeReply(raw, &entries); err != nil {
		return nil, err
	}
	result, err := s.finishDrafts(ctx, accountID, profileID, entries.Entries, save)
	if err != nil {
		return nil, err
	}
	return &models.MediaAnalysis{
		Observations:     nonNilStrings(reply.Observations),
		Emotions:         nonNilStrings(reply.Emotions),
		Summary:          reply.Summary,
		ExtractionResult: *result,
	}, nil
}

// ImportPDFs sends each document to the model concurrently. A failing file
// is reported in its result and does not stop the others.
func (s *AIService) ImportPDFs(ctx context.Context, accountID, profileID, apiKey string, files []gemini.Media, save bool) (*models.PDFImportResult, error) {
	if len(files) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one PDF file is required")
	}
	if len(files) > s.cfg.MaxPDFFiles {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d PDF files per import", s.cfg.MaxPDFFiles))
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingAPIKey, "")
	}
	for _, f := range files {
		if err := s.checkMedia(f, "application/pdf"); err != nil {
			return nil, err
		}
	}

	results := make([]models.PDFFileResult, len(files))
	valid := make([][]models.BehaviorEntry, len(files))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pdfParallel)
	for i, file := range files {
		g.Go(func() error {
			res := models.PDFFileResult{Name: file.Name, Drafts: []models.BehaviorEntry{}}
			var reply entriesReply
			err := s.generateJSON(gctx, opPDF, apiKey, gemini.Request{
				System: pdfSystemPrompt,
				Prompt: s.datedPrompt("Extract behavior incidents from " + file.Name + "."),
				Media:  []gemini.Media{file},
				JSON:   true,
			}, &reply)
			if err != nil {
				res.Error = appErrors.FromError(err).Message
				mu.Lock()
				failed++
				mu.Unlock()
				logger.With(gctx, s.logger).Warn("pdf import file failed", zap.String("file", file.Name), zap.Error(err))
			} else {
				res.Drafts, res.Skipped = s.validateDrafts(reply.Entries)
				valid[i] = res.Drafts
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := &models.PDFImportResult{Files: results, Failed: failed}
	var all []models.BehaviorEntry
	for _, drafts := range valid {
		all = append(all, drafts...)
	}
	out.Total = len(all)
	if save && len(all) > 0 {
		saved, err := s.drafts.CreateMany(ctx, accountID, profileID, all)
		if err != nil {
			return nil, err
		}
		out.Saved = saved
	}
	logger.With(ctx, s.logger).Info("pdf import finished", zap.String("account_id", accountID), zap.Int("files", len(files)), zap.Int("failed", failed), zap.Int("drafts", out.Total))
	return out, nil
}

// Chat answers a question with the account's recent data as context.
func (s *AIService) Chat(ctx context.Context, accountID, apiKey string, req models.ChatRequest) (*models.ChatReply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingAPIKey, "")
	}
	dataContext, err := s.chatContext(ctx, accountID)
	if err != nil {
		return nil, err
	}

	history := make([]gemini.Message, 0, len(req.History))
	for _, turn := range req.History {
		role := gemini.RoleUser
		if turn.Role == gemini.RoleModel {
			role = gemini.RoleModel
		}
		history = append(history, gemini.Message{Role: role, Text: turn.Text})
	}

	reply, err := s.generate(ctx, opChat, apiKey, gemini.Request{
		System:  chatSystemPrompt + "\n\n" + dataContext,
		Prompt:  message,
		History: history,
	})
	if err != nil {
		return nil, err
	}
	return &models.ChatReply{Reply: strings.TrimSpace(reply)}, nil
}

// Insights asks the model to interpret the analytics summary.
func (s *AIService) Insights(ctx context.Context, accountID, apiKey string, filter models.AnalyticsFilter) (*models.Insights, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingAPIKey, "")
	}
	summary, _, err := s.analytics.Summary(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, appErrors.ErrInternal.With(err, "failed to encode analytics")
	}

	var reply struct {
		Summary         string   `json:"summary"`
		Recommendations []string `json:"recommendations"`
		Patterns        []string `json:"patterns"`
	}
	if err := s.generateJSON(ctx, opInsights, apiKey, gemini.Request{
		System: insightsSystemPrompt,
		Prompt: "Behavior analytics:\n" + string(payload),
		JSON:   true,
	}, &reply); err != nil {
		return nil, err
	}
	return &models.Insights{
		Summary:         reply.Summary,
		Recommendations: nonNilStrings(reply.Recommendations),
		Patterns:        nonNilStrings(reply.Patterns),
		Analytics:       *summary,
	}, nil
}

func (s *AIService) chatContext(ctx context.Context, accountID string) (string, error) {
	var b strings.Builder
	if s.sources.Behaviors != nil {
		entries, _, err := s.sources.Behaviors.List(ctx, accountID, models.BehaviorFilter{Page: 1, PageSize: s.cfg.ChatContextMax})
		if err != nil {
			return "", appErrors.ErrInternal.With(err, "failed to load behaviors")
		}
		fmt.Fprintf(&b, "Recent behavior incidents (%d, newest first):\n", len(entries))
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s %s | A: %s | B: %s | C: %s | severity %d | function %s", e.Date, e.Time, e.Antecedent, e.Behavior, e.Consequence, e.Severity, e.Function)
			if e.Location != "" {
				fmt.Fprintf(&b, " | at %s", e.Location)
			}
			b.WriteByte('\n')
		}
	}
	if s.sources.Reinforcers != nil {
		items, err := s.sources.Reinforcers.ListAll(ctx, accountID)
		if err != nil {
			return "", appErrors.ErrInternal.With(err, "failed to load reinforcers")
		}
		now := s.now().UTC()
		b.WriteString("\nReinforcers:\n")
		for _, r := range items {
			availability := "available"
			if !r.IsAvailable(now) {
				availability = "cooling down"
			}
			fmt.Fprintf(&b, "- %s (%s) effectiveness %d/5, used %d times, %s\n", r.Name, r.Type, r.Effectiveness, r.UsageCount, availability)
		}
	}
	if s.sources.Protocols != nil {
		protocols, _, err := s.sources.Protocols.List(ctx, accountID, models.CrisisProtocolFilter{ActiveOnly: true, Page: 1, PageSize: 20})
		if err != nil {
			return "", appErrors.ErrInternal.With(err, "failed to load crisis protocols")
		}
		b.WriteString("\nActive crisis protocols:\n")
		for _, p := range protocols {
			fmt.Fprintf(&b, "- %s. Triggers: %s. De-escalation: %s. Intervention: %s.\n",
				p.Name, strings.Join(p.Triggers, "; "), strings.Join(p.DeEscalationTechniques, "; "), strings.Join(p.InterventionSteps, "; "))
		}
	}
	return b.String(), nil
}

func (s *AIService) datedPrompt(text string) string {
	now := s.now()
	return fmt.Sprintf("Today is %s and the time is %s.\n\n%s", now.Format(models.DateLayout), now.Format(models.TimeLayout), text)
}

func (s *AIService) checkMedia(media gemini.Media, mimePrefix string) error {
	if len(media.Data) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if s.cfg.MaxUploadBytes > 0 && int64(len(media.Data)) > s.cfg.MaxUploadBytes {
		return appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("%s exceeds %d bytes", displayName(media), s.cfg.MaxUploadBytes))
	}
	mime := strings.ToLower(strings.TrimSpace(media.MIMEType))
	if !strings.HasPrefix(mime, mimePrefix) {
		return appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("%s must be %s*, got %q", displayName(media), mimePrefix, media.MIMEType))
	}
	return nil
}

func (s *AIService) generateJSON(ctx context.Context, op, apiKey string, req gemini.Request, dest interface{}) error {
	raw, err := s.generate(ctx, op, apiKey, req)
	if err != nil {
		return err
	}
	return decodeReply(raw, dest)
}

// generate performs one model call. There are no retries.
func (s *AIService) generate(ctx context.Context, op, apiKey string, req gemini.Request) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", appErrors.Clone(appErrors.ErrMissingAPIKey, "")
	}
	if s.generator == nil {
		return "", appErrors.Clone(appErrors.ErrAIUnavailable, "AI features are not configured")
	}
	start := time.Now()
	text, err := s.generator.Generate(ctx, apiKey, req)
	s.metrics.ObserveAICall(op, err, time.Since(start))
	if err != nil {
		logger.With(ctx, s.logger).Warn("gemini call failed", zap.String("operation", op), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return "", mapGeminiError(err)
	}
	return text, nil
}

func mapGeminiError(err error) error {
	switch {
	case errors.Is(err, gemini.ErrMissingAPIKey):
		return appErrors.Clone(appErrors.ErrMissingAPIKey, "")
	case errors.Is(err, gemini.ErrMediaUnsupported):
		return appErrors.ErrUnsupportedMedia.With(err, "media type not supported by the configured AI transport")
	case errors.Is(err, gemini.ErrEmptyResponse):
		return appErrors.ErrAIInvalidResponse.With(err, "AI provider returned an empty response")
	case errors.Is(err, context.DeadlineExceeded):
		return appErrors.ErrAIUnavailable.With(err, "AI provider timed out")
	default:
		return appErrors.ErrAIUnavailable.With(err, appErrors.ErrAIUnavailable.Message)
	}
}

func decodeReply(text string, dest interface{}) error {
	if err := gemini.DecodeJSON(text, dest); err != nil {
		return appErrors.ErrAIInvalidResponse.With(err, appErrors.ErrAIInvalidResponse.Message)
	}
	return nil
}

func (s *AIService) finishDrafts(ctx context.Context, accountID, profileID string, drafts []draftEntry, save bool) (*models.ExtractionResult, error) {
	valid, skipped := s.validateDrafts(drafts)
	result := &models.ExtractionResult{Drafts: valid, Skipped: skipped}
	if save && len(valid) > 0 {
		saved, err := s.drafts.CreateMany(ctx, accountID, profileID, valid)
		if err != nil {
			return nil, err
		}
		result.Saved = saved
	}
	return result, nil
}

// validateDrafts fills missing date and time with now and splits drafts into
// valid entries and skip reasons.
func (s *AIService) validateDrafts(drafts []draftEntry) ([]models.BehaviorEntry, []string) {
	now := s.now()
	valid := make([]models.BehaviorEntry, 0, len(drafts))
	var skipped []string
	for i, d := range drafts {
		if _, ok := d.Severity.whole(); !ok {
			skipped = append(skipped, fmt.Sprintf("entry %d: severity must be a whole number", i+1))
			continue
		}
		entry := d.toEntry(now)
		if err := s.drafts.ValidateEntry(&entry); err != nil {
			skipped = append(skipped, fmt.Sprintf("entry %d: %s", i+1, appErrors.FromError(err).Message))
			continue
		}
		valid = append(valid, entry)
	}
	return valid, skipped
}

func (d draftEntry) toEntry(now time.Time) models.BehaviorEntry {
	entry := models.BehaviorEntry{
		Date:        strings.TrimSpace(d.Date),
		Time:        strings.TrimSpace(d.Time),
		Antecedent:  strings.TrimSpace(d.Antecedent),
		Behavior:    strings.TrimSpace(d.Behavior),
		Consequence: strings.TrimSpace(d.Consequence),
		Severity:    int(math.Trunc(float64(d.Severity))),
		Function:    models.BehaviorFunction(strings.ToLower(strings.TrimSpace(d.Function))),
		Intensity:   models.Intensity(strings.ToLower(strings.TrimSpace(d.Intensity))),
		Location:    strings.TrimSpace(d.Location),
		Notes:       strings.TrimSpace(d.Notes),
	}
	if entry.Date == "" {
		entry.Date = now.Format(models.DateLayout)
	}
	if entry.Time == "" {
		entry.Time = now.Format(models.TimeLayout)
	}
	if d.Duration != nil {
		// Durations are minutes; half minutes round to the nearest whole one.
		minutes := int(math.Round(float64(*d.Duration)))
		entry.Duration = &minutes
	}
	return entry
}

func displayName(media gemini.Media) string {
	if media.Name != "" {
		return media.Name
	}
	return "file"
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
