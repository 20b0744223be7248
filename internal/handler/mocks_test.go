package handler

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	"github.com/noah-isme/aba-tracker-api/internal/service"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/gemini"
)

const testToken = "valid-token"

type tokenStub struct{}

func (tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != testToken {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{AccountID: "acct-1", Email: "family@example.com"}, nil
}

type authServiceMock struct {
	registered models.RegisterRequest
	changed    models.ChangePasswordRequest
}

func (m *authServiceMock) Register(_ context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	m.registered = req
	return &models.LoginResponse{AccessToken: "tok", Account: models.Account{ID: "acct-1", Email: req.Email}}, nil
}

func (m *authServiceMock) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if req.Password != "correct horse" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "tok"}, nil
}

func (m *authServiceMock) Me(_ context.Context, accountID string) (*models.Account, error) {
	return &models.Account{ID: accountID, Email: "family@example.com"}, nil
}

func (m *authServiceMock) Refresh(_ context.Context, accountID string) (*models.LoginResponse, error) {
	return &models.LoginResponse{AccessToken: "fresh-" + accountID}, nil
}

func (m *authServiceMock) ChangePassword(_ context.Context, _ string, req models.ChangePasswordRequest) error {
	if req.CurrentPassword != "correct horse" {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "current password is incorrect")
	}
	m.changed = req
	return nil
}

type behaviorServiceMock struct {
	listReq       service.BehaviorListRequest
	createProfile string
	created       service.CreateBehaviorRequest
}

func (m *behaviorServiceMock) List(_ context.Context, _ string, req service.BehaviorListRequest) ([]models.BehaviorEntry, *models.Pagination, error) {
	m.listReq = req
	return []models.BehaviorEntry{{ID: "b1", Behavior: "tantrum", Severity: 3}}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

func (m *behaviorServiceMock) Get(_ context.Context, _, id string) (*models.BehaviorEntry, error) {
	if id != "b1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "behavior not found")
	}
	return &models.BehaviorEntry{ID: id}, nil
}

func (m *behaviorServiceMock) Create(_ context.Context, _, profileID string, req service.CreateBehaviorRequest) (*models.BehaviorEntry, error) {
	if req.Severity < 1 || req.Severity > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "severity failed max=5")
	}
	m.createProfile = profileID
	m.created = req
	return &models.BehaviorEntry{ID: "b2", Behavior: req.Behavior, Severity: req.Severity, ProfileID: profileID}, nil
}

func (m *behaviorServiceMock) Delete(context.Context, string, string) error { return nil }

type reinforcerServiceMock struct {
	calls []string
}

func (m *reinforcerServiceMock) List(context.Context, string, service.ReinforcerListRequest) ([]models.ReinforcerStatus, *models.Pagination, error) {
	m.calls = append(m.calls, "list")
	return []models.ReinforcerStatus{}, &models.Pagination{Page: 1}, nil
}

func (m *reinforcerServiceMock) Get(_ context.Context, _, id string) (*models.ReinforcerStatus, error) {
	m.calls = append(m.calls, "get:"+id)
	return &models.ReinforcerStatus{}, nil
}

func (m *reinforcerServiceMock) Create(context.Context, string, service.CreateReinforcerRequest) (*models.ReinforcerStatus, error) {
	m.calls = append(m.calls, "create")
	return &models.ReinforcerStatus{}, nil
}

func (m *reinforcerServiceMock) Update(_ context.Context, _, id string, _ models.ReinforcerUpdate) (*models.ReinforcerStatus, error) {
	m.calls = append(m.calls, "update:"+id)
	return &models.ReinforcerStatus{}, nil
}

func (m *reinforcerServiceMock) Use(_ context.Context, _, id string) (*models.ReinforcerStatus, error) {
	m.calls = append(m.calls, "use:"+id)
	return &models.ReinforcerStatus{}, nil
}

func (m *reinforcerServiceMock) Suggest(_ context.Context, _ string, limit int) ([]models.ReinforcerStatus, error) {
	m.calls = append(m.calls, "suggest")
	return make([]models.ReinforcerStatus, limit), nil
}

func (m *reinforcerServiceMock) Delete(context.Context, string, string) error { return nil }

type protocolServiceMock struct {
	active *bool
}

func (m *protocolServiceMock) List(context.Context, string, bool, int, int) ([]models.CrisisProtocol, *models.Pagination, error) {
	return []models.CrisisProtocol{}, &models.Pagination{Page: 1}, nil
}

func (m *protocolServiceMock) Get(_ context.Context, _, id string) (*models.CrisisProtocol, error) {
	return &models.CrisisProtocol{ID: id}, nil
}

func (m *protocolServiceMock) Create(context.Context, string, service.CrisisProtocolRequest) (*models.CrisisProtocol, error) {
	return &models.CrisisProtocol{ID: "c1"}, nil
}

func (m *protocolServiceMock) Update(_ context.Context, _, id string, _ service.CrisisProtocolRequest) (*models.CrisisProtocol, error) {
	return &models.CrisisProtocol{ID: id}, nil
}

func (m *protocolServiceMock) SetActive(_ context.Context, _, id string, active bool) (*models.CrisisProtocol, error) {
	m.active = &active
	return &models.CrisisProtocol{ID: id, IsActive: active}, nil
}

func (m *protocolServiceMock) Delete(context.Context, string, string) error { return nil }

func (m *protocolServiceMock) RenderPDF(context.Context, string, string) ([]byte, string, error) {
	return []byte("%PDF-1.3 test"), "crisis-protocol-meltdown.pdf", nil
}

type profileServiceMock struct {
	activated string
}

func (m *profileServiceMock) List(context.Context, string) ([]models.Profile, error) {
	return []models.Profile{}, nil
}

func (m *profileServiceMock) Get(_ context.Context, _, id string) (*models.Profile, error) {
	return &models.Profile{ID: id}, nil
}

func (m *profileServiceMock) Active(context.Context, string) (*models.Profile, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no active profile")
}

func (m *profileServiceMock) Create(context.Context, string, service.ProfileRequest) (*models.Profile, error) {
	return &models.Profile{ID: "p1", IsActive: true}, nil
}

func (m *profileServiceMock) Update(_ context.Context, _, id string, _ service.ProfileRequest) (*models.Profile, error) {
	return &models.Profile{ID: id}, nil
}

func (m *profileServiceMock) Delete(context.Context, string, string) error { return nil }

func (m *profileServiceMock) Activate(_ context.Context, _, id string) (*models.Profile, error) {
	m.activated = id
	return &models.Profile{ID: id, IsActive: true}, nil
}

type backupServiceMock struct {
	imported *models.Backup
	mode     models.ImportMode
}

func (m *backupServiceMock) Export(context.Context, string) (*models.Backup, error) {
	return &models.Backup{Version: models.BackupVersion, Data: models.BackupData{Behaviors: []models.BehaviorEntry{}}}, nil
}

func (m *backupServiceMock) Decode(r io.Reader) (*models.Backup, error) {
	var doc models.Backup
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "backup is not valid JSON")
	}
	return &doc, nil
}

func (m *backupServiceMock) Import(_ context.Context, _ string, doc *models.Backup, mode models.ImportMode) (*models.ImportResult, error) {
	m.imported = doc
	m.mode = mode
	return &models.ImportResult{Version: doc.Version, Mode: mode, Behaviors: len(doc.Data.Behaviors)}, nil
}

type analyticsServiceMock struct {
	filter models.AnalyticsFilter
}

func (m *analyticsServiceMock) Summary(_ context.Context, _ string, filter models.AnalyticsFilter) (*models.AnalyticsSummary, bool, error) {
	m.filter = filter
	return &models.AnalyticsSummary{TotalIncidents: 3}, true, nil
}

func (m *analyticsServiceMock) Weekly(context.Context, string, models.AnalyticsFilter) ([]models.WeeklyStat, bool, error) {
	return []models.WeeklyStat{}, false, nil
}

func (m *analyticsServiceMock) Milestones(context.Context, string, models.AnalyticsFilter) ([]models.Milestone, bool, error) {
	return []models.Milestone{}, false, nil
}

type aiServiceMock struct {
	key     string
	profile string
	media   []gemini.Media
	save    bool
}

func (m *aiServiceMock) ExtractBehavior(_ context.Context, _, profileID, apiKey string, _ models.ExtractRequest) (*models.ExtractionResult, error) {
	if apiKey == "" {
		return nil, appErrors.ErrMissingAPIKey
	}
	m.key, m.profile = apiKey, profileID
	return &models.ExtractionResult{Drafts: []models.BehaviorEntry{}}, nil
}

func (m *aiServiceMock) AnalyzeVoice(_ context.Context, _, profileID, apiKey string, audio gemini.Media, save bool) (*models.VoiceAnalysis, error) {
	m.key, m.profile, m.media, m.save = apiKey, profileID, []gemini.Media{audio}, save
	return &models.VoiceAnalysis{Transcript: "hello"}, nil
}

func (m *aiServiceMock) AnalyzeVideo(_ context.Context, _, _, apiKey string, video gemini.Media, save bool) (*models.MediaAnalysis, error) {
	m.key, m.media, m.save = apiKey, []gemini.Media{video}, save
	return &models.MediaAnalysis{}, nil
}

func (m *aiServiceMock) AnalyzeImage(_ context.Context, _, _, apiKey string, image gemini.Media, save bool) (*models.MediaAnalysis, error) {
	m.key, m.media, m.save = apiKey, []gemini.Media{image}, save
	return &models.MediaAnalysis{}, nil
}

func (m *aiServiceMock) ImportPDFs(_ context.Context, _, _, apiKey string, files []gemini.Media, save bool) (*models.PDFImportResult, error) {
	m.key, m.media, m.save = apiKey, files, save
	return &models.PDFImportResult{Total: len(files)}, nil
}

func (m *aiServiceMock) Chat(_ context.Context, _, apiKey string, req models.ChatRequest) (*models.ChatReply, error) {
	m.key = apiKey
	return &models.ChatReply{Reply: "echo: " + req.Message}, nil
}

func (m *aiServiceMock) Insights(_ context.Context, _, apiKey string, _ models.AnalyticsFilter) (*models.Insights, error) {
	m.key = apiKey
	return &models.Insights{Summary: "ok"}, nil
}

type reportServiceMock struct {
	params   models.ReportJobParams
	download *service.ReportDownload
	err      error
}

func (m *reportServiceMock) CreateJob(_ context.Context, _ string, params models.ReportJobParams) (*models.ReportJob, error) {
	m.params = params
	return &models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued, Params: params}, nil
}

func (m *reportServiceMock) GetStatus(_ context.Context, accountID, id string) (*models.ReportJob, error) {
	if accountID != "acct-1" || id != "job-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return &models.ReportJob{ID: id, Status: models.ReportStatusFinished, Progress: 100}, nil
}

func (m *reportServiceMock) ResolveDownload(_ context.Context, token string) (*service.ReportDownload, error) {
	if m.err != nil {
		return nil, m.err
	}
	if token != "good.token" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	return m.download, nil
}

func writeTempFile(dir, name, content string) (*os.File, error) {
	path := dir + "/" + name
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return nil, err
	}
	return os.Open(path)
}
