package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
)

// memoryBackupStore keeps one account's stores in memory and applies
// imports the way the transactional repository does.
type memoryBackupStore struct {
	data     models.BackupData
	applyErr error
	applied  int
}

func (m *memoryBackupStore) Snapshot(_ context.Context, _ string) (*models.BackupData, error) {
	copied := models.BackupData{
		Behaviors:       append([]models.BehaviorEntry{}, m.data.Behaviors...),
		Reinforcers:     append([]models.Reinforcer{}, m.data.Reinforcers...),
		CrisisProtocols: append([]models.CrisisProtocol{}, m.data.CrisisProtocols...),
		Profiles:        append([]models.Profile{}, m.data.Profiles...),
	}
	return &copied, nil
}

func (m *memoryBackupStore) Apply(_ context.Context, _ string, data *models.BackupData, mode models.ImportMode) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied++
	if mode == models.ImportReplace {
		m.data = models.BackupData{}
	}
	for _, b := range data.Behaviors {
		m.data.Behaviors = upsertByID(m.data.Behaviors, b, func(x models.BehaviorEntry) string { return x.ID })
	}
	for _, r := range data.Reinforcers {
		m.data.Reinforcers = upsertByID(m.data.Reinforcers, r, func(x models.Reinforcer) string { return x.ID })
	}
	for _, p := range data.CrisisProtocols {
		m.data.CrisisProtocols = upsertByID(m.data.CrisisProtocols, p, func(x models.CrisisProtocol) string { return x.ID })
	}
	for _, p := range data.Profiles {
		m.data.Profiles = upsertByID(m.data.Profiles, p, func(x models.Profile) string { return x.ID })
	}
	return nil
}

func upsertByID[T any](items []T, item T, id func(T) string) []T {
	for i := range items {
		if id(items[i]) == id(item) {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func sampleBackupData() models.BackupData {
	duration := 4
	used := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	protocol := models.CrisisProtocol{
		ID: "c1", Name: "Elopement", Triggers: []string{"open gate"}, EmergencyContacts: models.EmergencyContacts{{Name: "Neighbour", Phone: "555"}}, IsActive: true,
	}
	protocol.Normalize()
	return models.BackupData{
		Behaviors: []models.BehaviorEntry{{
			ID: "b1", Date: "2024-04-01", Time: "07:45", Antecedent: "woken up", Behavior: "crying",
			Consequence: "comforted", Severity: 2, Function: models.FunctionAttention, Duration: &duration, ProfileID: "p1",
		}},
		Reinforcers: []models.Reinforcer{{
			ID: "r1", Name: "Trampoline", Type: models.ReinforcerActivity, UsageCount: 3, Effectiveness: 5, AvoidRepetitionDays: 1, LastUsed: &used,
		}},
		CrisisProtocols: []models.CrisisProtocol{protocol},
		Profiles:        []models.Profile{{ID: "p1", Name: "Dad", Type: models.ProfileParent, Color: "#123456", IsActive: true}},
	}
}

func newBackupServiceForTest(store *memoryBackupStore) (*BackupService, *invalidatorSpy) {
	spy := &invalidatorSpy{}
	svc := NewBackupService(store, spy, NewMetricsService(), nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC) }
	return svc, spy
}

func TestBackupExportImportRoundTrip(t *testing.T) {
	source := &memoryBackupStore{data: sampleBackupData()}
	svc, _ := newBackupServiceForTest(source)

	exported, err := svc.Export(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, models.BackupVersion, exported.Version)
	assert.Equal(t, time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC), exported.ExportDate)

	payload, err := json.Marshal(exported)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"crisisProtocols"`)
	assert.Contains(t, string(payload), `"exportDate"`)

	target := &memoryBackupStore{}
	targetSvc, spy := newBackupServiceForTest(target)
	doc, err := targetSvc.Decode(strings.NewReader(string(payload)))
	require.NoError(t, err)
	result, err := targetSvc.Import(context.Background(), "acct-2", doc, models.ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, &models.ImportResult{Version: 2, Mode: models.ImportReplace, Behaviors: 1, Reinforcers: 1, CrisisProtocols: 1, Profiles: 1}, result)
	assert.Equal(t, []string{"acct-2"}, spy.calls)

	reexported, err := targetSvc.Export(context.Background(), "acct-2")
	require.NoError(t, err)
	first, err := json.Marshal(exported.Data)
	require.NoError(t, err)
	second, err := json.Marshal(reexported.Data)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestBackupImportIsAllOrNothing(t *testing.T) {
	store := &memoryBackupStore{}
	svc, spy := newBackupServiceForTest(store)

	data := sampleBackupData()
	data.Behaviors = append(data.Behaviors, models.BehaviorEntry{
		ID: "b2", Date: "2024-04-01", Time: "09:00", Antecedent: "a", Behavior: "b", Consequence: "c", Severity: 7, Function: models.FunctionEscape,
	})
	_, err := svc.Import(context.Background(), "acct-1", &models.Backup{Version: 2, Data: data}, models.ImportMerge)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "behaviors[1]")
	assert.Zero(t, store.applied)
	assert.Empty(t, spy.calls)
}

func TestBackupImportVersions(t *testing.T) {
	store := &memoryBackupStore{}
	svc, _ := newBackupServiceForTest(store)

	_, err := svc.Import(context.Background(), "acct-1", &models.Backup{Version: 3, Data: sampleBackupData()}, models.ImportMerge)
	assert.Equal(t, appErrors.ErrBackupVersion.Code, appErrors.FromError(err).Code)

	_, err = svc.Decode(strings.NewReader(`{"version": 0, "data": {}}`))
	assert.Equal(t, appErrors.ErrBackupVersion.Code, appErrors.FromError(err).Code)

	legacy := sampleBackupData()
	result, err := svc.Import(context.Background(), "acct-1", &models.Backup{Version: 1, Data: legacy}, models.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Version)
	assert.Zero(t, result.Profiles)
	assert.Empty(t, store.data.Profiles)
	assert.Len(t, store.data.Behaviors, 1)
}

func TestBackupImportMergeKeepsExisting(t *testing.T) {
	store := &memoryBackupStore{data: models.BackupData{Reinforcers: []models.Reinforcer{{ID: "keep", Name: "Music", Type: models.ReinforcerActivity, Effectiveness: 3}}}}
	svc, _ := newBackupServiceForTest(store)

	_, err := svc.Import(context.Background(), "acct-1", &models.Backup{Version: 2, Data: sampleBackupData()}, models.ImportMerge)
	require.NoError(t, err)
	assert.Len(t, store.data.Reinforcers, 2)

	_, err = svc.Import(context.Background(), "acct-1", &models.Backup{Version: 2, Data: sampleBackupData()}, models.ImportReplace)
	require.NoError(t, err)
	assert.Len(t, store.data.Reinforcers, 1)
}

func TestBackupImportRejectsTwoActiveProfiles(t *testing.T) {
	svc, _ := newBackupServiceForTest(&memoryBackupStore{})
	data := sampleBackupData()
	data.Profiles = append(data.Profiles, models.Profile{ID: "p2", Name: "Mum", Type: models.ProfileParent, Color: "#654321", IsActive: true})
	_, err := svc.Import(context.Background(), "acct-1", &models.Backup{Version: 2, Data: data}, models.ImportMerge)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBackupImportStoreFailure(t *testing.T) {
	svc, spy := newBackupServiceForTest(&memoryBackupStore{applyErr: errors.New("tx aborted")})
	_, err := svc.Import(context.Background(), "acct-1", &models.Backup{Version: 2, Data: sampleBackupData()}, models.ImportMerge)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, spy.calls)
}

func TestBackupDecodeAndMode(t *testing.T) {
	svc, _ := newBackupServiceForTest(&memoryBackupStore{})
	_, err := svc.Decode(strings.NewReader(`not json`))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	_, err = svc.Decode(strings.NewReader(`{"version":2,"data":{}} {"version":2}`))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	mode, err := ParseImportMode("")
	require.NoError(t, err)
	assert.Equal(t, models.ImportMerge, mode)
	mode, err = ParseImportMode("REPLACE")
	require.NoError(t, err)
	assert.Equal(t, models.ImportReplace, mode)
	_, err = ParseImportMode("overwrite")
	require.Error(t, err)
}
