package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aba-tracker-api/internal/models"
)

type fakeBackup struct {
	exported  *models.Backup
	decoded   string
	importAcc string
	mode      models.ImportMode
}

func (f *fakeBackup) Export(_ context.Context, accountID string) (*models.Backup, error) {
	if accountID != "acct-1" {
		return nil, errors.New("unknown account")
	}
	return f.exported, nil
}

func (f *fakeBackup) Decode(r io.Reader) (*models.Backup, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.decoded = string(raw)
	var doc models.Backup
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (f *fakeBackup) Import(_ context.Context, accountID string, doc *models.Backup, mode models.ImportMode) (*models.ImportResult, error) {
	f.importAcc = accountID
	f.mode = mode
	return &models.ImportResult{
		Version:   doc.Version,
		Mode:      mode,
		Behaviors: len(doc.Data.Behaviors),
		Profiles:  len(doc.Data.Profiles),
	}, nil
}

type fakeMilestones struct {
	items  []models.Milestone
	filter models.AnalyticsFilter
}

func (f *fakeMilestones) Milestones(_ context.Context, _ string, filter models.AnalyticsFilter) ([]models.Milestone, bool, error) {
	f.filter = filter
	return f.items, false, nil
}

type harness struct {
	backup     *fakeBackup
	milestones *fakeMilestones
	migrated   []string
	opened     int
	closed     int
}

func newHarness() *harness {
	return &harness{
		backup: &fakeBackup{exported: &models.Backup{
			Version:    models.BackupVersion,
			ExportDate: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
			Data: models.BackupData{
				Behaviors: []models.BehaviorEntry{{ID: "b1", Behavior: "hitting"}},
				Profiles:  []models.Profile{{ID: "p1", Name: "Sam"}},
			},
		}},
		milestones: &fakeMilestones{},
		migrated:   []string{"0001_init.sql"},
	}
}

func (h *harness) open(context.Context) (*runtime, error) {
	h.opened++
	return &runtime{
		Backup:    h.backup,
		Analytics: h.milestones,
		Migrate:   func(context.Context) ([]string, error) { return h.migrated, nil },
		Close:     func() { h.closed++ },
	}, nil
}

func run(t *testing.T, h *harness, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(h.open)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestMigrate(t *testing.T) {
	h := newHarness()
	out, _, err := run(t, h, "", "migrate")
	require.NoError(t, err)
	assert.Equal(t, "applied 0001_init.sql\n", out)
	assert.Equal(t, 1, h.closed)

	h.migrated = nil
	out, _, err = run(t, h, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}

func TestBackupExportToFile(t *testing.T) {
	h := newHarness()
	path := filepath.Join(t.TempDir(), "backup.json")

	_, stderr, err := run(t, h, "", "backup", "export", "--account", "acct-1", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "1 behaviors")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc models.Backup
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, models.BackupVersion, doc.Version)
	require.Len(t, doc.Data.Behaviors, 1)
	assert.Equal(t, "b1", doc.Data.Behaviors[0].ID)
}

func TestBackupExportToStdout(t *testing.T) {
	h := newHarness()
	out, _, err := run(t, h, "", "backup", "export", "--account", "acct-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": 2`)
}

func TestBackupExportRequiresAccount(t *testing.T) {
	h := newHarness()
	_, _, err := run(t, h, "", "backup", "export")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account")
	assert.Zero(t, h.opened)
}

func TestBackupImportFromFile(t *testing.T) {
	h := newHarness()
	path := filepath.Join(t.TempDir(), "in.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"data":{"behaviors":[{"id":"x"},{"id":"y"}]}}`), 0o600))

	out, _, err := run(t, h, "", "backup", "import", "--account", "acct-9", "--file", path, "--mode", "REPLACE")
	require.NoError(t, err)
	assert.Equal(t, "acct-9", h.backup.importAcc)
	assert.Equal(t, models.ImportReplace, h.backup.mode)
	assert.Contains(t, out, "imported v1 backup (replace): 2 behaviors")
}

func TestBackupImportFromStdinDefaultsToMerge(t *testing.T) {
	h := newHarness()
	_, _, err := run(t, h, `{"version":2,"data":{}}`, "backup", "import", "--account", "acct-1", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, models.ImportMerge, h.backup.mode)
	assert.Equal(t, `{"version":2,"data":{}}`, h.backup.decoded)
}

func TestBackupImportRejectsUnknownModeBeforeOpening(t *testing.T) {
	h := newHarness()
	_, _, err := run(t, h, "{}", "backup", "import", "--account", "acct-1", "--file", "-", "--mode", "append")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append")
	assert.Zero(t, h.opened)
}

func TestAnalyticsMilestones(t *testing.T) {
	h := newHarness()
	h.milestones.items = []models.Milestone{{
		Type:  models.MilestoneFrequencyReduction,
		Title: "Fewer incidents this week",
		Week:  "2024-W22",
	}}

	out, _, err := run(t, h, "", "analytics", "milestones", "--account", "acct-1", "--profile", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-W22")
	assert.Contains(t, out, "frequency_reduction")
	assert.Equal(t, "p1", h.milestones.filter.ProfileID)

	out, _, err = run(t, h, "", "analytics", "milestones", "--account", "acct-1", "--json")
	require.NoError(t, err)
	var decoded []models.Milestone
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded, 1)
}

func TestAnalyticsMilestonesEmpty(t *testing.T) {
	h := newHarness()
	out, _, err := run(t, h, "", "analytics", "milestones", "--account", "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "no milestones\n", out)
}
