package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/aba-tracker-api/internal/models"
	appErrors "github.com/noah-isme/aba-tracker-api/pkg/errors"
	"github.com/noah-isme/aba-tracker-api/pkg/gemini"
)

type behaviorRepoStub struct {
	mu        sync.Mutex
	entries   []models.BehaviorEntry
	createErr error
	listErr   error
	lastList  models.BehaviorFilter
}

func (r *behaviorRepoStub) List(_ context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastList = filter
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	var out []models.BehaviorEntry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	total := len(out)
	if filter.PageSize > 0 && len(out) > filter.PageSize {
		out = out[:filter.PageSize]
	}
	return out, total, nil
}

func (r *behaviorRepoStub) ListAll(ctx context.Context, accountID string, filter models.BehaviorFilter) ([]models.BehaviorEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastList = filter
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.BehaviorEntry
	for _, e := range r.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *behaviorRepoStub) FindByID(_ context.Context, accountID, id string) (*models.BehaviorEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.AccountID == accountID && e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *behaviorRepoStub) Create(_ context.Context, entry *models.BehaviorEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *behaviorRepoStub) Delete(_ context.Context, accountID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.AccountID == accountID && e.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type reinforcerRepoStub struct {
	items map[string]*models.Reinforcer
}

func newReinforcerRepoStub(items ...models.Reinforcer) *reinforcerRepoStub {
	r := &reinforcerRepoStub{items: map[string]*models.Reinforcer{}}
	for i := range items {
		item := items[i]
		r.items[item.ID] = &item
	}
	return r
}

func (r *reinforcerRepoStub) sorted(accountID string) []models.Reinforcer {
	out := make([]models.Reinforcer, 0, len(r.items))
	for _, item := range r.items {
		if item.AccountID == accountID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *reinforcerRepoStub) List(_ context.Context, accountID string, filter models.ReinforcerFilter) ([]models.Reinforcer, int, error) {
	var out []models.Reinforcer
	for _, item := range r.sorted(accountID) {
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if filter.AvailableAt != nil && !item.IsAvailable(*filter.AvailableAt) {
			continue
		}
		out = append(out, item)
	}
	return out, len(out), nil
}

func (r *reinforcerRepoStub) ListAll(_ context.Context, accountID string) ([]models.Reinforcer, error) {
	return r.sorted(accountID), nil
}

func (r *reinforcerRepoStub) FindByID(_ context.Context, accountID, id string) (*models.Reinforcer, error) {
	item, ok := r.items[id]
	if !ok || item.AccountID != accountID {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (r *reinforcerRepoStub) Create(_ context.Context, item *models.Reinforcer) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *reinforcerRepoStub) Update(_ context.Context, item *models.Reinforcer) error {
	existing, ok := r.items[item.ID]
	if !ok || existing.AccountID != item.AccountID {
		return sql.ErrNoRows
	}
	existing.Name = item.Name
	existing.Type = item.Type
	existing.Effectiveness = item.Effectiveness
	existing.AvoidRepetitionDays = item.AvoidRepetitionDays
	existing.Notes = item.Notes
	return nil
}

func (r *reinforcerRepoStub) RecordUse(_ context.Context, accountID, id string, usedAt time.Time) (*models.Reinforcer, error) {
	item, ok := r.items[id]
	if !ok || item.AccountID != accountID {
		return nil, sql.ErrNoRows
	}
	item.UsageCount++
	used := usedAt
	item.LastUsed = &used
	copied := *item
	return &copied, nil
}

func (r *reinforcerRepoStub) Delete(_ context.Context, accountID, id string) error {
	item, ok := r.items[id]
	if !ok || item.AccountID != accountID {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type protocolRepoStub struct {
	items      map[string]*models.CrisisProtocol
	lastFilter models.CrisisProtocolFilter
}

func newProtocolRepoStub(items ...models.CrisisProtocol) *protocolRepoStub {
	r := &protocolRepoStub{items: map[string]*models.CrisisProtocol{}}
	for i := range items {
		item := items[i]
		r.items[item.ID] = &item
	}
	return r
}

func (r *protocolRepoStub) List(_ context.Context, accountID string, filter models.CrisisProtocolFilter) ([]models.CrisisProtocol, int, error) {
	r.lastFilter = filter
	var out []models.CrisisProtocol
	for _, item := range r.items {
		if item.AccountID != accountID || (filter.ActiveOnly && !item.IsActive) {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *protocolRepoStub) FindByID(_ context.Context, accountID, id string) (*models.CrisisProtocol, error) {
	item, ok := r.items[id]
	if !ok || item.AccountID != accountID {
		return nil, sql.ErrNoRows
	}
	copied := *item
	return &copied, nil
}

func (r *protocolRepoStub) Create(_ context.Context, item *models.CrisisProtocol) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *protocolRepoStub) Update(_ context.Context, item *models.CrisisProtocol) error {
	if _, ok := r.items[item.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *protocolRepoStub) SetActive(_ context.Context, accountID, id string, active bool) error {
	item, ok := r.items[id]
	if !ok || item.AccountID != accountID {
		return sql.ErrNoRows
	}
	item.IsActive = active
	return nil
}

func (r *protocolRepoStub) Delete(_ context.Context, accountID, id string) error {
	item, ok := r.items[id]
	if !ok || item.AccountID != accountID {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

type profileRepoStub struct {
	items []models.Profile
}

func (r *profileRepoStub) List(_ context.Context, accountID string) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range r.items {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *profileRepoStub) FindByID(_ context.Context, accountID, id string) (*models.Profile, error) {
	for _, p := range r.items {
		if p.AccountID == accountID && p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *profileRepoStub) FindActive(_ context.Context, accountID string) (*models.Profile, error) {
	for _, p := range r.items {
		if p.AccountID == accountID && p.IsActive {
			found := p
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *profileRepoStub) Create(_ context.Context, item *models.Profile) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.IsActive = false
	r.items = append(r.items, *item)
	return nil
}

func (r *profileRepoStub) Update(_ context.Context, item *models.Profile) error {
	for i, p := range r.items {
		if p.AccountID == item.AccountID && p.ID == item.ID {
			r.items[i].Name, r.items[i].Type, r.items[i].Color = item.Name, item.Type, item.Color
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *profileRepoStub) Delete(_ context.Context, accountID, id string) error {
	for i, p := range r.items {
		if p.AccountID == accountID && p.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *profileRepoStub) Activate(_ context.Context, accountID, id string) error {
	found := false
	for _, p := range r.items {
		if p.AccountID == accountID && p.ID == id {
			found = true
		}
	}
	if !found {
		return sql.ErrNoRows
	}
	for i := range r.items {
		if r.items[i].AccountID == accountID {
			r.items[i].IsActive = r.items[i].ID == id
		}
	}
	return nil
}

type invalidatorSpy struct {
	calls []string
}

func (i *invalidatorSpy) Invalidate(_ context.Context, accountID string) {
	i.calls = append(i.calls, accountID)
}

type memoryCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func (s *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	s.deleted = append(s.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	removed := 0
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
			removed++
		}
	}
	return removed, nil
}

// generatorStub answers by operation-specific prompt markers.
type generatorStub struct {
	mu       sync.Mutex
	reply    string
	replies  map[string]string
	errs     map[string]error
	err      error
	requests []gemini.Request
	keys     []string
}

func (g *generatorStub) Generate(_ context.Context, apiKey string, req gemini.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	g.keys = append(g.keys, apiKey)
	for _, m := range req.Media {
		if err, ok := g.errs[m.Name]; ok {
			return "", err
		}
		if reply, ok := g.replies[m.Name]; ok {
			return reply, nil
		}
	}
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}
