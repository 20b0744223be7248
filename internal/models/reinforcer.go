package models

import "time"

// ReinforcerType classifies a reinforcer.
type ReinforcerType string

const (
	ReinforcerEdible   ReinforcerType = "edible"
	ReinforcerTangible ReinforcerType = "tangible"
	ReinforcerActivity ReinforcerType = "activity"
	ReinforcerSocial   ReinforcerType = "social"
)

// Reinforcer is an item or activity tracked to avoid satiation.
type Reinforcer struct {
	ID                  string         `db:"id" json:"id"`
	AccountID           string         `db:"account_id" json:"-"`
	Name                string         `db:"name" json:"name" validate:"required"`
	Type                ReinforcerType `db:"type" json:"type" validate:"oneof=edible tangible activity social"`
	UsageCount          int            `db:"usage_count" json:"usageCount" validate:"min=0"`
	Effectiveness       int            `db:"effectiveness" json:"effectiveness" validate:"min=1,max=5"`
	AvoidRepetitionDays int            `db:"avoid_repetition_days" json:"avoidRepetitionDays" validate:"min=0"`
	LastUsed            *time.Time     `db:"last_used" json:"lastUsed,omitempty"`
	Notes               string         `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"createdAt"`
}

// AvailableAt reports when the cooldown ends, or nil if the reinforcer has
// never been used.
func (r Reinforcer) AvailableAt() *time.Time {
	if r.LastUsed == nil {
		return nil
	}
	at := r.LastUsed.Add(time.Duration(r.AvoidRepetitionDays) * 24 * time.Hour)
	return &at
}

// IsAvailable reports whether the cooldown has elapsed at now.
func (r Reinforcer) IsAvailable(now time.Time) bool {
	at := r.AvailableAt()
	return at == nil || !now.Before(*at)
}

// ReinforcerStatus decorates a reinforcer with its derived availability.
type ReinforcerStatus struct {
	Reinforcer
	Available   bool       `json:"available"`
	AvailableAt *time.Time `json:"availableAt,omitempty"`
}

// NewReinforcerStatus derives availability at now.
func NewReinforcerStatus(r Reinforcer, now time.Time) ReinforcerStatus {
	return ReinforcerStatus{Reinforcer: r, Available: r.IsAvailable(now), AvailableAt: r.AvailableAt()}
}

// ReinforcerFilter scopes reinforcer listings.
type ReinforcerFilter struct {
	Type ReinforcerType
	// AvailableAt limits results to reinforcers whose cooldown has elapsed at this instant.
	AvailableAt *time.Time
	Page        int
	PageSize    int
}

// ReinforcerUpdate carries the mutable reinforcer fields. Usage counters are
// only changed through RecordUse.
type ReinforcerUpdate struct {
	Name                string         `json:"name" validate:"required"`
	Type                ReinforcerType `json:"type" validate:"oneof=edible tangible activity social"`
	Effectiveness       int            `json:"effectiveness" validate:"min=1,max=5"`
	AvoidRepetitionDays int            `json:"avoidRepetitionDays" validate:"min=0"`
	Notes               string         `json:"notes"`
}
