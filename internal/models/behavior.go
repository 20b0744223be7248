package models

import "time"

// BehaviorFunction is the hypothesized motivating reason for a behavior.
type BehaviorFunction string

const (
	FunctionEscape    BehaviorFunction = "escape"
	FunctionAttention BehaviorFunction = "attention"
	FunctionTangible  BehaviorFunction = "tangible"
	FunctionSensory   BehaviorFunction = "sensory"
)

// BehaviorFunctions lists every valid function in display order.
var BehaviorFunctions = []BehaviorFunction{FunctionEscape, FunctionAttention, FunctionTangible, FunctionSensory}

// Intensity grades how strongly a behavior presented.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

const (
	MinSeverity = 1
	MaxSeverity = 5

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// BehaviorEntry is one Antecedent-Behavior-Consequence incident. Entries are
// immutable once recorded.
type BehaviorEntry struct {
	ID          string           `db:"id" json:"id"`
	AccountID   string           `db:"account_id" json:"-"`
	Date        string           `db:"date" json:"date" validate:"required,datetime=2006-01-02"`
	Time        string           `db:"time" json:"time" validate:"required,datetime=15:04"`
	Antecedent  string           `db:"antecedent" json:"antecedent" validate:"required"`
	Behavior    string           `db:"behavior" json:"behavior" validate:"required"`
	Consequence string           `db:"consequence" json:"consequence" validate:"required"`
	Severity    int              `db:"severity" json:"severity" validate:"min=1,max=5"`
	Function    BehaviorFunction `db:"function" json:"function" validate:"oneof=escape attention tangible sensory"`
	Duration    *int             `db:"duration" json:"duration,omitempty" validate:"omitempty,min=0"`
	Intensity   Intensity        `db:"intensity" json:"intensity,omitempty" validate:"omitempty,oneof=low moderate high"`
	Location    string           `db:"location" json:"location,omitempty"`
	Notes       string           `db:"notes" json:"notes,omitempty"`
	ProfileID   string           `db:"profile_id" json:"profileId,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
}

// OccurredAt combines Date and Time in the given location. The zero time is
// returned when either part is malformed.
func (b BehaviorEntry) OccurredAt(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, b.Date+" "+b.Time, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// BehaviorFilter scopes behavior listings. Dates are inclusive YYYY-MM-DD bounds.
type BehaviorFilter struct {
	DateFrom    string
	DateTo      string
	Function    BehaviorFunction
	SeverityMin int
	SeverityMax int
	ProfileID   string
	Page        int
	PageSize    int
}
