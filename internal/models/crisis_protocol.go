package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
)

// EmergencyContact is someone to call during a crisis.
type EmergencyContact struct {
	Name         string `json:"name" validate:"required"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone" validate:"required"`
}

// EmergencyContacts is persisted as a JSONB array.
type EmergencyContacts []EmergencyContact

// Value marshals contacts for persistence. A nil list is stored as [].
func (c EmergencyContacts) Value() (driver.Value, error) {
	if c == nil {
		c = EmergencyContacts{}
	}
	return marshalColumn("emergency contacts", []EmergencyContact(c))
}

// Scan unmarshals a JSONB payload.
func (c *EmergencyContacts) Scan(value interface{}) error {
	var out []EmergencyContact
	ok, err := scanColumn("emergency contacts", value, &out)
	if err != nil {
		return err
	}
	if !ok || out == nil {
		out = []EmergencyContact{}
	}
	*c = out
	return nil
}

// CrisisProtocol is a written plan for handling a behavioral crisis.
type CrisisProtocol struct {
	ID                     string            `db:"id" json:"id"`
	AccountID              string            `db:"account_id" json:"-"`
	Name                   string            `db:"name" json:"name" validate:"required"`
	Triggers               pq.StringArray    `db:"triggers" json:"triggers"`
	PreventionStrategies   pq.StringArray    `db:"prevention_strategies" json:"preventionStrategies"`
	InterventionSteps      pq.StringArray    `db:"intervention_steps" json:"interventionSteps"`
	SafetyMeasures         pq.StringArray    `db:"safety_measures" json:"safetyMeasures"`
	DeEscalationTechniques pq.StringArray    `db:"de_escalation_techniques" json:"deEscalationTechniques"`
	FollowUpActions        pq.StringArray    `db:"follow_up_actions" json:"followUpActions"`
	EmergencyContacts      EmergencyContacts `db:"emergency_contacts" json:"emergencyContacts" validate:"dive"`
	IsActive               bool              `db:"is_active" json:"isActive"`
	CreatedAt              time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time         `db:"updated_at" json:"updatedAt"`
}

// Normalize replaces nil slices with empty ones and drops blank list items.
func (p *CrisisProtocol) Normalize() {
	p.Triggers = compactStrings(p.Triggers)
	p.PreventionStrategies = compactStrings(p.PreventionStrategies)
	p.InterventionSteps = compactStrings(p.InterventionSteps)
	p.SafetyMeasures = compactStrings(p.SafetyMeasures)
	p.DeEscalationTechniques = compactStrings(p.DeEscalationTechniques)
	p.FollowUpActions = compactStrings(p.FollowUpActions)
	if p.EmergencyContacts == nil {
		p.EmergencyContacts = EmergencyContacts{}
	}
}

func compactStrings(in pq.StringArray) pq.StringArray {
	out := make(pq.StringArray, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CrisisProtocolFilter scopes protocol listings.
type CrisisProtocolFilter struct {
	ActiveOnly bool
	Page       int
	PageSize   int
}
