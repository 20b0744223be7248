package models

import "time"

// ProfileType describes who is using the device.
type ProfileType string

const (
	ProfileParent    ProfileType = "parent"
	ProfileCaregiver ProfileType = "caregiver"
	ProfileTherapist ProfileType = "therapist"
)

// Profile is a family member or carer who logs data under an account. It is
// not an authenticated identity.
type Profile struct {
	ID        string      `db:"id" json:"id"`
	AccountID string      `db:"account_id" json:"-"`
	Name      string      `db:"name" json:"name" validate:"required"`
	Type      ProfileType `db:"type" json:"type" validate:"oneof=parent caregiver therapist"`
	Color     string      `db:"color" json:"color" validate:"required,len=7,hexcolor"`
	IsActive  bool        `db:"is_active" json:"isActive"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}
