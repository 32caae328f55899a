package model

import "time"

type Member struct {
	ID                  int64      `json:"id"`
	MembershipNumber    string     `json:"membership_number"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	DNI                 string     `json:"dni"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone"`
	Address             string     `json:"address"`
	MembershipType      string     `json:"membership_type"`
	MembershipStartDate time.Time  `json:"membership_start_date"`
	MembershipEndDate   *time.Time `json:"membership_end_date"`
	IsActive            bool       `json:"is_active"`
	TrainerID           *int64     `json:"trainer_id"`
	Notes               string     `json:"notes"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// FullName returns "First Last" for display and activity entries.
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// Expired reports whether the membership end date falls before today.
// It is a date comparison only and deliberately ignores the stored
// IsActive flag, which can disagree with it. Check-in uses this; the
// dashboard member counts use IsActive.
func (m Member) Expired(now time.Time) bool {
	if m.MembershipEndDate == nil {
		return false
	}
	y, mo, d := now.UTC().Date()
	today := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	return m.MembershipEndDate.Before(today)
}
