package model

import "time"

type MembershipPlan struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       Amount    `json:"price"`
	DaysPerWeek int       `json:"days_per_week"`
	IsActive    bool      `json:"is_active"`
	Features    string    `json:"features"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
