package model

import "time"

// Schedule is an opening-hours block. DayOfWeek is 0=Monday through
// 6=Sunday, matching the front-desk UI.
type Schedule struct {
	ID          int64     `json:"id"`
	DayOfWeek   int       `json:"day_of_week"`
	Name        string    `json:"name"`
	OpeningTime string    `json:"opening_time"` // HH:MM
	ClosingTime string    `json:"closing_time"` // HH:MM
	IsOpen      bool      `json:"is_open"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
