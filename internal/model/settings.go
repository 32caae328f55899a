package model

import "time"

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GymProfile is the public-facing gym information shown on receipts and the
// settings page. Stored as individual settings keys.
type GymProfile struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Website   string `json:"website"`
	Instagram string `json:"instagram"`
	WhatsApp  string `json:"whatsapp"`
}
