package model

import "time"

// User is a staff account: administrators, trainers, front-desk staff.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"` // admin, trainer, staff
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
