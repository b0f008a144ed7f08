package models

import "time"

// Role represents an employee's access level
type Role string

const (
	// Employee roles
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Employee represents a user of either client surface (web admin or
// mobile). PasswordHash is a bcrypt hash; it never leaves the server.
type Employee struct {
	ID           string    `gorm:"primary_key;size:36" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"not null;unique_index" json:"email"`
	Role         Role      `gorm:"size:20;not null" json:"role"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
