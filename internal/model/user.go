package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an identity known to the service. Guests are real rows so room
// membership always points at a stable ID; they carry no email or password.
type User struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string         `json:"name" gorm:"size:100;not null"`
	Email        *string        `json:"email,omitempty" gorm:"uniqueIndex;size:255"` // NULL for guests
	PasswordHash string         `json:"-" gorm:"size:255"`
	IsGuest      bool           `json:"is_guest" gorm:"default:false"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email,omitempty"`
	IsGuest bool      `json:"is_guest"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	resp := UserResponse{
		ID:      u.ID,
		Name:    u.Name,
		IsGuest: u.IsGuest,
	}
	if u.Email != nil {
		resp.Email = *u.Email
	}
	return resp
}
