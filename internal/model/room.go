package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxRoomMembers caps how many users can share one room.
const MaxRoomMembers = 2

// DefaultEmoji is the mood a room starts with.
const DefaultEmoji = "🧡"

// Room represents a private session shared by at most two paired users
type Room struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string         `json:"name" gorm:"size:100;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	CurrentEmoji string         `json:"current_emoji" gorm:"size:20;default:'🧡'"`
	// CurrentPhotoURL is the legacy single shared photo pointer, superseded
	// by the photo store but still settable for old clients
	CurrentPhotoURL string       `json:"current_photo_url,omitempty" gorm:"size:1000"`
	LastActivity    time.Time    `json:"last_activity"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Members []RoomMember `json:"members,omitempty" gorm:"foreignKey:RoomID"`
	Pings   []Ping       `json:"ping_history,omitempty" gorm:"foreignKey:RoomID"`
}

// RoomMember maps one user to a room together with that user's current
// push-delivery token. Token lives directly on the membership row, so there
// is no positional alignment to maintain between member and token lists.
type RoomMember struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomID   uuid.UUID `json:"room_id" gorm:"type:uuid;uniqueIndex:idx_room_user;not null"`
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_room_user;not null"`
	FCMToken string    `json:"-" gorm:"size:512"` // empty = no device registered
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Room Room `json:"-" gorm:"foreignKey:RoomID"`
}

// Ping is a lightweight "thinking of you" event recorded in a room's history
type Ping struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomID     uuid.UUID `json:"room_id" gorm:"type:uuid;index;not null"`
	FromUserID uuid.UUID `json:"from" gorm:"type:uuid;not null"`
	CreatedAt  time.Time `json:"timestamp"`
}

// MemberIDs returns the user IDs of all current members
func (r *Room) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Members))
	for _, m := range r.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

// HasMember reports whether the user currently belongs to the room
func (r *Room) HasMember(userID uuid.UUID) bool {
	for _, m := range r.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// RoomSnapshot is the safe version of Room pushed to subscribers and
// returned from the API (no password hash, no soft-delete bookkeeping)
type RoomSnapshot struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	CurrentEmoji    string       `json:"current_emoji"`
	CurrentPhotoURL string       `json:"current_photo_url,omitempty"`
	Members         []RoomMember `json:"members"`
	PingHistory     []Ping       `json:"ping_history"`
	LastActivity    time.Time    `json:"last_activity"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// ToSnapshot converts Room to its subscriber-safe form
func (r *Room) ToSnapshot() RoomSnapshot {
	members := r.Members
	if members == nil {
		members = []RoomMember{}
	}
	pings := r.Pings
	if pings == nil {
		pings = []Ping{}
	}
	return RoomSnapshot{
		ID:              r.ID,
		Name:            r.Name,
		CurrentEmoji:    r.CurrentEmoji,
		CurrentPhotoURL: r.CurrentPhotoURL,
		Members:         members,
		PingHistory:     pings,
		LastActivity:    r.LastActivity,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// RoomPreview is the public view used by the share-URL join form prefill
type RoomPreview struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	MemberCount int       `json:"member_count"`
	IsFull      bool      `json:"is_full"`
}
