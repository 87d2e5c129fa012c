package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	// MaxLivePhotos caps how many unexpired photos a room may hold
	MaxLivePhotos = 3

	// MaxPhotoSize is the per-photo payload limit (1MB)
	MaxPhotoSize = 1 << 20

	// PhotoTTL is how long a photo lives after upload
	PhotoTTL = time.Hour
)

// Photo is an ephemeral image shared inside a room. The payload lives in
// object storage under ObjectKey; the row here only carries metadata.
type Photo struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomID     uuid.UUID `json:"room_id" gorm:"type:uuid;index;not null"`
	UploaderID uuid.UUID `json:"uploader_id" gorm:"type:uuid;not null"`
	ObjectKey  string    `json:"-" gorm:"size:512;not null"`
	URL        string    `json:"url" gorm:"size:1000"`
	FileName   string    `json:"file_name" gorm:"size:255"`
	MimeType   string    `json:"mime_type" gorm:"size:100"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index"`
}

// IsExpired reports whether the photo is past its lifetime at the given instant
func (p *Photo) IsExpired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
