package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// NotificationTTL is how long relay records are kept before the janitor
// sweeps them
const NotificationTTL = time.Hour

// DataBag is the string-valued payload attached to a notification, stored
// as jsonb
type DataBag map[string]string

// Value implements driver.Valuer
func (d DataBag) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (d *DataBag) Scan(value interface{}) error {
	if value == nil {
		*d = DataBag{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("unsupported type for DataBag")
	}
	return json.Unmarshal(b, d)
}

// Notification is a relay record: a database-mediated notification observed
// by the target user's connected clients, distinct from platform push.
// Delivery is at-least-once; a client marks the record delivered by acking
// over the websocket.
type Notification struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoomID       uuid.UUID `json:"room_id" gorm:"type:uuid;index;not null"`
	TargetUserID uuid.UUID `json:"target_user_id" gorm:"type:uuid;index;not null"`
	Title        string    `json:"title" gorm:"size:255"`
	Body         string    `json:"body" gorm:"size:1000"`
	Data         DataBag   `json:"data" gorm:"type:jsonb;default:'{}'"`
	Delivered    bool      `json:"delivered" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
}
