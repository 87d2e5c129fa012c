package repository

import (
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pingHistoryLimit is how many recent pings a room keeps
const pingHistoryLimit = 10

// RoomRepository handles database operations for Room
type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create inserts a new room together with its creator membership
func (r *RoomRepository) Create(room *model.Room) error {
	return r.db.Create(room).Error
}

// FindByID loads a room with members and its recent ping history
func (r *RoomRepository) FindByID(id uuid.UUID) (*model.Room, error) {
	var room model.Room
	err := r.db.
		Preload("Members").
		Preload("Pings", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(pingHistoryLimit)
		}).
		Where("id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// JoinLocked runs fn against the room loaded under a FOR UPDATE row lock.
// Membership mutations go through here so two concurrent joins cannot both
// observe the room below capacity.
func (r *RoomRepository) JoinLocked(roomID uuid.UUID, fn func(tx *gorm.DB, room *model.Room) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var room model.Room
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", roomID).
			First(&room).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Find(&room.Members).Error; err != nil {
			return err
		}
		return fn(tx, &room)
	})
}

// AddMember adds a user to a room
func (r *RoomRepository) AddMember(tx *gorm.DB, member *model.RoomMember) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(member).Error
}

// RemoveMember deletes a membership row (the member's token goes with it)
func (r *RoomRepository) RemoveMember(roomID, userID uuid.UUID) error {
	return r.db.
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&model.RoomMember{}).Error
}

// CountMembers returns the current member count of a room
func (r *RoomRepository) CountMembers(roomID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.RoomMember{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}

// IsMember checks if a user belongs to a room
func (r *RoomRepository) IsMember(roomID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	return count > 0, err
}

// UpdateFields applies a shallow field update and bumps activity timestamps
func (r *RoomRepository) UpdateFields(roomID uuid.UUID, fields map[string]interface{}) error {
	fields["last_activity"] = time.Now()
	fields["updated_at"] = time.Now()
	return r.db.Model(&model.Room{}).
		Where("id = ?", roomID).
		Updates(fields).Error
}

// TouchActivity bumps last_activity without touching anything else
func (r *RoomRepository) TouchActivity(roomID uuid.UUID) error {
	return r.db.Model(&model.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_activity": time.Now(),
			"updated_at":    time.Now(),
		}).Error
}

// SetMemberToken writes the device token on a membership row, inside tx
// when one is given. Returns gorm.ErrRecordNotFound when the membership
// does not exist.
func (r *RoomRepository) SetMemberToken(tx *gorm.DB, roomID, userID uuid.UUID, token string) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.Model(&model.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("fcm_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AppendPing inserts a ping and trims the room's history to the most
// recent entries
func (r *RoomRepository) AppendPing(ping *model.Ping) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ping).Error; err != nil {
			return err
		}
		// keep only the newest pingHistoryLimit entries
		sub := tx.Model(&model.Ping{}).
			Select("id").
			Where("room_id = ?", ping.RoomID).
			Order("created_at DESC").
			Limit(pingHistoryLimit)
		return tx.
			Where("room_id = ? AND id NOT IN (?)", ping.RoomID, sub).
			Delete(&model.Ping{}).Error
	})
}

// Delete removes a room and everything hanging off it
func (r *RoomRepository) Delete(roomID uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", roomID).Delete(&model.RoomMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&model.Ping{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", roomID).Delete(&model.Room{}).Error
	})
}
