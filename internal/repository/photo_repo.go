package repository

import (
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PhotoRepository handles database operations for Photo
type PhotoRepository struct {
	db *gorm.DB
}

func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// CreateCapped inserts a photo only while the room holds fewer than limit live
// photos. The room row is locked for the duration of the check so two
// near-simultaneous uploads cannot both slip under the cap. Returns
// (false, nil) when the cap is already reached.
func (r *PhotoRepository) CreateCapped(photo *model.Photo, limit int) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// lock the parent room to serialize uploads for this room
		var room model.Room
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", photo.RoomID).
			First(&room).Error; err != nil {
			return err
		}

		var live int64
		if err := tx.Model(&model.Photo{}).
			Where("room_id = ? AND expires_at > ?", photo.RoomID, time.Now()).
			Count(&live).Error; err != nil {
			return err
		}
		if live >= int64(limit) {
			return nil
		}

		if err := tx.Create(photo).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// FindByID finds a photo by ID
func (r *PhotoRepository) FindByID(id uuid.UUID) (*model.Photo, error) {
	var photo model.Photo
	if err := r.db.Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// ListLive returns a room's unexpired photos, oldest first
func (r *PhotoRepository) ListLive(roomID uuid.UUID) ([]model.Photo, error) {
	photos := []model.Photo{}
	err := r.db.
		Where("room_id = ? AND expires_at > ?", roomID, time.Now()).
		Order("uploaded_at ASC").
		Find(&photos).Error
	return photos, err
}

// Delete removes a photo row
func (r *PhotoRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.Photo{}).Error
}

// FindExpired returns every photo past its expiry at the given instant
func (r *PhotoRepository) FindExpired(now time.Time) ([]model.Photo, error) {
	photos := []model.Photo{}
	err := r.db.
		Where("expires_at <= ?", now).
		Find(&photos).Error
	return photos, err
}
