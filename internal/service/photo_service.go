package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"strings"
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PhotoRepo is the data access surface the photo service needs
type PhotoRepo interface {
	CreateCapped(photo *model.Photo, limit int) (bool, error)
	FindByID(id uuid.UUID) (*model.Photo, error)
	ListLive(roomID uuid.UUID) ([]model.Photo, error)
	Delete(id uuid.UUID) error
	FindExpired(now time.Time) ([]model.Photo, error)
}

// ObjectStorage holds photo payloads; metadata stays in the database
type ObjectStorage interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// membershipChecker is the slice of RoomService the photo store depends on
type membershipChecker interface {
	IsMember(roomID, userID uuid.UUID) (bool, error)
	Get(roomID uuid.UUID) (*model.Room, error)
}

// PhotoService implements the ephemeral photo store: at most three live
// photos per room, one hour of life each, payloads in object storage.
// Both invariants are enforced here, server-side, not advised client-side.
type PhotoService struct {
	photos    PhotoRepo
	storage   ObjectStorage
	rooms     membershipChecker
	publisher RoomPublisher
}

func NewPhotoService(photos PhotoRepo, storage ObjectStorage, rooms membershipChecker, publisher RoomPublisher) *PhotoService {
	return &PhotoService{
		photos:    photos,
		storage:   storage,
		rooms:     rooms,
		publisher: publisher,
	}
}

// ValidatePhoto rejects payloads that are not images or exceed the size
// limit. Runs before anything touches the database or object storage.
func ValidatePhoto(mimeType string, size int64) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return ErrPhotoBadType
	}
	if size > model.MaxPhotoSize {
		return ErrPhotoTooLarge
	}
	return nil
}

// Upload stores a new photo for the room. The payload goes to object
// storage, the metadata row is inserted under the live-photo cap, and the
// expiry is fixed at upload time plus one hour.
func (s *PhotoService) Upload(ctx context.Context, roomID, userID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*model.Photo, error) {
	if err := s.requireMember(roomID, userID); err != nil {
		return nil, err
	}

	mimeType := header.Header.Get("Content-Type")
	if err := ValidatePhoto(mimeType, header.Size); err != nil {
		return nil, err
	}

	photoID := uuid.New()
	key := fmt.Sprintf("rooms/%s/photos/%s", roomID, photoID)

	url, err := s.storage.Put(ctx, key, file, header.Size, mimeType)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	photo := &model.Photo{
		ID:         photoID,
		RoomID:     roomID,
		UploaderID: userID,
		ObjectKey:  key,
		URL:        url,
		FileName:   header.Filename,
		MimeType:   mimeType,
		SizeBytes:  header.Size,
		UploadedAt: now,
		ExpiresAt:  now.Add(model.PhotoTTL),
	}

	created, err := s.photos.CreateCapped(photo, model.MaxLivePhotos)
	if err != nil {
		_ = s.storage.Remove(ctx, key)
		return nil, err
	}
	if !created {
		_ = s.storage.Remove(ctx, key)
		return nil, ErrPhotoCapReached
	}

	log.Printf("[photo] uploaded photo=%s room=%s size=%d", photo.ID, roomID, photo.SizeBytes)
	s.notifyRoom(roomID)
	return photo, nil
}

// List returns the room's live (unexpired) photos
func (s *PhotoService) List(roomID, userID uuid.UUID) ([]model.Photo, error) {
	if err := s.requireMember(roomID, userID); err != nil {
		return nil, err
	}
	return s.photos.ListLive(roomID)
}

// Remove deletes a photo on explicit user action
func (s *PhotoService) Remove(ctx context.Context, roomID, photoID, userID uuid.UUID) error {
	if err := s.requireMember(roomID, userID); err != nil {
		return err
	}

	photo, err := s.photos.FindByID(photoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPhotoNotFound
		}
		return err
	}
	if photo.RoomID != roomID {
		return ErrPhotoNotFound
	}

	if err := s.photos.Delete(photoID); err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, photo.ObjectKey); err != nil {
		// row is gone; a dangling object is the janitor's problem, not the user's
		log.Printf("[photo] failed to remove object key=%s: %v", photo.ObjectKey, err)
	}

	log.Printf("[photo] removed photo=%s room=%s", photoID, roomID)
	s.notifyRoom(roomID)
	return nil
}

// SweepExpired deletes every photo past its expiry and returns how many
// were removed. Called by the janitor on an interval.
func (s *PhotoService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.photos.FindExpired(now)
	if err != nil {
		return 0, err
	}

	swept := 0
	touched := map[uuid.UUID]bool{}
	for _, photo := range expired {
		if err := s.photos.Delete(photo.ID); err != nil {
			log.Printf("[photo] sweep failed for photo=%s: %v", photo.ID, err)
			continue
		}
		if err := s.storage.Remove(ctx, photo.ObjectKey); err != nil {
			log.Printf("[photo] sweep failed to remove object key=%s: %v", photo.ObjectKey, err)
		}
		swept++
		touched[photo.RoomID] = true
	}

	for roomID := range touched {
		s.notifyRoom(roomID)
	}
	return swept, nil
}

func (s *PhotoService) requireMember(roomID, userID uuid.UUID) error {
	ok, err := s.rooms.IsMember(roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.rooms.Get(roomID); err != nil {
			return err
		}
		return ErrNotMember
	}
	return nil
}

// notifyRoom pushes a fresh snapshot so gallery views refresh live
func (s *PhotoService) notifyRoom(roomID uuid.UUID) {
	if s.publisher == nil || s.rooms == nil {
		return
	}
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return
	}
	s.publisher.SendToUsers(room.MemberIDs(), &model.WSEvent{
		Type:    model.WSEventRoomUpdated,
		Payload: room.ToSnapshot(),
	})
}
