package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type memPhotoRepo struct {
	photos map[uuid.UUID]*model.Photo
}

func newMemPhotoRepo() *memPhotoRepo {
	return &memPhotoRepo{photos: map[uuid.UUID]*model.Photo{}}
}

func (r *memPhotoRepo) CreateCapped(photo *model.Photo, limit int) (bool, error) {
	live := 0
	now := time.Now()
	for _, p := range r.photos {
		if p.RoomID == photo.RoomID && p.ExpiresAt.After(now) {
			live++
		}
	}
	if live >= limit {
		return false, nil
	}
	r.photos[photo.ID] = photo
	return true, nil
}

func (r *memPhotoRepo) FindByID(id uuid.UUID) (*model.Photo, error) {
	p, ok := r.photos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *memPhotoRepo) ListLive(roomID uuid.UUID) ([]model.Photo, error) {
	now := time.Now()
	var out []model.Photo
	for _, p := range r.photos {
		if p.RoomID == roomID && p.ExpiresAt.After(now) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memPhotoRepo) Delete(id uuid.UUID) error {
	delete(r.photos, id)
	return nil
}

func (r *memPhotoRepo) FindExpired(now time.Time) ([]model.Photo, error) {
	var out []model.Photo
	for _, p := range r.photos {
		if !p.ExpiresAt.After(now) {
			out = append(out, *p)
		}
	}
	return out, nil
}

type memStorage struct {
	objects map[string][]byte
	removed []string
	putErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "http://storage.local/" + key, nil
}

func (s *memStorage) Remove(ctx context.Context, key string) error {
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

// singleRoom satisfies the membership surface with one fixed room
type singleRoom struct {
	room *model.Room
}

func (s *singleRoom) IsMember(roomID, userID uuid.UUID) (bool, error) {
	if roomID != s.room.ID {
		return false, nil
	}
	return s.room.HasMember(userID), nil
}

func (s *singleRoom) Get(roomID uuid.UUID) (*model.Room, error) {
	if roomID != s.room.ID {
		return nil, ErrRoomNotFound
	}
	return s.room, nil
}

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func photoUpload(name, contentType string, size int) (multipart.File, *multipart.FileHeader) {
	payload := bytes.Repeat([]byte{0x42}, size)
	header := &multipart.FileHeader{
		Filename: name,
		Header:   textproto.MIMEHeader{"Content-Type": []string{contentType}},
		Size:     int64(size),
	}
	return memFile{bytes.NewReader(payload)}, header
}

func newTestPhotoService() (*PhotoService, *memPhotoRepo, *memStorage, *fakePublisher, *model.Room, uuid.UUID) {
	member := uuid.New()
	room := &model.Room{
		ID:      uuid.New(),
		Name:    "Our Place",
		Members: []model.RoomMember{{UserID: member}},
	}
	repo := newMemPhotoRepo()
	storage := newMemStorage()
	pub := &fakePublisher{}
	svc := NewPhotoService(repo, storage, &singleRoom{room: room}, pub)
	return svc, repo, storage, pub, room, member
}

func TestValidatePhoto(t *testing.T) {
	cases := []struct {
		name     string
		mimeType string
		size     int64
		want     error
	}{
		{"jpeg ok", "image/jpeg", 1024, nil},
		{"png at limit", "image/png", model.MaxPhotoSize, nil},
		{"too large", "image/jpeg", model.MaxPhotoSize + 1, ErrPhotoTooLarge},
		{"not an image", "text/plain", 10, ErrPhotoBadType},
		{"video rejected", "video/mp4", 10, ErrPhotoBadType},
		{"empty type", "", 10, ErrPhotoBadType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidatePhoto(tc.mimeType, tc.size); !errors.Is(err, tc.want) {
				t.Errorf("ValidatePhoto(%q, %d) = %v, want %v", tc.mimeType, tc.size, err, tc.want)
			}
		})
	}
}

func TestUploadStoresPayloadAndFixesExpiry(t *testing.T) {
	svc, repo, storage, pub, room, member := newTestPhotoService()

	file, header := photoUpload("sunset.jpg", "image/jpeg", 2048)
	photo, err := svc.Upload(context.Background(), room.ID, member, file, header)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if got := photo.ExpiresAt.Sub(photo.UploadedAt); got != model.PhotoTTL {
		t.Errorf("lifetime = %v, want %v", got, model.PhotoTTL)
	}
	wantKey := fmt.Sprintf("rooms/%s/photos/%s", room.ID, photo.ID)
	if photo.ObjectKey != wantKey {
		t.Errorf("object key = %q, want %q", photo.ObjectKey, wantKey)
	}
	if len(storage.objects[wantKey]) != 2048 {
		t.Errorf("stored payload = %d bytes", len(storage.objects[wantKey]))
	}
	if _, ok := repo.photos[photo.ID]; !ok {
		t.Error("metadata row missing")
	}
	if got := pub.eventsFor(member, model.WSEventRoomUpdated); len(got) == 0 {
		t.Error("no snapshot after the upload")
	}
}

func TestUploadAtCapRemovesOrphanObject(t *testing.T) {
	svc, repo, storage, _, room, member := newTestPhotoService()

	for i := 0; i < model.MaxLivePhotos; i++ {
		file, header := photoUpload("pic.jpg", "image/jpeg", 64)
		if _, err := svc.Upload(context.Background(), room.ID, member, file, header); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}

	file, header := photoUpload("one-too-many.jpg", "image/jpeg", 64)
	_, err := svc.Upload(context.Background(), room.ID, member, file, header)
	if !errors.Is(err, ErrPhotoCapReached) {
		t.Fatalf("err = %v, want ErrPhotoCapReached", err)
	}

	if len(repo.photos) != model.MaxLivePhotos {
		t.Errorf("rows = %d, want %d", len(repo.photos), model.MaxLivePhotos)
	}
	// the rejected payload must not linger in object storage
	if len(storage.objects) != model.MaxLivePhotos {
		t.Errorf("objects = %d, want %d", len(storage.objects), model.MaxLivePhotos)
	}
	if len(storage.removed) != 1 {
		t.Errorf("removed = %v, want exactly the orphan", storage.removed)
	}
}

func TestUploadRejectsBeforeTouchingStorage(t *testing.T) {
	svc, _, storage, _, room, member := newTestPhotoService()

	file, header := photoUpload("notes.txt", "text/plain", 64)
	if _, err := svc.Upload(context.Background(), room.ID, member, file, header); !errors.Is(err, ErrPhotoBadType) {
		t.Fatalf("err = %v, want ErrPhotoBadType", err)
	}

	file, header = photoUpload("huge.jpg", "image/jpeg", 64)
	header.Size = model.MaxPhotoSize + 1
	if _, err := svc.Upload(context.Background(), room.ID, member, file, header); !errors.Is(err, ErrPhotoTooLarge) {
		t.Fatalf("err = %v, want ErrPhotoTooLarge", err)
	}

	if len(storage.objects) != 0 {
		t.Errorf("rejected uploads reached storage: %v", storage.objects)
	}
}

func TestUploadByNonMember(t *testing.T) {
	svc, repo, _, _, room, _ := newTestPhotoService()

	file, header := photoUpload("pic.jpg", "image/jpeg", 64)
	if _, err := svc.Upload(context.Background(), room.ID, uuid.New(), file, header); !errors.Is(err, ErrNotMember) {
		t.Fatalf("err = %v, want ErrNotMember", err)
	}
	if len(repo.photos) != 0 {
		t.Error("stranger's photo was stored")
	}
}

func TestRemovePhotoFromAnotherRoom(t *testing.T) {
	svc, repo, _, _, room, member := newTestPhotoService()

	foreign := &model.Photo{
		ID:        uuid.New(),
		RoomID:    uuid.New(),
		ObjectKey: "rooms/other/photos/x",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	repo.photos[foreign.ID] = foreign

	err := svc.Remove(context.Background(), room.ID, foreign.ID, member)
	if !errors.Is(err, ErrPhotoNotFound) {
		t.Fatalf("err = %v, want ErrPhotoNotFound", err)
	}
	if _, ok := repo.photos[foreign.ID]; !ok {
		t.Error("foreign photo was deleted")
	}
}

func TestSweepExpired(t *testing.T) {
	svc, repo, storage, pub, room, member := newTestPhotoService()
	now := time.Now()

	live := &model.Photo{ID: uuid.New(), RoomID: room.ID, ObjectKey: "k/live", ExpiresAt: now.Add(30 * time.Minute)}
	old1 := &model.Photo{ID: uuid.New(), RoomID: room.ID, ObjectKey: "k/old1", ExpiresAt: now.Add(-time.Minute)}
	old2 := &model.Photo{ID: uuid.New(), RoomID: room.ID, ObjectKey: "k/old2", ExpiresAt: now.Add(-time.Hour)}
	for _, p := range []*model.Photo{live, old1, old2} {
		repo.photos[p.ID] = p
		storage.objects[p.ObjectKey] = []byte{1}
	}

	swept, err := svc.SweepExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if swept != 2 {
		t.Errorf("swept = %d, want 2", swept)
	}
	if _, ok := repo.photos[live.ID]; !ok {
		t.Error("live photo was swept")
	}
	if _, ok := repo.photos[old1.ID]; ok {
		t.Error("expired photo survived the sweep")
	}
	if _, ok := storage.objects["k/old2"]; ok {
		t.Error("expired object survived the sweep")
	}
	if got := pub.eventsFor(member, model.WSEventRoomUpdated); len(got) != 1 {
		t.Errorf("snapshots after sweep = %d, want 1", len(got))
	}
}
