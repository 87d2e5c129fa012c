package service

import (
	"errors"
	"log"
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RoomRepo is the data access surface the room service needs
type RoomRepo interface {
	Create(room *model.Room) error
	FindByID(id uuid.UUID) (*model.Room, error)
	JoinLocked(roomID uuid.UUID, fn func(tx *gorm.DB, room *model.Room) error) error
	AddMember(tx *gorm.DB, member *model.RoomMember) error
	RemoveMember(roomID, userID uuid.UUID) error
	CountMembers(roomID uuid.UUID) (int64, error)
	IsMember(roomID, userID uuid.UUID) (bool, error)
	UpdateFields(roomID uuid.UUID, fields map[string]interface{}) error
	TouchActivity(roomID uuid.UUID) error
	SetMemberToken(tx *gorm.DB, roomID, userID uuid.UUID, token string) error
	AppendPing(ping *model.Ping) error
	Delete(roomID uuid.UUID) error
}

// RoomPublisher delivers live room events to connected members
type RoomPublisher interface {
	SendToUser(userID uuid.UUID, event *model.WSEvent)
	SendToUsers(userIDs []uuid.UUID, event *model.WSEvent)
}

// Dispatcher fans a recorded ping out to the notification channels
type Dispatcher interface {
	DispatchPing(room *model.Room, ping *model.Ping)
}

// RoomService implements the room lifecycle: create, join, leave, shared
// mood/photo updates and pings. Every mutation pushes a fresh snapshot to
// the room's subscribers.
type RoomService struct {
	rooms      RoomRepo
	publisher  RoomPublisher
	dispatcher Dispatcher
}

func NewRoomService(rooms RoomRepo, publisher RoomPublisher, dispatcher Dispatcher) *RoomService {
	return &RoomService{
		rooms:      rooms,
		publisher:  publisher,
		dispatcher: dispatcher,
	}
}

// Create opens a new room with the creator as its sole member
func (s *RoomService) Create(name, password string, creatorID uuid.UUID, fcmToken string) (*model.Room, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room := &model.Room{
		ID:           uuid.New(),
		Name:         name,
		PasswordHash: string(hash),
		CurrentEmoji: model.DefaultEmoji,
		LastActivity: now,
		Members: []model.RoomMember{
			{
				ID:       uuid.New(),
				UserID:   creatorID,
				FCMToken: fcmToken,
				JoinedAt: now,
			},
		},
	}
	for i := range room.Members {
		room.Members[i].RoomID = room.ID
	}

	if err := s.rooms.Create(room); err != nil {
		return nil, err
	}

	log.Printf("[room] created room=%s creator=%s", room.ID, creatorID)
	return room, nil
}

// Join validates the password and adds the user under the membership cap.
// A user who already belongs to the room rejoins idempotently; their device
// token is refreshed in passing. The cap check runs under a row lock so two
// concurrent joins cannot both slip in at member-count 1.
func (s *RoomService) Join(roomID uuid.UUID, password string, userID uuid.UUID, fcmToken string) (*model.Room, error) {
	err := s.rooms.JoinLocked(roomID, func(tx *gorm.DB, room *model.Room) error {
		if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)) != nil {
			return ErrInvalidPassword
		}

		if room.HasMember(userID) {
			// rejoin: nothing to add, refresh the token if one was offered
			if fcmToken != "" {
				return s.rooms.SetMemberToken(tx, roomID, userID, fcmToken)
			}
			return nil
		}

		if len(room.Members) >= model.MaxRoomMembers {
			return ErrRoomFull
		}

		return s.rooms.AddMember(tx, &model.RoomMember{
			ID:       uuid.New(),
			RoomID:   roomID,
			UserID:   userID,
			FCMToken: fcmToken,
			JoinedAt: time.Now(),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	_ = s.rooms.TouchActivity(roomID)

	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		return nil, err
	}

	log.Printf("[room] user=%s joined room=%s members=%d", userID, roomID, len(room.Members))
	s.publishSnapshot(room)
	return room, nil
}

// Get returns a room with members and recent ping history
func (s *RoomService) Get(roomID uuid.UUID) (*model.Room, error) {
	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// Preview returns the public view used by the share-URL join form
func (s *RoomService) Preview(roomID uuid.UUID) (*model.RoomPreview, error) {
	room, err := s.Get(roomID)
	if err != nil {
		return nil, err
	}
	return &model.RoomPreview{
		ID:          room.ID,
		Name:        room.Name,
		MemberCount: len(room.Members),
		IsFull:      len(room.Members) >= model.MaxRoomMembers,
	}, nil
}

// UpdateEmoji sets the shared mood emoji
func (s *RoomService) UpdateEmoji(roomID, userID uuid.UUID, emoji string) (*model.Room, error) {
	return s.updateField(roomID, userID, "current_emoji", emoji)
}

// UpdatePhoto sets the legacy shared photo pointer
func (s *RoomService) UpdatePhoto(roomID, userID uuid.UUID, photoURL string) (*model.Room, error) {
	return s.updateField(roomID, userID, "current_photo_url", photoURL)
}

func (s *RoomService) updateField(roomID, userID uuid.UUID, column, value string) (*model.Room, error) {
	if err := s.requireMember(roomID, userID); err != nil {
		return nil, err
	}
	if err := s.rooms.UpdateFields(roomID, map[string]interface{}{column: value}); err != nil {
		return nil, err
	}
	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		return nil, err
	}
	s.publishSnapshot(room)
	return room, nil
}

// Leave removes the user's membership (their token goes with the row).
// When the last member walks out the room is deleted and subscribers are
// told it is gone.
func (s *RoomService) Leave(roomID, userID uuid.UUID) error {
	if err := s.requireMember(roomID, userID); err != nil {
		return err
	}

	if err := s.rooms.RemoveMember(roomID, userID); err != nil {
		return err
	}
	log.Printf("[room] user=%s left room=%s", userID, roomID)

	remaining, err := s.rooms.CountMembers(roomID)
	if err != nil {
		return err
	}
	if remaining == 0 {
		if err := s.rooms.Delete(roomID); err != nil {
			return err
		}
		log.Printf("[room] deleted empty room=%s", roomID)
		if s.publisher != nil {
			s.publisher.SendToUser(userID, &model.WSEvent{
				Type:    model.WSEventRoomDeleted,
				Payload: model.RoomDeletedEvent{RoomID: roomID},
			})
		}
		return nil
	}

	room, err := s.rooms.FindByID(roomID)
	if err != nil {
		return err
	}
	s.publishSnapshot(room)
	return nil
}

// SendPing records a ping and hands it to the notification dispatcher.
// The append is the only thing that can fail the call: once the ping is
// durable, notification delivery is best-effort and asynchronous.
func (s *RoomService) SendPing(roomID, fromUserID uuid.UUID) (*model.Ping, error) {
	room, err := s.Get(roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasMember(fromUserID) {
		return nil, ErrNotMember
	}

	ping := &model.Ping{
		ID:         uuid.New(),
		RoomID:     roomID,
		FromUserID: fromUserID,
		CreatedAt:  time.Now(),
	}
	if err := s.rooms.AppendPing(ping); err != nil {
		return nil, err
	}
	_ = s.rooms.TouchActivity(roomID)

	// record first, notify best-effort: from here on nothing can undo the ping
	if s.dispatcher != nil {
		s.dispatcher.DispatchPing(room, ping)
	}

	if fresh, err := s.rooms.FindByID(roomID); err == nil {
		s.publishSnapshot(fresh)
	}
	return ping, nil
}

// SetMemberToken keeps a member's push-delivery token current
func (s *RoomService) SetMemberToken(roomID, userID uuid.UUID, token string) error {
	if token == "" {
		return ErrMissingToken
	}
	if err := s.rooms.SetMemberToken(nil, roomID, userID, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		return err
	}
	return nil
}

// IsMember reports room membership for access checks by other services
func (s *RoomService) IsMember(roomID, userID uuid.UUID) (bool, error) {
	return s.rooms.IsMember(roomID, userID)
}

func (s *RoomService) requireMember(roomID, userID uuid.UUID) error {
	ok, err := s.rooms.IsMember(roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		// distinguish a missing room from a non-member
		if _, err := s.Get(roomID); err != nil {
			return err
		}
		return ErrNotMember
	}
	return nil
}

// publishSnapshot pushes the current room state to every member's
// connected clients
func (s *RoomService) publishSnapshot(room *model.Room) {
	if s.publisher == nil {
		return
	}
	s.publisher.SendToUsers(room.MemberIDs(), &model.WSEvent{
		Type:    model.WSEventRoomUpdated,
		Payload: room.ToSnapshot(),
	})
}
