package model

import "github.com/google/uuid"

// ========== Auth DTOs ==========

type GuestLoginRequest struct {
	Name string `json:"name" binding:"max=100"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ========== Room DTOs ==========

type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1"`
	FCMToken string `json:"fcm_token"` // optional device token for push
}

type JoinRoomRequest struct {
	Password string `json:"password" binding:"required"`
	FCMToken string `json:"fcm_token"`
}

type RoomResponse struct {
	Success bool         `json:"success"`
	Room    RoomSnapshot `json:"room"`
}

type UpdateEmojiRequest struct {
	Emoji string `json:"emoji" binding:"required,max=20"`
}

type UpdatePhotoRequest struct {
	PhotoURL string `json:"photo_url" binding:"required,max=1000"`
}

type SetTokenRequest struct {
	FCMToken string `json:"fcm_token" binding:"required"`
}

type PingResponse struct {
	Success bool `json:"success"`
	Ping    Ping `json:"ping"`
}

// ========== Photo DTOs ==========

type PhotoListResponse struct {
	Success bool    `json:"success"`
	Photos  []Photo `json:"photos"`
}

// ========== Notification DTOs ==========

// SendNotificationRequest is the body of POST /api/send-notification
type SendNotificationRequest struct {
	Token string  `json:"token"`
	Title string  `json:"title"`
	Body  string  `json:"body"`
	Data  DataBag `json:"data"`
}

// SendNotificationResponse is the success shape of POST /api/send-notification
type SendNotificationResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// SendNotificationFallback signals the caller to show a client-side
// notification because the push channel could not deliver
type SendNotificationFallback struct {
	Success                         bool   `json:"success"`
	Error                           string `json:"error"`
	ShouldTriggerClientNotification bool   `json:"shouldTriggerClientNotification"`
}

// ========== WebSocket Event DTOs ==========

type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types
const (
	// client -> server
	WSEventSubscribeRoom   = "subscribe_room"
	WSEventUnsubscribeRoom = "unsubscribe_room"
	WSEventNotificationAck = "notification_ack"

	// server -> client
	WSEventRoomUpdated  = "room_updated"
	WSEventRoomDeleted  = "room_deleted"
	WSEventPing         = "ping"
	WSEventNotification = "notification"
)

type SubscribeRoomEvent struct {
	RoomID uuid.UUID `json:"room_id"`
}

type NotificationAckEvent struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

type RoomDeletedEvent struct {
	RoomID uuid.UUID `json:"room_id"`
}

type PingEvent struct {
	RoomID   uuid.UUID `json:"room_id"`
	RoomName string    `json:"room_name"`
	From     uuid.UUID `json:"from"`
	PingID   uuid.UUID `json:"ping_id"`
}

// ========== Common ==========

type ErrorResponse struct {
	Success bool   `json:"success"` // always false
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"` // always true
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
