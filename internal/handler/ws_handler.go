package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/closehq/close-api/internal/model"
	"github.com/closehq/close-api/internal/repository"
	"github.com/closehq/close-api/internal/service"
	"github.com/closehq/close-api/internal/ws"
	"github.com/closehq/close-api/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, validate origin
	},
}

// WSHandler handles WebSocket connections: the live room subscription feed
// and relay notification delivery/acks
type WSHandler struct {
	hub           *ws.Hub
	roomService   *service.RoomService
	notifications *repository.NotificationRepository
	jwtManager    *auth.JWTManager
}

func NewWSHandler(hub *ws.Hub, roomService *service.RoomService, notifications *repository.NotificationRepository, jwtManager *auth.JWTManager) *WSHandler {
	return &WSHandler{
		hub:           hub,
		roomService:   roomService,
		notifications: notifications,
		jwtManager:    jwtManager,
	}
}

// HandleWebSocket upgrades HTTP to WebSocket and manages the connection.
// Client connects with: ws://host/ws?token=<jwt_token>
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	// Authenticate via query parameter (WebSocket can't use Authorization header)
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
		return
	}

	claims, err := h.jwtManager.ValidateToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump(h.handleWSMessage)
}

// handleWSMessage processes incoming WebSocket messages from clients
func (h *WSHandler) handleWSMessage(client *ws.Client, event model.WSEvent) {
	switch event.Type {
	case model.WSEventSubscribeRoom:
		h.handleSubscribeRoom(client, event)

	case model.WSEventUnsubscribeRoom:
		h.handleUnsubscribeRoom(client, event)

	case model.WSEventNotificationAck:
		h.handleNotificationAck(client, event)

	default:
		log.Printf("[ws] unknown event type: %s", event.Type)
	}
}

// handleSubscribeRoom starts the live room feed for this connection: the
// current snapshot immediately, then any relay notifications the user
// missed while disconnected
func (h *WSHandler) handleSubscribeRoom(client *ws.Client, event model.WSEvent) {
	var payload model.SubscribeRoomEvent
	if !decodePayload(event, &payload) {
		return
	}

	isMember, err := h.roomService.IsMember(payload.RoomID, client.UserID)
	if err != nil || !isMember {
		return
	}

	client.SubscribeRoom(payload.RoomID)

	room, err := h.roomService.Get(payload.RoomID)
	if err != nil {
		return
	}
	client.Send(&model.WSEvent{
		Type:    model.WSEventRoomUpdated,
		Payload: room.ToSnapshot(),
	})

	// replay undelivered relay notifications (at-least-once)
	pending, err := h.notifications.FindUndelivered(payload.RoomID, client.UserID)
	if err != nil {
		log.Printf("[ws] failed to load pending notifications: %v", err)
		return
	}
	for i := range pending {
		client.Send(&model.WSEvent{
			Type:    model.WSEventNotification,
			Payload: pending[i],
		})
	}
}

func (h *WSHandler) handleUnsubscribeRoom(client *ws.Client, event model.WSEvent) {
	var payload model.SubscribeRoomEvent
	if !decodePayload(event, &payload) {
		return
	}
	client.UnsubscribeRoom(payload.RoomID)
}

// handleNotificationAck marks a relay record delivered once a client has
// shown it
func (h *WSHandler) handleNotificationAck(client *ws.Client, event model.WSEvent) {
	var payload model.NotificationAckEvent
	if !decodePayload(event, &payload) {
		return
	}
	if err := h.notifications.MarkDelivered(payload.NotificationID); err != nil {
		log.Printf("[ws] failed to mark notification delivered: %v", err)
	}
}

func decodePayload(event model.WSEvent, out interface{}) bool {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(payloadBytes, out); err != nil {
		log.Printf("[ws] error parsing %s payload: %v", event.Type, err)
		return false
	}
	return true
}
