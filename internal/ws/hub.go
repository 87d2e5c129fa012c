package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisChannel = "close:events"

// Hub manages WebSocket connections and delivers room events and relay
// notifications to connected users. Events go through Redis Pub/Sub so any
// instance can reach a user connected elsewhere.
type Hub struct {
	// userID -> set of client connections (one user can have several tabs/devices)
	clients map[uuid.UUID]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	rdb *redis.Client
}

// NewHub creates a new WebSocket Hub
func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rdb:        rdb,
	}
}

// Run starts the Hub's main event loop
func (h *Hub) Run(ctx context.Context) {
	go h.subscribeRedis(ctx)

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register queues a client for registration with the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.UserID]; !ok {
		h.clients[client.UserID] = make(map[*Client]bool)
	}
	h.clients[client.UserID][client] = true
	log.Printf("[ws] client connected: %s (connections: %d)", client.UserID, len(h.clients[client.UserID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.UserID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.clients, client.UserID)
			}
		}
	}
	log.Printf("[ws] client disconnected: %s", client.UserID)
}

// SendToUser sends an event to a specific user (all their connections, on
// every instance). Room-scoped events only reach connections currently
// subscribed to that room.
func (h *Hub) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	h.publishToRedis(&TargetedEvent{
		TargetUserID: userID,
		RoomID:       roomScope(event),
		Event:        event,
	})
}

// SendToUsers sends an event to multiple users
func (h *Hub) SendToUsers(userIDs []uuid.UUID, event *model.WSEvent) {
	for _, userID := range userIDs {
		h.SendToUser(userID, event)
	}
}

// sendToLocalUser delivers an event to a user's connections on this
// instance. A non-nil roomID restricts delivery to connections subscribed
// to that room, so unsubscribing genuinely stops the feed.
func (h *Hub) sendToLocalUser(userID, roomID uuid.UUID, event *model.WSEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] error marshaling event: %v", err)
		return
	}
	for client := range clients {
		if roomID != uuid.Nil && !client.IsSubscribed(roomID) {
			continue
		}
		select {
		case client.send <- data:
		default:
			// send buffer full, drop the connection
			close(client.send)
			delete(clients, client)
		}
	}
}

// roomScope extracts the room an event belongs to, or uuid.Nil for events
// that are not tied to a room subscription
func roomScope(event *model.WSEvent) uuid.UUID {
	switch p := event.Payload.(type) {
	case model.RoomSnapshot:
		return p.ID
	case model.RoomDeletedEvent:
		return p.RoomID
	case model.PingEvent:
		return p.RoomID
	case *model.Notification:
		return p.RoomID
	case model.Notification:
		return p.RoomID
	}
	return uuid.Nil
}

// ========== Redis Pub/Sub ==========

// TargetedEvent wraps an event with its target user and room scope for
// Redis Pub/Sub. The scope rides along because the payload is opaque JSON
// by the time a subscriber instance sees it.
type TargetedEvent struct {
	TargetUserID uuid.UUID      `json:"target_user_id"`
	RoomID       uuid.UUID      `json:"room_id,omitempty"`
	Event        *model.WSEvent `json:"event"`
}

func (h *Hub) publishToRedis(data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[ws] error marshaling for Redis: %v", err)
		return
	}

	if err := h.rdb.Publish(context.Background(), redisChannel, jsonData).Err(); err != nil {
		log.Printf("[ws] error publishing to Redis: %v", err)
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Println("[ws] Redis Pub/Sub subscriber started")

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			var targeted TargetedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &targeted); err != nil {
				log.Printf("[ws] error unmarshaling Redis message: %v", err)
				continue
			}
			if targeted.TargetUserID != uuid.Nil && targeted.Event != nil {
				h.sendToLocalUser(targeted.TargetUserID, targeted.RoomID, targeted.Event)
			}
		}
	}
}
