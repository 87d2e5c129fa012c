package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
)

// Dispatch channel names as they appear in outcome logs
const (
	ChannelPush  = "push"
	ChannelRelay = "relay"
	ChannelEcho  = "echo"
)

const dispatchTimeout = 10 * time.Second

// PushSender delivers a notification to one device token and returns the
// provider message ID
type PushSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (string, error)
}

// NotificationStore persists relay records for listener-observed delivery
type NotificationStore interface {
	Create(n *model.Notification) error
}

// ChannelOutcome records how one delivery channel fared for one ping
type ChannelOutcome struct {
	Channel string
	Targets int
	Err     error
}

// NotificationDispatcher fans a recorded ping out through three independent
// best-effort channels: platform push, a persisted relay record delivered to
// connected clients, and an immediate echo back to the sender. Channels run
// concurrently, none blocks or fails another, and no deduplication is
// attempted across them — a connected partner with a registered device may
// see the ping twice. The ping itself was durable before this code runs.
type NotificationDispatcher struct {
	push      PushSender
	relay     NotificationStore
	publisher RoomPublisher

	// onOutcome receives per-channel results; tests hook it, production
	// leaves it nil and outcomes are only logged
	onOutcome func(pingID uuid.UUID, outcomes []ChannelOutcome)
}

func NewNotificationDispatcher(push PushSender, relay NotificationStore, publisher RoomPublisher) *NotificationDispatcher {
	return &NotificationDispatcher{
		push:      push,
		relay:     relay,
		publisher: publisher,
	}
}

// DispatchPing runs the three channels concurrently and aggregates their
// outcomes. Returns immediately; delivery happens in the background.
func (d *NotificationDispatcher) DispatchPing(room *model.Room, ping *model.Ping) {
	title := "💖 Your person is thinking of you!"
	body := fmt.Sprintf("Someone just sent you love through %s", room.Name)
	data := map[string]string{
		"type":     "ping",
		"roomId":   room.ID.String(),
		"url":      "/?room=" + room.ID.String(),
		"fromUser": ping.FromUserID.String(),
	}

	partnerTokens := PartnerTokens(room.Members, ping.FromUserID)
	partnerIDs := PartnerIDs(room.Members, ping.FromUserID)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			outcomes []ChannelOutcome
		)
		report := func(o ChannelOutcome) {
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
		}

		wg.Add(3)
		go func() {
			defer wg.Done()
			report(d.sendPush(ctx, partnerTokens, title, body, data))
		}()
		go func() {
			defer wg.Done()
			report(d.writeRelay(room, ping, partnerIDs, title, body, data))
		}()
		go func() {
			defer wg.Done()
			report(d.echoToSender(room, ping))
		}()
		wg.Wait()

		for _, o := range outcomes {
			if o.Err != nil {
				log.Printf("[dispatch] ping=%s channel=%s targets=%d err=%v", ping.ID, o.Channel, o.Targets, o.Err)
			} else {
				log.Printf("[dispatch] ping=%s channel=%s targets=%d ok", ping.ID, o.Channel, o.Targets)
			}
		}
		if d.onOutcome != nil {
			d.onOutcome(ping.ID, outcomes)
		}
	}()
}

// sendPush pushes to each partner device via the messaging provider.
// Invalid or expired tokens fail silently beyond the outcome log.
func (d *NotificationDispatcher) sendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) ChannelOutcome {
	out := ChannelOutcome{Channel: ChannelPush, Targets: len(tokens)}
	if d.push == nil {
		out.Err = fmt.Errorf("push sender not configured")
		return out
	}
	if len(tokens) == 0 {
		return out
	}
	for _, token := range tokens {
		if _, err := d.push.Send(ctx, token, title, body, data); err != nil && out.Err == nil {
			out.Err = err
		}
	}
	return out
}

// writeRelay persists one relay record per partner and nudges their
// connected clients over the websocket
func (d *NotificationDispatcher) writeRelay(room *model.Room, ping *model.Ping, partnerIDs []uuid.UUID, title, body string, data map[string]string) ChannelOutcome {
	out := ChannelOutcome{Channel: ChannelRelay, Targets: len(partnerIDs)}
	if d.relay == nil {
		out.Err = fmt.Errorf("relay store not configured")
		return out
	}
	for _, target := range partnerIDs {
		n := &model.Notification{
			ID:           uuid.New(),
			RoomID:       room.ID,
			TargetUserID: target,
			Title:        title,
			Body:         body,
			Data:         model.DataBag(data),
			CreatedAt:    time.Now(),
		}
		if err := d.relay.Create(n); err != nil {
			if out.Err == nil {
				out.Err = err
			}
			continue
		}
		if d.publisher != nil {
			d.publisher.SendToUser(target, &model.WSEvent{
				Type:    model.WSEventNotification,
				Payload: n,
			})
		}
	}
	return out
}

// echoToSender gives the sender immediate feedback on their own devices,
// independent of whether the partner receives anything
func (d *NotificationDispatcher) echoToSender(room *model.Room, ping *model.Ping) ChannelOutcome {
	out := ChannelOutcome{Channel: ChannelEcho, Targets: 1}
	if d.publisher == nil {
		out.Err = fmt.Errorf("publisher not configured")
		return out
	}
	d.publisher.SendToUser(ping.FromUserID, &model.WSEvent{
		Type: model.WSEventPing,
		Payload: model.PingEvent{
			RoomID:   room.ID,
			RoomName: room.Name,
			From:     ping.FromUserID,
			PingID:   ping.ID,
		},
	})
	return out
}
