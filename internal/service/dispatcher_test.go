package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
)

type fakePush struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakePush) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, token)
	if f.err != nil {
		return "", f.err
	}
	return "projects/close/messages/" + token, nil
}

func (f *fakePush) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.sent...)
}

type fakeStore struct {
	mu      sync.Mutex
	created []*model.Notification
	err     error
}

func (f *fakeStore) Create(n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

func (f *fakeStore) all() []*model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Notification{}, f.created...)
}

type sentEvent struct {
	userID uuid.UUID
	event  *model.WSEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []sentEvent
}

func (f *fakePublisher) SendToUser(userID uuid.UUID, event *model.WSEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{userID: userID, event: event})
}

func (f *fakePublisher) SendToUsers(userIDs []uuid.UUID, event *model.WSEvent) {
	for _, id := range userIDs {
		f.SendToUser(id, event)
	}
}

func (f *fakePublisher) eventsFor(userID uuid.UUID, eventType string) []*model.WSEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.WSEvent
	for _, e := range f.events {
		if e.userID == userID && e.event.Type == eventType {
			out = append(out, e.event)
		}
	}
	return out
}

func pairedRoom(sender, partner uuid.UUID) *model.Room {
	return &model.Room{
		ID:   uuid.New(),
		Name: "Us Two",
		Members: []model.RoomMember{
			{UserID: sender, FCMToken: "sender-device"},
			{UserID: partner, FCMToken: "partner-device"},
		},
	}
}

func dispatchAndWait(t *testing.T, d *NotificationDispatcher, room *model.Room, ping *model.Ping) []ChannelOutcome {
	t.Helper()

	done := make(chan []ChannelOutcome, 1)
	d.onOutcome = func(pingID uuid.UUID, outcomes []ChannelOutcome) {
		if pingID != ping.ID {
			t.Errorf("outcome for wrong ping: got %s want %s", pingID, ping.ID)
		}
		done <- outcomes
	}

	d.DispatchPing(room, ping)

	select {
	case outcomes := <-done:
		return outcomes
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not complete")
		return nil
	}
}

func outcomeFor(t *testing.T, outcomes []ChannelOutcome, channel string) ChannelOutcome {
	t.Helper()
	for _, o := range outcomes {
		if o.Channel == channel {
			return o
		}
	}
	t.Fatalf("no outcome for channel %s in %v", channel, outcomes)
	return ChannelOutcome{}
}

func TestDispatchPingFansOutAllChannels(t *testing.T) {
	sender := uuid.New()
	partner := uuid.New()
	room := pairedRoom(sender, partner)
	ping := &model.Ping{ID: uuid.New(), RoomID: room.ID, FromUserID: sender, CreatedAt: time.Now()}

	push := &fakePush{}
	store := &fakeStore{}
	pub := &fakePublisher{}
	d := NewNotificationDispatcher(push, store, pub)

	outcomes := dispatchAndWait(t, d, room, ping)
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 channel outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Err != nil {
			t.Errorf("channel %s failed: %v", o.Channel, o.Err)
		}
	}

	// push goes to the partner's device only, never back to the sender
	if got := push.tokens(); len(got) != 1 || got[0] != "partner-device" {
		t.Errorf("push targets = %v, want [partner-device]", got)
	}

	// one relay record for the partner carrying the ping data bag
	created := store.all()
	if len(created) != 1 {
		t.Fatalf("expected 1 relay record, got %d", len(created))
	}
	n := created[0]
	if n.TargetUserID != partner {
		t.Errorf("relay target = %s, want %s", n.TargetUserID, partner)
	}
	if n.Data["type"] != "ping" || n.Data["roomId"] != room.ID.String() {
		t.Errorf("relay data bag = %v", n.Data)
	}
	if n.Data["url"] != "/?room="+room.ID.String() {
		t.Errorf("relay url = %q", n.Data["url"])
	}

	// partner's connected clients are nudged, sender gets the echo
	if got := pub.eventsFor(partner, model.WSEventNotification); len(got) != 1 {
		t.Errorf("partner notification events = %d, want 1", len(got))
	}
	if got := pub.eventsFor(sender, model.WSEventPing); len(got) != 1 {
		t.Errorf("sender echo events = %d, want 1", len(got))
	}
}

func TestDispatchPingPushFailureDoesNotBlockOtherChannels(t *testing.T) {
	sender := uuid.New()
	partner := uuid.New()
	room := pairedRoom(sender, partner)
	ping := &model.Ping{ID: uuid.New(), RoomID: room.ID, FromUserID: sender}

	push := &fakePush{err: errors.New("registration-token-not-registered")}
	store := &fakeStore{}
	pub := &fakePublisher{}
	d := NewNotificationDispatcher(push, store, pub)

	outcomes := dispatchAndWait(t, d, room, ping)

	if o := outcomeFor(t, outcomes, ChannelPush); o.Err == nil {
		t.Error("push outcome should carry the provider error")
	}
	if o := outcomeFor(t, outcomes, ChannelRelay); o.Err != nil {
		t.Errorf("relay should be unaffected by the push failure: %v", o.Err)
	}
	if o := outcomeFor(t, outcomes, ChannelEcho); o.Err != nil {
		t.Errorf("echo should be unaffected by the push failure: %v", o.Err)
	}

	if len(store.all()) != 1 {
		t.Error("relay record should have been written despite the push failure")
	}
	if got := pub.eventsFor(sender, model.WSEventPing); len(got) != 1 {
		t.Error("sender echo should have been delivered despite the push failure")
	}
}

func TestDispatchPingWithoutPushSender(t *testing.T) {
	sender := uuid.New()
	partner := uuid.New()
	room := pairedRoom(sender, partner)
	ping := &model.Ping{ID: uuid.New(), RoomID: room.ID, FromUserID: sender}

	store := &fakeStore{}
	pub := &fakePublisher{}
	d := NewNotificationDispatcher(nil, store, pub)

	outcomes := dispatchAndWait(t, d, room, ping)

	if o := outcomeFor(t, outcomes, ChannelPush); o.Err == nil {
		t.Error("unconfigured push should report an error outcome")
	}
	if o := outcomeFor(t, outcomes, ChannelRelay); o.Err != nil {
		t.Errorf("relay failed: %v", o.Err)
	}
	if len(store.all()) != 1 {
		t.Error("relay record missing")
	}
}

func TestDispatchPingSoloRoomPushesNothing(t *testing.T) {
	sender := uuid.New()
	room := &model.Room{
		ID:      uuid.New(),
		Name:    "Just Me",
		Members: []model.RoomMember{{UserID: sender, FCMToken: "sender-device"}},
	}
	ping := &model.Ping{ID: uuid.New(), RoomID: room.ID, FromUserID: sender}

	push := &fakePush{}
	store := &fakeStore{}
	pub := &fakePublisher{}
	d := NewNotificationDispatcher(push, store, pub)

	outcomes := dispatchAndWait(t, d, room, ping)
	for _, o := range outcomes {
		if o.Err != nil {
			t.Errorf("channel %s failed: %v", o.Channel, o.Err)
		}
	}

	if got := push.tokens(); len(got) != 0 {
		t.Errorf("solo room pushed to %v", got)
	}
	if len(store.all()) != 0 {
		t.Error("solo room wrote a relay record")
	}
	// the sender still gets their echo
	if got := pub.eventsFor(sender, model.WSEventPing); len(got) != 1 {
		t.Errorf("sender echo events = %d, want 1", len(got))
	}
}
