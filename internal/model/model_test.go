package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDataBagRoundTrip(t *testing.T) {
	in := DataBag{"type": "ping", "roomId": "abc"}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var out DataBag
	if err := out.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out["type"] != "ping" || out["roomId"] != "abc" {
		t.Errorf("round trip = %v", out)
	}
}

func TestDataBagNilAndNull(t *testing.T) {
	var nilBag DataBag
	v, err := nilBag.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "{}" {
		t.Errorf("nil bag stores as %v, want {}", v)
	}

	var out DataBag
	if err := out.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if out == nil || len(out) != 0 {
		t.Errorf("scanned null = %v, want empty bag", out)
	}
}

func TestToSnapshotOmitsSecretsAndNilSlices(t *testing.T) {
	room := Room{
		ID:           uuid.New(),
		Name:         "Our Place",
		PasswordHash: "$2a$10$secret",
		CurrentEmoji: DefaultEmoji,
	}

	snap := room.ToSnapshot()
	if snap.Members == nil || snap.PingHistory == nil {
		t.Error("snapshot slices must never be nil")
	}

	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"password", "password_hash"} {
		if _, ok := raw[key]; ok {
			t.Errorf("snapshot leaks %q", key)
		}
	}
	if string(raw["members"]) != "[]" || string(raw["ping_history"]) != "[]" {
		t.Errorf("empty room snapshot: members=%s pings=%s", raw["members"], raw["ping_history"])
	}
}

func TestRoomHasMember(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	room := Room{Members: []RoomMember{{UserID: a}}}

	if !room.HasMember(a) {
		t.Error("member not found")
	}
	if room.HasMember(b) {
		t.Error("stranger reported as member")
	}
}

func TestPhotoIsExpired(t *testing.T) {
	now := time.Now()
	photo := Photo{ExpiresAt: now}

	if photo.IsExpired(now.Add(-time.Second)) {
		t.Error("photo expired before its deadline")
	}
	if !photo.IsExpired(now.Add(time.Second)) {
		t.Error("photo still live past its deadline")
	}
}
