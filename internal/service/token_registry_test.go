package service

import (
	"testing"

	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
)

func TestPartnerTokensSkipsSenderAndEmpty(t *testing.T) {
	sender := uuid.New()
	partner := uuid.New()

	members := []model.RoomMember{
		{UserID: sender, FCMToken: "sender-token"},
		{UserID: partner, FCMToken: "partner-token"},
	}

	tokens := PartnerTokens(members, sender)
	if len(tokens) != 1 || tokens[0] != "partner-token" {
		t.Fatalf("expected [partner-token], got %v", tokens)
	}

	// partner without a registered device yields nothing
	members[1].FCMToken = ""
	tokens = PartnerTokens(members, sender)
	if len(tokens) != 0 {
		t.Fatalf("expected no tokens, got %v", tokens)
	}
}

func TestPartnerTokensSoloRoom(t *testing.T) {
	sender := uuid.New()
	members := []model.RoomMember{{UserID: sender, FCMToken: "sender-token"}}

	tokens := PartnerTokens(members, sender)
	if tokens == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(tokens) != 0 {
		t.Fatalf("solo room should yield no partner tokens, got %v", tokens)
	}
}

func TestPartnerIDs(t *testing.T) {
	sender := uuid.New()
	partner := uuid.New()
	members := []model.RoomMember{
		{UserID: sender},
		{UserID: partner, FCMToken: ""},
	}

	// a partner with no device token is still a relay target
	ids := PartnerIDs(members, sender)
	if len(ids) != 1 || ids[0] != partner {
		t.Fatalf("expected [%s], got %v", partner, ids)
	}
}
