package service

import (
	"github.com/closehq/close-api/internal/model"
	"github.com/google/uuid"
)

// PartnerTokens returns the device tokens of every room member other than
// the caller, skipping members who never registered a device. A solo room
// yields nothing. Pure function over an in-memory snapshot.
func PartnerTokens(members []model.RoomMember, currentUserID uuid.UUID) []string {
	tokens := []string{}
	for _, m := range members {
		if m.UserID == currentUserID || m.FCMToken == "" {
			continue
		}
		tokens = append(tokens, m.FCMToken)
	}
	return tokens
}

// PartnerIDs returns the user IDs of every member other than the caller
func PartnerIDs(members []model.RoomMember, currentUserID uuid.UUID) []uuid.UUID {
	ids := []uuid.UUID{}
	for _, m := range members {
		if m.UserID == currentUserID {
			continue
		}
		ids = append(ids, m.UserID)
	}
	return ids
}
