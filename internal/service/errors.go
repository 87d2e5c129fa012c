package service

import "errors"

// Service-level failure conditions. Handlers branch on these with errors.Is
// and translate them into {success:false, error} responses; nothing else
// crosses the HTTP boundary.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrRoomFull         = errors.New("room is full")
	ErrNotMember        = errors.New("user not in room")
	ErrPhotoNotFound    = errors.New("photo not found")
	ErrPhotoTooLarge    = errors.New("photo exceeds 1MB limit")
	ErrPhotoBadType     = errors.New("only image files are allowed")
	ErrPhotoCapReached  = errors.New("room already holds the maximum number of photos")
	ErrMissingToken     = errors.New("device token is required")
	ErrEmailTaken       = errors.New("email already registered")
	ErrBadCredentials   = errors.New("invalid email or password")
)
