package domain

import "errors"

// Admission errors. All are user-recoverable and surfaced verbatim as an
// error event or an HTTP 4xx; none are retried.
var (
	ErrNotAuthenticated    = errors.New("authentication required")
	ErrAlreadyInRoom       = errors.New("already in a room")
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrWrongPassword       = errors.New("wrong password")
	ErrPasswordRequired    = errors.New("password required for a private room")
	ErrInsufficientBalance = errors.New("insufficient point balance")
	ErrInvalidGiftAmount   = errors.New("invalid gift amount")
	ErrSelfGift            = errors.New("cannot gift yourself")
	ErrRecipientNotFound   = errors.New("recipient not found")
	ErrNotInRoom           = errors.New("not a participant of this room")
	ErrTitleEmpty          = errors.New("room title empty")
	ErrBadCallType         = errors.New("unknown call type")
	ErrBadRatingScore      = errors.New("rating score must be 1..5")
)
