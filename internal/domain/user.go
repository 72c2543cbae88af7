// Package domain contains entities without logic, just meta-data and
// the validation that keeps adapters from building broken literals.
package domain

import (
	"errors"
	"time"
)

const MaxNicknameLen = 36

var (
	ErrNicknameEmpty   = errors.New("nickname empty")
	ErrNicknameTooLong = errors.New("nickname too long")
)

// UserID identifies an authenticated account. Zero is never a valid id;
// an unauthenticated visitor simply has no User at all.
type UserID int64

// ConnID identifies one live transport connection (the client token).
type ConnID string

// User is the identity snapshot a connection authenticates with.
// It mirrors what the account service hands the client, nothing more.
type User struct {
	ID           UserID  `json:"userId"`
	Email        string  `json:"email,omitempty"`
	Nickname     string  `json:"nickname"`
	ProfileImage string  `json:"profileImage,omitempty"`
	AgeGroup     *int    `json:"ageGroup,omitempty"`
	Gender       *string `json:"gender,omitempty"`
}

// NewUser keeps ad-hoc struct literals out of adapters.
func NewUser(id UserID, email, nickname string) (*User, error) {
	if nickname == "" {
		return nil, ErrNicknameEmpty
	}
	if len(nickname) > MaxNicknameLen {
		return nil, ErrNicknameTooLong
	}
	return &User{ID: id, Email: email, Nickname: nickname}, nil
}

// Participant is a User snapshot captured at join time. Later changes to
// the underlying User do not propagate back into a room.
type Participant struct {
	UserID   UserID `json:"userId"`
	Nickname string `json:"nickname"`
	ConnID   ConnID `json:"socketId"`
	IsHost   bool   `json:"isHost"`
}

// Presence is one registry entry: either an anonymous marker or exactly
// one authenticated user bound to a connection.
type Presence struct {
	ConnID      ConnID
	User        *User
	ConnectedAt time.Time
	RoomID      RoomID
}

func (p *Presence) Authenticated() bool { return p.User != nil }
