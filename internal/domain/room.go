package domain

import (
	"time"
)

type RoomID string

// CallType selects the tariff for a room.
type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

func ParseCallType(s string) (CallType, error) {
	switch s {
	case "audio", "voice":
		return CallAudio, nil
	case "video":
		return CallVideo, nil
	}
	return "", ErrBadCallType
}

// RoomCapacity is fixed: one host, at most one guest.
const RoomCapacity = 2

const MaxRoomTitleLen = 64

// Room is the immutable part of a room record. Membership and the
// session timer live in the state machine, not here.
type Room struct {
	ID               RoomID
	Title            string
	HostID           UserID
	HostNickname     string
	HostProfileImage string
	Language         string
	Topic            string
	CallType         CallType
	IsPrivate        bool
	Password         string
	CreatedAt        time.Time
}

// RoomSpec is what a creator asks for; NewRoom validates it.
type RoomSpec struct {
	Title     string
	Language  string
	Topic     string
	CallType  string
	IsPrivate bool
	Password  string
}

func NewRoom(id RoomID, host *User, spec RoomSpec, createdAt time.Time) (*Room, error) {
	if spec.Title == "" {
		return nil, ErrTitleEmpty
	}
	title := spec.Title
	if len(title) > MaxRoomTitleLen {
		title = title[:MaxRoomTitleLen]
	}
	ct, err := ParseCallType(spec.CallType)
	if err != nil {
		return nil, err
	}
	if spec.IsPrivate && spec.Password == "" {
		return nil, ErrPasswordRequired
	}
	return &Room{
		ID:               id,
		Title:            title,
		HostID:           host.ID,
		HostNickname:     host.Nickname,
		HostProfileImage: host.ProfileImage,
		Language:         spec.Language,
		Topic:            spec.Topic,
		CallType:         ct,
		IsPrivate:        spec.IsPrivate,
		Password:         spec.Password,
		CreatedAt:        createdAt,
	}, nil
}
