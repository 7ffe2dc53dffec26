package model

import (
	"fmt"
	"time"
)

// AccountID identifies a registered account in the durable store
type AccountID int64

// ParticipantKey is the registry index key for any identity, guest or registered
type ParticipantKey string

// AccountKey returns the index key for a registered account
func AccountKey(id AccountID) ParticipantKey {
	return ParticipantKey(fmt.Sprintf("a:%d", id))
}

// GuestKey returns the index key for an ephemeral guest id
func GuestKey(id string) ParticipantKey {
	return ParticipantKey("g:" + id)
}

// Identity is the public identity snapshot used in broadcasts.
// It never carries credentials. Exactly one of AccountID or GuestID is set.
type Identity struct {
	AccountID   AccountID `json:"accountId,omitempty"`
	GuestID     string    `json:"guestId,omitempty"`
	DisplayName string    `json:"displayName"`
}

// IsGuest reports whether the identity is ephemeral
func (i Identity) IsGuest() bool {
	return i.AccountID == 0
}

// IsZero reports whether the identity is unset
func (i Identity) IsZero() bool {
	return i.AccountID == 0 && i.GuestID == ""
}

// Key returns the registry index key for this identity
func (i Identity) Key() ParticipantKey {
	if i.IsGuest() {
		return GuestKey(i.GuestID)
	}
	return AccountKey(i.AccountID)
}

// Account is a registered player account with durable win/loss/draw counters
type Account struct {
	ID           AccountID
	Name         string
	Email        string // login email (immutable)
	PasswordHash string // bcrypt hash
	Wins         int
	Losses       int
	Draws        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the broadcast-safe identity for the account
func (a *Account) Identity() Identity {
	return Identity{AccountID: a.ID, DisplayName: a.Name}
}
