package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *Session {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	host := Identity{GuestID: "g1", DisplayName: "Ann"}
	return &Session{
		Code:  "code01",
		State: SessionStateActive,
		Host:  &Participant{Identity: host, Connected: true, JoinedAt: now},
		White: &Participant{Identity: host, Connected: true, JoinedAt: now},
		Black: &Participant{
			Identity:  Identity{GuestID: "g2", DisplayName: "Ben"},
			Connected: true,
			JoinedAt:  now,
		},
		Observers: []Participant{{
			Identity:  Identity{AccountID: 7, DisplayName: "Cam"},
			Connected: true,
			JoinedAt:  now,
		}},
		Moves:     []string{"e4", "e5"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIdentityKeys(t *testing.T) {
	guest := Identity{GuestID: "abc", DisplayName: "G"}
	assert.True(t, guest.IsGuest())
	assert.Equal(t, GuestKey("abc"), guest.Key())

	account := Identity{AccountID: 42, DisplayName: "A"}
	assert.False(t, account.IsGuest())
	assert.Equal(t, AccountKey(42), account.Key())

	assert.NotEqual(t, GuestKey("42"), AccountKey(42))
	assert.True(t, Identity{}.IsZero())
	assert.False(t, guest.IsZero())
}

func TestColorOpponent(t *testing.T) {
	assert.Equal(t, ColorBlack, ColorWhite.Opponent())
	assert.Equal(t, ColorWhite, ColorBlack.Opponent())
}

func TestSeatOf(t *testing.T) {
	s := sampleSession()

	color, p := s.SeatOf(GuestKey("g1"))
	require.NotNil(t, p)
	assert.Equal(t, ColorWhite, color)

	color, p = s.SeatOf(GuestKey("g2"))
	require.NotNil(t, p)
	assert.Equal(t, ColorBlack, color)

	_, p = s.SeatOf(AccountKey(7))
	assert.Nil(t, p, "observers hold no seat")
}

func TestParticipantFindsAnySlot(t *testing.T) {
	s := sampleSession()

	assert.NotNil(t, s.Participant(GuestKey("g1")))
	assert.NotNil(t, s.Participant(GuestKey("g2")))
	assert.NotNil(t, s.Participant(AccountKey(7)))
	assert.Nil(t, s.Participant(GuestKey("nobody")))
}

func TestParticipantKeysDeduplicated(t *testing.T) {
	s := sampleSession()

	// g1 holds both the host slot and the white seat
	keys := s.ParticipantKeys()
	assert.ElementsMatch(t, []ParticipantKey{GuestKey("g1"), GuestKey("g2"), AccountKey(7)}, keys)
}

func TestBothSeatedAndTerminal(t *testing.T) {
	s := sampleSession()
	assert.True(t, s.BothSeated())
	assert.False(t, s.IsTerminal())

	s.Black = nil
	assert.False(t, s.BothSeated())

	s.Outcome = &Outcome{Winner: WinnerWhite, Reason: EndReasonAbandoned}
	assert.True(t, s.IsTerminal())
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleSession()
	disconnected := time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC)
	s.Black.Connected = false
	s.Black.DisconnectedAt = &disconnected

	clone := s.Clone()

	clone.White.Connected = false
	clone.Black.DisconnectedAt = nil
	clone.Moves[0] = "changed"
	clone.Observers[0].Identity.DisplayName = "changed"

	assert.True(t, s.White.Connected)
	assert.NotNil(t, s.Black.DisconnectedAt)
	assert.Equal(t, "e4", s.Moves[0])
	assert.Equal(t, "Cam", s.Observers[0].Identity.DisplayName)
}
