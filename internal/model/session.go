package model

import "time"

// GameCode is the short join code identifying a live session
type GameCode string

// SessionState represents where a session is in its lifecycle
type SessionState string

const (
	SessionStateOpen     SessionState = "open"     // At least one seat free
	SessionStateActive   SessionState = "active"   // Both seats filled, play underway
	SessionStateTerminal SessionState = "terminal" // Outcome recorded, pending persistence
)

// Color is a playing side
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Opponent returns the other side
func (c Color) Opponent() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// Winner records who won a finished game
type Winner string

const (
	WinnerWhite Winner = "white"
	WinnerBlack Winner = "black"
	WinnerDraw  Winner = "draw"
)

// EndReason is the closed set of termination causes
type EndReason string

const (
	EndReasonCheckmate    EndReason = "checkmate"
	EndReasonStalemate    EndReason = "stalemate"
	EndReasonDraw         EndReason = "draw"
	EndReasonRepetition   EndReason = "repetition"
	EndReasonInsufficient EndReason = "insufficient"
	EndReasonAbandoned    EndReason = "abandoned"
)

// Outcome is set exactly once, when a session reaches its terminal state
type Outcome struct {
	Winner Winner    `json:"winner"`
	Reason EndReason `json:"reason"`
}

// Participant is a slot in a session: an identity plus transient
// connection state
type Participant struct {
	Identity       Identity
	Connected      bool
	DisconnectedAt *time.Time
	JoinedAt       time.Time
}

// Session is one in-progress match, identified by its join code
type Session struct {
	Code      GameCode
	State     SessionState
	Host      *Participant
	White     *Participant
	Black     *Participant
	Observers []Participant // ordered by join
	Moves     []string      // opaque notation, append-only while active
	Outcome   *Outcome      // nil while active
	Unlisted  bool          // hidden from public discovery, joinable by code
	StartedAt *time.Time    // set when both seats are filled
	EndedAt   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Seat returns the participant occupying the given color, or nil
func (s *Session) Seat(color Color) *Participant {
	if color == ColorWhite {
		return s.White
	}
	return s.Black
}

// SetSeat places a participant on the given color
func (s *Session) SetSeat(color Color, p *Participant) {
	if color == ColorWhite {
		s.White = p
	} else {
		s.Black = p
	}
}

// SeatOf returns the color occupied by the given identity, if seated
func (s *Session) SeatOf(key ParticipantKey) (Color, *Participant) {
	if s.White != nil && s.White.Identity.Key() == key {
		return ColorWhite, s.White
	}
	if s.Black != nil && s.Black.Identity.Key() == key {
		return ColorBlack, s.Black
	}
	return "", nil
}

// Observer returns the observer slot for the given identity, or nil
func (s *Session) Observer(key ParticipantKey) *Participant {
	for i := range s.Observers {
		if s.Observers[i].Identity.Key() == key {
			return &s.Observers[i]
		}
	}
	return nil
}

// Participant returns any slot held by the given identity: host, seat or observer
func (s *Session) Participant(key ParticipantKey) *Participant {
	if s.Host != nil && s.Host.Identity.Key() == key {
		return s.Host
	}
	if _, p := s.SeatOf(key); p != nil {
		return p
	}
	return s.Observer(key)
}

// ParticipantKeys returns the deduplicated index keys of every slot
func (s *Session) ParticipantKeys() []ParticipantKey {
	seen := make(map[ParticipantKey]bool)
	var keys []ParticipantKey
	add := func(p *Participant) {
		if p == nil {
			return
		}
		k := p.Identity.Key()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	add(s.Host)
	add(s.White)
	add(s.Black)
	for i := range s.Observers {
		add(&s.Observers[i])
	}
	return keys
}

// BothSeated reports whether white and black are both occupied
func (s *Session) BothSeated() bool {
	return s.White != nil && s.Black != nil
}

// IsTerminal reports whether the outcome has been recorded
func (s *Session) IsTerminal() bool {
	return s.Outcome != nil
}
