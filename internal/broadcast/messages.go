package broadcast

import (
	"time"

	"github.com/boardblitz/boardblitz/internal/model"
)

// Event types pushed to subscribers
const (
	EventSessionUpdate = "sessionUpdate"
	EventChat          = "chat"
)

// Event is the envelope for every pushed message
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ParticipantView is the broadcast form of a slot
type ParticipantView struct {
	Identity       model.Identity `json:"identity"`
	Connected      bool           `json:"connected"`
	DisconnectedAt *time.Time     `json:"disconnectedAt,omitempty"`
}

// SessionView is the full session snapshot pushed on every mutating event.
// Snapshots, not diffs: late or reconnecting subscribers need no catch-up
// protocol beyond the next update.
type SessionView struct {
	Code      string            `json:"code"`
	State     string            `json:"state"`
	Host      *ParticipantView  `json:"host,omitempty"`
	White     *ParticipantView  `json:"white,omitempty"`
	Black     *ParticipantView  `json:"black,omitempty"`
	Observers []ParticipantView `json:"observers"`
	Moves     []string          `json:"moves"`
	Outcome   *model.Outcome    `json:"outcome,omitempty"`
	Unlisted  bool              `json:"unlisted"`
	StartedAt *time.Time        `json:"startedAt,omitempty"`
	EndedAt   *time.Time        `json:"endedAt,omitempty"`
}

// ChatMessage is relayed to the session's audience and never persisted
type ChatMessage struct {
	ID     string         `json:"id"`
	From   model.Identity `json:"from"`
	Text   string         `json:"text"`
	SentAt time.Time      `json:"sentAt"`
}

// SessionViewFrom builds the broadcast view of a session
func SessionViewFrom(s *model.Session) SessionView {
	view := SessionView{
		Code:      string(s.Code),
		State:     string(s.State),
		Host:      participantView(s.Host),
		White:     participantView(s.White),
		Black:     participantView(s.Black),
		Observers: make([]ParticipantView, 0, len(s.Observers)),
		Moves:     s.Moves,
		Outcome:   s.Outcome,
		Unlisted:  s.Unlisted,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
	}
	if view.Moves == nil {
		view.Moves = []string{}
	}
	for i := range s.Observers {
		view.Observers = append(view.Observers, *participantView(&s.Observers[i]))
	}
	return view
}

func participantView(p *model.Participant) *ParticipantView {
	if p == nil {
		return nil
	}
	return &ParticipantView{
		Identity:       p.Identity,
		Connected:      p.Connected,
		DisconnectedAt: p.DisconnectedAt,
	}
}
