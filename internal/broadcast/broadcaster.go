package broadcast

import (
	"encoding/json"
	"log/slog"

	"github.com/boardblitz/boardblitz/internal/model"
)

// Broadcaster publishes coordinator events to the hub for each code
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "broadcaster")),
	}
}

// PublishSnapshot pushes the full current session state to every
// subscriber of the session's code. Best-effort; a missing hub means
// nobody is listening.
func (b *Broadcaster) PublishSnapshot(s *model.Session) {
	hub := b.hubManager.GetHub(s.Code)
	if hub == nil {
		return
	}
	b.publish(hub, s.Code, Event{Type: EventSessionUpdate, Data: SessionViewFrom(s)})
}

// PublishChat relays a chat message to the session's audience
func (b *Broadcaster) PublishChat(code model.GameCode, msg ChatMessage) {
	hub := b.hubManager.GetHub(code)
	if hub == nil {
		return
	}
	b.publish(hub, code, Event{Type: EventChat, Data: msg})
}

// SessionClosed tears down the hub for a code once its session is gone
func (b *Broadcaster) SessionClosed(code model.GameCode) {
	b.hubManager.RemoveHub(code)
}

// CleanupHubs drops hubs that have lost all their subscribers
func (b *Broadcaster) CleanupHubs() {
	b.hubManager.CleanupEmptyHubs()
}

func (b *Broadcaster) publish(hub *Hub, code model.GameCode, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("code", string(code)),
			slog.String("type", event.Type),
			slog.Any("error", err))
		return
	}
	hub.Publish(payload)
}
