package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/boardblitz/boardblitz/internal/broadcast"
	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/services/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// outBufferSize buffers replies and forwarded broadcasts per connection
	outBufferSize = 128
)

// Conn is one authenticated websocket connection. It multiplexes direct
// command replies and the broadcast stream of the session it has joined
// onto a single write pump. A connection is in at most one session at a
// time.
type Conn struct {
	id          string
	ws          *websocket.Conn
	coordinator *session.Controller
	hubs        *broadcast.HubManager
	logger      *slog.Logger

	identity model.Identity
	out      chan []byte

	mu      sync.Mutex
	code    model.GameCode
	sub     *broadcast.Client
	stopFwd chan struct{}
}

func newConn(id string, ws *websocket.Conn, identity model.Identity, coordinator *session.Controller, hubs *broadcast.HubManager, logger *slog.Logger) *Conn {
	return &Conn{
		id:          id,
		ws:          ws,
		coordinator: coordinator,
		hubs:        hubs,
		logger: logger.With(
			slog.String("conn_id", id),
			slog.String("participant", string(identity.Key()))),
		identity: identity,
		out:      make(chan []byte, outBufferSize),
	}
}

// run drives the connection until the socket closes, then reports the
// disconnect to the coordinator
func (c *Conn) run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)
	c.detach(context.Background())
}

func (c *Conn) readPump(ctx context.Context) {
	defer func() { _ = c.ws.Close() }()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("read error", slog.Any("error", err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.reply(Reply{Type: ReplyError, Data: ErrorBody{Code: "bad_request", Message: "malformed envelope"}})
			continue
		}
		c.dispatch(ctx, env)
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// joinHub subscribes the connection to a session's broadcast hub,
// replacing any previous subscription. A connection lives in at most
// one session, so moving to a different code reports a disconnect for
// the session left behind; otherwise the sweeper would see the old
// seat as connected forever.
func (c *Conn) joinHub(ctx context.Context, code model.GameCode) {
	if prev := c.leaveHub(); prev != "" && prev != code {
		c.reportDisconnect(ctx, prev)
	}

	hub := c.hubs.GetOrCreateHub(code)
	sub := broadcast.NewClient(c.id)
	stop := make(chan struct{})

	c.mu.Lock()
	c.code = code
	c.sub = sub
	c.stopFwd = stop
	c.mu.Unlock()

	hub.Subscribe(sub)
	go c.forward(sub, stop)
}

// leaveHub drops the current subscription and returns the code it was for
func (c *Conn) leaveHub() model.GameCode {
	c.mu.Lock()
	code, sub, stop := c.code, c.sub, c.stopFwd
	c.code, c.sub, c.stopFwd = "", nil, nil
	c.mu.Unlock()

	if sub == nil {
		return code
	}
	if hub := c.hubs.GetHub(code); hub != nil {
		hub.Unsubscribe(sub)
	}
	close(stop)
	return code
}

// detach drops the hub subscription and reports the disconnect for
// whichever session the connection was attached to
func (c *Conn) detach(ctx context.Context) {
	if code := c.leaveHub(); code != "" {
		c.reportDisconnect(ctx, code)
	}
}

func (c *Conn) reportDisconnect(ctx context.Context, code model.GameCode) {
	if err := c.coordinator.Disconnect(ctx, code, c.identity.Key()); err != nil &&
		!errors.Is(err, model.ErrSessionNotFound) && !errors.Is(err, model.ErrNotInSession) {
		c.logger.Warn("disconnect handling failed",
			slog.String("code", string(code)),
			slog.Any("error", err))
	}
}

// forward copies hub events onto the connection's write pump until the
// subscription ends. A full out buffer drops the event; the client can
// always re-sync with a snapshot request.
func (c *Conn) forward(sub *broadcast.Client, stop chan struct{}) {
	for {
		select {
		case msg, ok := <-sub.Send:
			if !ok {
				return
			}
			select {
			case c.out <- msg:
			default:
				c.logger.Warn("dropping broadcast, connection buffer full")
			}
		case <-stop:
			return
		}
	}
}

func (c *Conn) currentCode() model.GameCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

func (c *Conn) reply(r Reply) {
	payload, err := json.Marshal(r)
	if err != nil {
		c.logger.Error("failed to encode reply", slog.Any("error", err))
		return
	}
	select {
	case c.out <- payload:
	default:
		c.logger.Warn("dropping reply, connection buffer full")
	}
}
