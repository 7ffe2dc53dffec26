package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardblitz/boardblitz/internal/factory"
	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/services/session"
	"github.com/boardblitz/boardblitz/internal/ws"
)

type wsHarness struct {
	app *factory.TestApp
	srv *httptest.Server
}

func newWSHarness(t *testing.T) *wsHarness {
	t.Helper()

	app := factory.NewTestApp()
	srv := httptest.NewServer(app.WSHandler)
	t.Cleanup(srv.Close)

	return &wsHarness{app: app, srv: srv}
}

// dial opens a websocket connection authenticated as the given token
func (h *wsHarness) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (h *wsHarness) guestToken(t *testing.T, name string) (model.Identity, string) {
	t.Helper()

	authSession, err := h.app.AuthService.CreateGuest(context.Background(), name)
	require.NoError(t, err)
	return authSession.Identity, authSession.Token
}

type wsTestFrame struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// send writes a command envelope
func send(t *testing.T, conn *websocket.Conn, id, cmdType string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(wsTestFrame{ID: id, Type: cmdType, Data: payload}))
}

// readReply skips broadcast events until the connection's next direct reply
func readReply(t *testing.T, conn *websocket.Conn) wsTestFrame {
	t.Helper()

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var f wsTestFrame
		require.NoError(t, json.Unmarshal(raw, &f))
		if f.Type == ws.ReplyResult || f.Type == ws.ReplyError {
			return f
		}
	}
}

func TestRejectsMissingToken(t *testing.T) {
	h := newWSHarness(t)

	url := "ws" + strings.TrimPrefix(h.srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, 401, resp.StatusCode)
}

func TestCommandRoundTrip(t *testing.T) {
	h := newWSHarness(t)
	h.app.MockRandom.QueueString("codeaa")

	_, token := h.guestToken(t, "Ann")
	conn := h.dial(t, token)

	send(t, conn, "c1", ws.CmdCreateSession, map[string]string{"color": "white"})
	reply := readReply(t, conn)
	assert.Equal(t, "c1", reply.ID)
	assert.Equal(t, ws.ReplyResult, reply.Type)
	assert.Contains(t, string(reply.Data), `"codeaa"`)
}

// A seated player who moves their connection to another session must be
// marked disconnected in the one they left, or the abandonment sweep can
// never forfeit that seat.
func TestSwitchingSessionsReleasesOldSeat(t *testing.T) {
	h := newWSHarness(t)
	h.app.MockRandom.QueueString("codeaa")
	h.app.MockRandom.QueueString("codebb")

	ann, _ := h.guestToken(t, "Ann")
	_, benToken := h.guestToken(t, "Ben")
	cam, _ := h.guestToken(t, "Cam")

	first, err := h.app.Coordinator.CreateSession(context.Background(), ann, session.CreateOptions{Color: model.ColorWhite})
	require.NoError(t, err)
	second, err := h.app.Coordinator.CreateSession(context.Background(), cam, session.CreateOptions{Color: model.ColorWhite})
	require.NoError(t, err)

	conn := h.dial(t, benToken)
	send(t, conn, "j1", ws.CmdJoinAsPlayer, map[string]string{"code": string(first.Code), "color": "black"})
	require.Equal(t, ws.ReplyResult, readReply(t, conn).Type)

	send(t, conn, "j2", ws.CmdJoinLobby, map[string]string{"code": string(second.Code)})
	require.Equal(t, ws.ReplyResult, readReply(t, conn).Type)

	// The black seat in the first session is now disconnected
	snap, err := h.app.Coordinator.GetSnapshot(first.Code)
	require.NoError(t, err)
	require.NotNil(t, snap.Black)
	assert.False(t, snap.Black.Connected)
	require.NotNil(t, snap.Black.DisconnectedAt)

	// ...so the sweeper can forfeit it once the window passes
	h.app.MockClock.Advance(session.DefaultConfig().ForfeitAfter + time.Second)
	h.app.Sweeper.SweepOnce()

	require.Eventually(t, func() bool {
		_, err := h.app.Coordinator.GetSnapshot(first.Code)
		return errors.Is(err, model.ErrSessionNotFound)
	}, 5*time.Second, 10*time.Millisecond)

	rec, err := h.app.Store.GetCompletedGame(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, model.WinnerWhite, rec.Winner)
	assert.Equal(t, model.EndReasonAbandoned, rec.Reason)
}

func TestSocketCloseReportsDisconnect(t *testing.T) {
	h := newWSHarness(t)
	h.app.MockRandom.QueueString("codeaa")

	ann, _ := h.guestToken(t, "Ann")
	_, benToken := h.guestToken(t, "Ben")

	created, err := h.app.Coordinator.CreateSession(context.Background(), ann, session.CreateOptions{Color: model.ColorWhite})
	require.NoError(t, err)

	conn := h.dial(t, benToken)
	send(t, conn, "j1", ws.CmdJoinLobby, map[string]string{"code": string(created.Code)})
	require.Equal(t, ws.ReplyResult, readReply(t, conn).Type)

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	require.NoError(t, conn.Close())

	// Observers hold no game stake, so the disconnect drops the slot
	require.Eventually(t, func() bool {
		snap, err := h.app.Coordinator.GetSnapshot(created.Code)
		if err != nil {
			return false
		}
		return len(snap.Observers) == 0
	}, 5*time.Second, 10*time.Millisecond)
}
