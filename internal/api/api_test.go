package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardblitz/boardblitz/internal/api"
	"github.com/boardblitz/boardblitz/internal/api/response"
	"github.com/boardblitz/boardblitz/internal/factory"
	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/services/session"
	"github.com/boardblitz/boardblitz/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// API tests are integration tests - use the production factory with
	// real random/clock over in-memory storage
	app, err := factory.New(factory.Config{Logger: testutil.NopLogger()})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:      testutil.NopLogger(),
		AuthService: app.AuthService,
		Coordinator: app.Coordinator,
		Store:       app.Store,
		WSHandler:   app.WSHandler,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// guestAuth creates a guest and returns its auth response
func (ts *testServer) guestAuth(t *testing.T, name string) response.AuthResponse {
	t.Helper()

	rr := ts.request(http.MethodPost, "/api/v1/auth/guest", map[string]string{"display_name": name}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGuest(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.guestAuth(t, "Watcher")
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.Identity.Guest)
	assert.Equal(t, "Watcher", resp.Identity.DisplayName)
	assert.NotEmpty(t, resp.Identity.GuestID)
}

func TestCreateGuestRequiresName(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/auth/guest", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_REQUEST")
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	registerBody := map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "hunter22",
	}
	rr := ts.request(http.MethodPost, "/api/v1/auth/register", registerBody, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var registered response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &registered))
	assert.False(t, registered.Identity.Guest)
	assert.NotZero(t, registered.Identity.AccountID)

	// Duplicate email
	rr = ts.request(http.MethodPost, "/api/v1/auth/register", registerBody, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "EMAIL_EXISTS")

	// Login
	rr = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var loggedIn response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &loggedIn))
	assert.Equal(t, registered.Identity.AccountID, loggedIn.Identity.AccountID)

	// Wrong password
	rr = ts.request(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_CREDENTIALS")
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)

	guest := ts.guestAuth(t, "Watcher")
	rr := ts.request(http.MethodGet, "/api/v1/accounts/me", nil, guest.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"guest":true`)

	registerBody := map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "hunter22",
	}
	rr = ts.request(http.MethodPost, "/api/v1/auth/register", registerBody, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var registered response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &registered))

	rr = ts.request(http.MethodGet, "/api/v1/accounts/me", nil, registered.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var acct response.AccountResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &acct))
	assert.Equal(t, "alice@example.com", acct.Email)
	assert.Zero(t, acct.Wins)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	ts := newTestServer(t)

	guest := ts.guestAuth(t, "Watcher")

	rr := ts.request(http.MethodPost, "/api/v1/auth/logout", nil, guest.Token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/accounts/me", nil, guest.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnauthenticatedRejected(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/sessions", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNAUTHORIZED")

	rr = ts.request(http.MethodGet, "/api/v1/sessions", nil, "bogus-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSessionListAndGet(t *testing.T) {
	ts := newTestServer(t)

	guest := ts.guestAuth(t, "Ann")
	host := model.Identity{GuestID: guest.Identity.GuestID, DisplayName: guest.Identity.DisplayName}

	created, err := ts.app.Coordinator.CreateSession(context.Background(), host, session.CreateOptions{Color: model.ColorWhite})
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/sessions", nil, guest.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.SessionListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, string(created.Code), list.Sessions[0].Code)
	assert.Equal(t, "Ann", list.Sessions[0].White)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+string(created.Code), nil, guest.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var got response.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, string(created.Code), got.Session.Code)
	assert.Equal(t, string(model.SessionStateOpen), got.Session.State)

	rr = ts.request(http.MethodGet, "/api/v1/sessions/nothere", nil, guest.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "SESSION_NOT_FOUND")
}

func TestUnlistedSessionHiddenFromListing(t *testing.T) {
	ts := newTestServer(t)

	guest := ts.guestAuth(t, "Ann")
	host := model.Identity{GuestID: guest.Identity.GuestID, DisplayName: guest.Identity.DisplayName}

	created, err := ts.app.Coordinator.CreateSession(context.Background(), host, session.CreateOptions{
		Color:    model.ColorWhite,
		Unlisted: true,
	})
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/sessions", nil, guest.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var list response.SessionListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Empty(t, list.Sessions)

	// Direct lookup by code still works
	rr = ts.request(http.MethodGet, "/api/v1/sessions/"+string(created.Code), nil, guest.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGuestTokenMigratesOnRegister(t *testing.T) {
	ts := newTestServer(t)

	guest := ts.guestAuth(t, "Ann")
	guestIdentity := model.Identity{GuestID: guest.Identity.GuestID, DisplayName: guest.Identity.DisplayName}

	created, err := ts.app.Coordinator.CreateSession(context.Background(), guestIdentity, session.CreateOptions{Color: model.ColorWhite})
	require.NoError(t, err)

	rr := ts.request(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":        "Ann",
		"email":       "ann@example.com",
		"password":    "hunter22",
		"guest_token": guest.Token,
	}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var registered response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &registered))
	assert.Equal(t, string(created.Code), registered.ActiveSession)

	// The session's seat now carries the account identity
	snap, err := ts.app.Coordinator.GetSnapshot(created.Code)
	require.NoError(t, err)
	assert.Equal(t, model.AccountID(registered.Identity.AccountID), snap.White.Identity.AccountID)
	assert.Empty(t, snap.White.Identity.GuestID)

	// The guest token was invalidated by the migration
	rr = ts.request(http.MethodGet, "/api/v1/accounts/me", nil, guest.Token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGameArchive(t *testing.T) {
	ts := newTestServer(t)

	guest := ts.guestAuth(t, "Watcher")

	now := time.Now().UTC().Truncate(time.Millisecond)
	rec := &model.GameRecord{
		Code:      "code01",
		Moves:     "e4 e5 Qh5 Nc6 Bc4 Nf6 Qxf7#",
		Winner:    model.WinnerWhite,
		Reason:    model.EndReasonCheckmate,
		WhiteName: "Ann",
		BlackName: "Ben",
		StartedAt: now,
		EndedAt:   now.Add(time.Minute),
	}
	require.NoError(t, ts.app.Store.SaveCompletedGame(context.Background(), rec))

	rr := ts.request(http.MethodGet, "/api/v1/games/1", nil, guest.Token)
	require.Equal(t, http.StatusOK, rr.Code)

	var got response.GameRecordResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "code01", got.Code)
	assert.Equal(t, "white", got.Winner)
	assert.Equal(t, "Ann", got.White.Name)

	rr = ts.request(http.MethodGet, "/api/v1/games/999", nil, guest.Token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "GAME_NOT_FOUND")

	rr = ts.request(http.MethodGet, "/api/v1/games/notanumber", nil, guest.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMyGames(t *testing.T) {
	ts := newTestServer(t)

	// Guests always get an empty history
	guest := ts.guestAuth(t, "Watcher")
	rr := ts.request(http.MethodGet, "/api/v1/accounts/me/games", nil, guest.Token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"games":[]`)

	rr = ts.request(http.MethodGet, "/api/v1/accounts/me/games?limit=-1", nil, guest.Token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
