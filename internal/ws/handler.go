// Package ws exposes the live session surface over websockets: one
// connection per participant, commands in, replies and session
// broadcasts out.
package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/boardblitz/boardblitz/internal/broadcast"
	"github.com/boardblitz/boardblitz/internal/services/auth"
	"github.com/boardblitz/boardblitz/internal/services/session"
)

// Handler upgrades HTTP requests to websocket connections. Connections
// authenticate with a session token passed either as a bearer header or,
// for browser clients that cannot set headers on upgrade, a query
// parameter.
type Handler struct {
	auth        *auth.Service
	coordinator *session.Controller
	hubs        *broadcast.HubManager
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewHandler creates a websocket Handler
func NewHandler(authService *auth.Service, coordinator *session.Controller, hubs *broadcast.HubManager, logger *slog.Logger) *Handler {
	return &Handler{
		auth:        authService,
		coordinator: coordinator,
		hubs:        hubs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	authSession, err := h.auth.ValidateSession(token)
	if err != nil {
		http.Error(w, "invalid or missing session token", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := newConn(uuid.NewString(), ws, authSession.Identity, h.coordinator, h.hubs, h.logger)
	h.logger.Info("websocket connected",
		slog.String("conn_id", conn.id),
		slog.String("participant", string(authSession.Identity.Key())))

	conn.run(r.Context())

	h.logger.Info("websocket disconnected", slog.String("conn_id", conn.id))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
