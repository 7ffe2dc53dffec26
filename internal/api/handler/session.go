package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/boardblitz/boardblitz/internal/api/response"
	"github.com/boardblitz/boardblitz/internal/broadcast"
	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/services/session"
	"github.com/boardblitz/boardblitz/internal/storage"
)

// SessionHandler exposes read-only views of live sessions and the
// completed-game archive. All live mutation goes over the websocket.
type SessionHandler struct {
	coordinator *session.Controller
	store       storage.Store
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(coordinator *session.Controller, store storage.Store) *SessionHandler {
	return &SessionHandler{
		coordinator: coordinator,
		store:       store,
	}
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.coordinator.ListPublic()

	summaries := make([]response.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, response.SummaryFromSession(s))
	}
	response.JSON(w, http.StatusOK, response.SessionListResponse{Sessions: summaries})
}

// Get handles GET /api/v1/sessions/{code}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := model.GameCode(mux.Vars(r)["code"])

	snap, err := h.coordinator.GetSnapshot(code)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.SessionResponse{Session: broadcast.SessionViewFrom(snap)})
}

// GetGame handles GET /api/v1/games/{id}
func (h *SessionHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		WriteError(w, NewInvalidRequestError("game id must be an integer"))
		return
	}

	rec, err := h.store.GetCompletedGame(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameRecordFromModel(rec))
}
