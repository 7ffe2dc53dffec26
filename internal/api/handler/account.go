package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/boardblitz/boardblitz/internal/api/middleware"
	"github.com/boardblitz/boardblitz/internal/api/request"
	"github.com/boardblitz/boardblitz/internal/api/response"
	"github.com/boardblitz/boardblitz/internal/services/auth"
	"github.com/boardblitz/boardblitz/internal/services/identity"
	"github.com/boardblitz/boardblitz/internal/services/session"
	"github.com/boardblitz/boardblitz/internal/storage"
)

// AccountHandler handles identity and account endpoints. Registration
// and login accept an optional guest token; when present, the guest's
// live-session slots migrate to the account before the guest session is
// invalidated.
type AccountHandler struct {
	authService *auth.Service
	coordinator *session.Controller
	store       storage.Store
	logger      *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *auth.Service, coordinator *session.Controller, store storage.Store, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		coordinator: coordinator,
		store:       store,
		logger:      logger.With(slog.String("component", "api.account")),
	}
}

// CreateGuest handles POST /api/v1/auth/guest
func (h *AccountHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	authSession, err := h.authService.CreateGuest(r.Context(), req.DisplayName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(authSession))
}

// Register handles POST /api/v1/auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}
	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	authSession, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := h.finishAuth(r.Context(), authSession, req.GuestToken)
	response.JSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	authSession, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := h.finishAuth(r.Context(), authSession, req.GuestToken)
	response.JSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	authSession := middleware.GetSession(r.Context())
	if authSession != nil {
		h.authService.InvalidateSession(authSession.Token)
	}
	response.NoContent(w)
}

// GetMe handles GET /api/v1/accounts/me
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	me := middleware.MustGetIdentity(r.Context())
	if me.IsGuest() {
		response.JSON(w, http.StatusOK, response.IdentityViewFrom(me))
		return
	}

	acct, err := h.store.GetAccount(r.Context(), me.AccountID)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.AccountFromModel(acct))
}

// GetMyGames handles GET /api/v1/accounts/me/games
func (h *AccountHandler) GetMyGames(w http.ResponseWriter, r *http.Request) {
	me := middleware.MustGetIdentity(r.Context())
	if me.IsGuest() {
		response.JSON(w, http.StatusOK, response.GameListResponse{Games: []response.GameRecordResponse{}})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, NewInvalidRequestError("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	records, err := h.store.ListGamesByAccount(r.Context(), me.AccountID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	games := make([]response.GameRecordResponse, 0, len(records))
	for _, rec := range records {
		games = append(games, response.GameRecordFromModel(rec))
	}
	response.JSON(w, http.StatusOK, response.GameListResponse{Games: games})
}

// finishAuth runs the post-auth steps shared by register and login:
// migrate a guest's live slots onto the account and report any session
// the account now participates in
func (h *AccountHandler) finishAuth(ctx context.Context, authSession *auth.Session, guestToken string) response.AuthResponse {
	resp := response.AuthResponseFromSession(authSession)

	if guestToken != "" {
		h.reconcileGuest(ctx, authSession, guestToken)
	}

	if snap, ok := h.coordinator.FindSessionFor(authSession.Identity.Key()); ok {
		resp.ActiveSession = string(snap.Code)
	}
	return resp
}

// reconcileGuest migrates the guest's slots to the account identity and
// invalidates the guest session. A bad guest token degrades to a plain
// login; the slots just stay with the guest identity.
func (h *AccountHandler) reconcileGuest(ctx context.Context, authSession *auth.Session, guestToken string) {
	guestSession, err := h.authService.ValidateSession(guestToken)
	if err != nil || !guestSession.Identity.IsGuest() {
		h.logger.Warn("guest reconciliation skipped, invalid guest token")
		return
	}

	affected, err := h.coordinator.ReconcileIdentity(ctx, guestSession.Identity.Key(), identity.ActorRef{
		AccountID: authSession.Identity.AccountID,
	})
	if err != nil {
		h.logger.Warn("guest reconciliation failed",
			slog.String("guest", string(guestSession.Identity.Key())),
			slog.Any("error", err))
		return
	}

	h.authService.InvalidateSession(guestToken)
	if len(affected) > 0 {
		codes := make([]string, 0, len(affected))
		for _, code := range affected {
			codes = append(codes, string(code))
		}
		h.logger.Info("guest sessions migrated to account",
			slog.String("guest", string(guestSession.Identity.Key())),
			slog.Int64("account_id", int64(authSession.Identity.AccountID)),
			slog.Any("codes", codes))
	}
}
