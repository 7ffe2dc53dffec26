package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/boardblitz/boardblitz/internal/api/handler"
	apimiddleware "github.com/boardblitz/boardblitz/internal/api/middleware"
	"github.com/boardblitz/boardblitz/internal/middleware"
	"github.com/boardblitz/boardblitz/internal/services/auth"
	"github.com/boardblitz/boardblitz/internal/services/session"
	"github.com/boardblitz/boardblitz/internal/storage"
	"github.com/boardblitz/boardblitz/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Coordinator *session.Controller
	Store       storage.Store
	WSHandler   *ws.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	accountHandler := handler.NewAccountHandler(cfg.AuthService, cfg.Coordinator, cfg.Store, cfg.Logger)
	sessionHandler := handler.NewSessionHandler(cfg.Coordinator, cfg.Store)

	authMiddleware := apimiddleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Auth routes (no auth required to obtain a session)
	api.HandleFunc("/auth/guest", accountHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", accountHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", accountHandler.Login).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(authMiddleware)
	authed.HandleFunc("/auth/logout", accountHandler.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/accounts/me", accountHandler.GetMe).Methods(http.MethodGet)
	authed.HandleFunc("/accounts/me/games", accountHandler.GetMyGames).Methods(http.MethodGet)

	// Read-only session and archive routes
	authed.HandleFunc("/sessions", sessionHandler.List).Methods(http.MethodGet)
	authed.HandleFunc("/sessions/{code}", sessionHandler.Get).Methods(http.MethodGet)
	authed.HandleFunc("/games/{id}", sessionHandler.GetGame).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Live session surface; the handler does its own token auth so the
	// upgrade can carry the token as a query parameter
	wsRoute := r.PathPrefix("/ws").Subrouter()
	wsRoute.Use(middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler))
	wsRoute.Use(loggingMiddleware)
	wsRoute.Handle("", cfg.WSHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
