// Package factory wires the application's components together.
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/boardblitz/boardblitz/internal/broadcast"
	"github.com/boardblitz/boardblitz/internal/dependencies/clock"
	"github.com/boardblitz/boardblitz/internal/dependencies/random"
	"github.com/boardblitz/boardblitz/internal/registry"
	"github.com/boardblitz/boardblitz/internal/rules"
	"github.com/boardblitz/boardblitz/internal/services/auth"
	"github.com/boardblitz/boardblitz/internal/services/identity"
	"github.com/boardblitz/boardblitz/internal/services/session"
	"github.com/boardblitz/boardblitz/internal/storage"
	"github.com/boardblitz/boardblitz/internal/storage/memory"
	redisstorage "github.com/boardblitz/boardblitz/internal/storage/redis"
	sqlitestorage "github.com/boardblitz/boardblitz/internal/storage/sqlite"
	"github.com/boardblitz/boardblitz/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Live session core
	Registry    *registry.Registry
	HubManager  *broadcast.HubManager
	Broadcaster *broadcast.Broadcaster
	Engine      rules.Engine
	Coordinator *session.Controller
	Sweeper     *session.Sweeper

	// Services
	AuthService *auth.Service
	Resolver    *identity.Resolver

	// Transport
	WSHandler *ws.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger; nil means discard
	Logger *slog.Logger
	// StorageType selects the storage backend; empty defaults to memory
	StorageType string
	// RedisConfig is required when StorageType is redis
	RedisConfig *redisstorage.Config
	// SQLitePath is required when StorageType is sqlite
	SQLitePath string
	// AuthConfig defaults to auth.DefaultConfig() when zero
	AuthConfig auth.Config
	// SessionConfig defaults to session.DefaultConfig() when zero
	SessionConfig session.Config
	// RegistryConfig defaults to registry.DefaultConfig() when zero
	RegistryConfig registry.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		sqliteStore, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	return newWithDependencies(store, clock.New(), random.New(), cfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) *App {
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	sessionCfg := cfg.SessionConfig
	if sessionCfg.PersistAttempts == 0 {
		sessionCfg = session.DefaultConfig()
	}
	registryCfg := cfg.RegistryConfig
	if registryCfg.CodeLength == 0 {
		registryCfg = registry.DefaultConfig()
	}

	reg := registry.New(registryCfg, rnd, logger)
	hubManager := broadcast.NewHubManager(logger)
	broadcaster := broadcast.NewBroadcaster(hubManager, logger)
	engine := rules.NewNotationEngine()
	resolver := identity.New(store)
	coordinator := session.NewController(reg, store, resolver, engine, broadcaster, clk, rnd, sessionCfg, logger)
	sweeper := session.NewSweeper(coordinator, logger)
	authService := auth.New(store, clk, authCfg, logger)
	wsHandler := ws.NewHandler(authService, coordinator, hubManager, logger)

	return &App{
		Store:       store,
		Clock:       clk,
		Random:      rnd,
		Registry:    reg,
		HubManager:  hubManager,
		Broadcaster: broadcaster,
		Engine:      engine,
		Coordinator: coordinator,
		Sweeper:     sweeper,
		AuthService: authService,
		Resolver:    resolver,
		WSHandler:   wsHandler,
	}
}
