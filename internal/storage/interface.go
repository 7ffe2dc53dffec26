package storage

import (
	"context"

	"github.com/boardblitz/boardblitz/internal/model"
)

// Store is the durable persistence collaborator. It is consulted at
// account registration/login time and at session termination, never on
// the hot path of move exchange.
type Store interface {
	// Account operations

	// CreateAccount stores a new account and assigns its id
	CreateAccount(ctx context.Context, acct *model.Account) error
	GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// Completed game operations

	// SaveCompletedGame stores the record, assigns its id and atomically
	// updates win/loss/draw counters for any registered side; guest sides
	// are excluded from counter updates.
	SaveCompletedGame(ctx context.Context, rec *model.GameRecord) error
	GetCompletedGame(ctx context.Context, id int64) (*model.GameRecord, error)
	// ListGamesByAccount returns an account's completed games, newest first
	ListGamesByAccount(ctx context.Context, id model.AccountID, limit int) ([]*model.GameRecord, error)

	Close() error
}
