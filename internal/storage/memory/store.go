package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/storage"
)

// Store is an in-memory implementation of the storage interface,
// used in tests and single-process development runs
type Store struct {
	mu sync.RWMutex

	accounts    map[model.AccountID]*model.Account
	emailIndex  map[string]model.AccountID
	games       map[int64]*model.GameRecord
	byAccount   map[model.AccountID][]int64 // newest first
	nextAccount model.AccountID
	nextGame    int64
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		accounts:   make(map[model.AccountID]*model.Account),
		emailIndex: make(map[string]model.AccountID),
		games:      make(map[int64]*model.GameRecord),
		byAccount:  make(map[model.AccountID][]int64),
	}
}

// Ensure Store implements the interface
var _ storage.Store = (*Store)(nil)

// Account operations

func (s *Store) CreateAccount(ctx context.Context, acct *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(acct.Email)
	if _, exists := s.emailIndex[email]; exists {
		return storage.ErrEmailTaken
	}

	s.nextAccount++
	acct.ID = s.nextAccount

	stored := *acct
	s.accounts[acct.ID] = &stored
	s.emailIndex[email] = acct.ID
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	out := *acct
	return &out, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emailIndex[normalizeEmail(email)]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	acct, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	out := *acct
	return &out, nil
}

// Completed game operations

func (s *Store) SaveCompletedGame(ctx context.Context, rec *model.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGame++
	rec.ID = s.nextGame

	stored := *rec
	s.games[rec.ID] = &stored

	for _, id := range []model.AccountID{rec.WhiteAccount, rec.BlackAccount} {
		if id != 0 {
			s.byAccount[id] = append([]int64{rec.ID}, s.byAccount[id]...)
		}
	}

	s.applyCounters(rec)
	return nil
}

func (s *Store) GetCompletedGame(ctx context.Context, id int64) (*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameRecordNotFound
	}
	out := *rec
	return &out, nil
}

func (s *Store) ListGamesByAccount(ctx context.Context, id model.AccountID, limit int) ([]*model.GameRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byAccount[id]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*model.GameRecord, 0, len(ids))
	for _, gid := range ids {
		if rec, ok := s.games[gid]; ok {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store
func (s *Store) Close() error {
	return nil
}

// applyCounters bumps win/loss/draw counters for registered sides only.
// Caller holds the write lock.
func (s *Store) applyCounters(rec *model.GameRecord) {
	white := s.accounts[rec.WhiteAccount]
	black := s.accounts[rec.BlackAccount]

	switch rec.Winner {
	case model.WinnerDraw:
		if white != nil {
			white.Draws++
		}
		if black != nil {
			black.Draws++
		}
	case model.WinnerWhite:
		if white != nil {
			white.Wins++
		}
		if black != nil {
			black.Losses++
		}
	case model.WinnerBlack:
		if black != nil {
			black.Wins++
		}
		if white != nil {
			white.Losses++
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
