package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/storage"
)

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()

	store, err := Open(filepath.Join(s.T().TempDir(), "test.db"))
	s.Require().NoError(err)
	s.store = store
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *StoreSuite) TestOpenRequiresPath() {
	_, err := Open("  ")
	s.Error(err)
}

func (s *StoreSuite) newAccount(name, email string) *model.Account {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &model.Account{
		Name:         name,
		Email:        email,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *StoreSuite) finishedGame(white, black model.AccountID, winner model.Winner) *model.GameRecord {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &model.GameRecord{
		Code:         "code01",
		Moves:        "e4 e5",
		Winner:       winner,
		Reason:       model.EndReasonCheckmate,
		WhiteAccount: white,
		WhiteName:    "White",
		BlackAccount: black,
		BlackName:    "Black",
		StartedAt:    now,
		EndedAt:      now.Add(time.Minute),
	}
}

func (s *StoreSuite) TestCreateAndGetAccount() {
	acct := s.newAccount("Alice", "alice@example.com")
	s.Require().NoError(s.store.CreateAccount(s.ctx, acct))
	s.NotZero(acct.ID)

	got, err := s.store.GetAccount(s.ctx, acct.ID)
	s.Require().NoError(err)
	s.Equal("Alice", got.Name)
	s.Equal("alice@example.com", got.Email)
	s.Equal(acct.CreatedAt, got.CreatedAt)
}

func (s *StoreSuite) TestGetAccountNotFound() {
	_, err := s.store.GetAccount(s.ctx, 999)
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StoreSuite) TestGetAccountByEmail() {
	acct := s.newAccount("Alice", "alice@example.com")
	s.Require().NoError(s.store.CreateAccount(s.ctx, acct))

	got, err := s.store.GetAccountByEmail(s.ctx, "Alice@Example.COM")
	s.Require().NoError(err)
	s.Equal(acct.ID, got.ID)

	_, err = s.store.GetAccountByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StoreSuite) TestDuplicateEmailRejected() {
	s.Require().NoError(s.store.CreateAccount(s.ctx, s.newAccount("Alice", "alice@example.com")))

	err := s.store.CreateAccount(s.ctx, s.newAccount("Imposter", "ALICE@example.com"))
	s.ErrorIs(err, storage.ErrEmailTaken)
}

func (s *StoreSuite) TestSaveAndGetCompletedGame() {
	rec := s.finishedGame(0, 0, model.WinnerWhite)
	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, rec))
	s.NotZero(rec.ID)

	got, err := s.store.GetCompletedGame(s.ctx, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.Code, got.Code)
	s.Equal("e4 e5", got.Moves)
	s.Equal(model.WinnerWhite, got.Winner)
	s.Equal(model.EndReasonCheckmate, got.Reason)
	s.Equal(rec.StartedAt, got.StartedAt)
	s.Equal(rec.EndedAt, got.EndedAt)
	s.Zero(got.WhiteAccount)
	s.Equal("White", got.WhiteName)
}

func (s *StoreSuite) TestGetCompletedGameNotFound() {
	_, err := s.store.GetCompletedGame(s.ctx, 999)
	s.ErrorIs(err, model.ErrGameRecordNotFound)
}

func (s *StoreSuite) TestCountersBumpRegisteredSidesOnly() {
	alice := s.newAccount("Alice", "alice@example.com")
	bob := s.newAccount("Bob", "bob@example.com")
	s.Require().NoError(s.store.CreateAccount(s.ctx, alice))
	s.Require().NoError(s.store.CreateAccount(s.ctx, bob))

	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, s.finishedGame(alice.ID, bob.ID, model.WinnerWhite)))
	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, s.finishedGame(alice.ID, bob.ID, model.WinnerDraw)))
	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, s.finishedGame(alice.ID, 0, model.WinnerBlack)))

	gotAlice, err := s.store.GetAccount(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(1, gotAlice.Wins)
	s.Equal(1, gotAlice.Losses)
	s.Equal(1, gotAlice.Draws)

	gotBob, err := s.store.GetAccount(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.Equal(0, gotBob.Wins)
	s.Equal(1, gotBob.Losses)
	s.Equal(1, gotBob.Draws)
}

func (s *StoreSuite) TestListGamesByAccountNewestFirst() {
	alice := s.newAccount("Alice", "alice@example.com")
	s.Require().NoError(s.store.CreateAccount(s.ctx, alice))

	first := s.finishedGame(alice.ID, 0, model.WinnerWhite)
	second := s.finishedGame(0, alice.ID, model.WinnerBlack)
	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, first))
	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, second))

	games, err := s.store.ListGamesByAccount(s.ctx, alice.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(games, 2)
	s.Equal(second.ID, games[0].ID)
	s.Equal(first.ID, games[1].ID)

	limited, err := s.store.ListGamesByAccount(s.ctx, alice.ID, 1)
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(second.ID, limited[0].ID)
}

func (s *StoreSuite) TestListGamesByAccountEmpty() {
	games, err := s.store.ListGamesByAccount(s.ctx, 999, 0)
	s.Require().NoError(err)
	s.Empty(games)
}
