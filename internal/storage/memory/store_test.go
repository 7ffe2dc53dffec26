package memory

import (
	"context"
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
	s.store = New()
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
	s.Equal("e4 e5", got.Moves)
	s.Equal(model.WinnerWhite, got.Winner)
}

func (s *StoreSuite) TestGetCompletedGameNotFound() {
	_, err := s.store.GetCompletedGame(s.ctx, 999)
	s.ErrorIs(err, model.ErrGameRecordNotFound)
}

func (s *StoreSuite) TestCountersBumpRegisteredSidesOnly() {
	alice := s.newAccount("Alice", "alice@example.com")
	s.Require().NoError(s.store.CreateAccount(s.ctx, alice))

	// Alice as white beats a guest
	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, s.finishedGame(alice.ID, 0, model.WinnerWhite)))
	// Alice as black loses to a guest
	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, s.finishedGame(0, alice.ID, model.WinnerWhite)))
	// Draw against a guest
	s.Require().NoError(s.store.SaveCompletedGame(s.ctx, s.finishedGame(alice.ID, 0, model.WinnerDraw)))

	got, err := s.store.GetAccount(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Wins)
	s.Equal(1, got.Losses)
	s.Equal(1, got.Draws)
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
