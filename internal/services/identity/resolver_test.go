package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/services/identity"
	"github.com/boardblitz/boardblitz/internal/storage/memory"
)

type ResolverSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	resolver *identity.Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.resolver = identity.New(s.store)
}

func (s *ResolverSuite) TestResolveAccount() {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	acct := &model.Account{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "irrelevant",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.store.CreateAccount(s.ctx, acct))

	resolved, err := s.resolver.Resolve(s.ctx, identity.ActorRef{AccountID: acct.ID})
	s.Require().NoError(err)
	s.Equal(acct.ID, resolved.AccountID)
	s.Equal("Alice", resolved.DisplayName)
	s.False(resolved.IsGuest())
}

func (s *ResolverSuite) TestResolveGuest() {
	resolved, err := s.resolver.Resolve(s.ctx, identity.ActorRef{
		GuestID:     "g1",
		DisplayName: "Watcher",
	})
	s.Require().NoError(err)
	s.Equal("g1", resolved.GuestID)
	s.Equal("Watcher", resolved.DisplayName)
	s.True(resolved.IsGuest())
}

func (s *ResolverSuite) TestResolveUnknownAccount() {
	_, err := s.resolver.Resolve(s.ctx, identity.ActorRef{AccountID: 999})
	s.Require().ErrorIs(err, model.ErrIdentityNotFound)
}
