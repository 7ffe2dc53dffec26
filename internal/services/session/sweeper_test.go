package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/boardblitz/boardblitz/internal/broadcast"
	"github.com/boardblitz/boardblitz/internal/dependencies/mocks"
	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/registry"
	"github.com/boardblitz/boardblitz/internal/rules"
	"github.com/boardblitz/boardblitz/internal/services/identity"
	"github.com/boardblitz/boardblitz/internal/services/session"
	"github.com/boardblitz/boardblitz/internal/storage/memory"
	"github.com/boardblitz/boardblitz/internal/testutil"
)

type SweeperSuite struct {
	suite.Suite
	ctx context.Context

	store       *memory.Store
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	registry    *registry.Registry
	coordinator *session.Controller
	sweeper     *session.Sweeper
}

func TestSweeperSuite(t *testing.T) {
	suite.Run(t, new(SweeperSuite))
}

func (s *SweeperSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.ctx = context.Background()
	s.store = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.registry = registry.New(registry.DefaultConfig(), s.random, logger)
	hubs := broadcast.NewHubManager(logger)

	cfg := session.Config{
		ClaimAfter:      time.Minute,
		ForfeitAfter:    3 * time.Minute,
		SweepInterval:   15 * time.Second,
		PersistAttempts: 3,
		PersistBackoff:  10 * time.Millisecond,
		PersistTimeout:  time.Second,
	}
	s.coordinator = session.NewController(
		s.registry,
		s.store,
		identity.New(s.store),
		rules.NewNotationEngine(),
		broadcast.NewBroadcaster(hubs, logger),
		s.clock,
		s.random,
		cfg,
		logger,
	)
	s.sweeper = session.NewSweeper(s.coordinator, logger)
}

func (s *SweeperSuite) activeSession() model.GameCode {
	s.random.QueueString("code01")
	created, err := s.coordinator.CreateSession(s.ctx, guest("g1", "Ann"), session.CreateOptions{Color: model.ColorWhite})
	s.Require().NoError(err)
	_, err = s.coordinator.JoinAsPlayer(s.ctx, created.Code, guest("g2", "Ben"), model.ColorBlack)
	s.Require().NoError(err)
	return created.Code
}

func (s *SweeperSuite) TestSweepIgnoresHealthySessions() {
	s.activeSession()

	s.clock.Advance(10 * time.Minute)
	s.sweeper.SweepOnce()

	s.Equal(1, s.registry.Len(), "connected sessions are never swept")
}

func (s *SweeperSuite) TestSweepForfeitsSingleAbandonedSeat() {
	code := s.activeSession()

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, code, model.GuestKey("g1")))

	// Below the threshold nothing happens
	s.clock.Advance(2 * time.Minute)
	s.sweeper.SweepOnce()
	s.Equal(1, s.registry.Len())

	s.clock.Advance(2 * time.Minute)
	s.sweeper.SweepOnce()

	s.Require().Eventually(func() bool {
		return s.registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	rec, err := s.store.GetCompletedGame(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(model.WinnerBlack, rec.Winner)
	s.Equal(model.EndReasonAbandoned, rec.Reason)
}

func (s *SweeperSuite) TestSweepDrawsWhenBothSeatsAbandoned() {
	code := s.activeSession()

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, code, model.GuestKey("g1")))
	s.Require().NoError(s.coordinator.Disconnect(s.ctx, code, model.GuestKey("g2")))

	s.clock.Advance(4 * time.Minute)
	s.sweeper.SweepOnce()

	s.Require().Eventually(func() bool {
		return s.registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	rec, err := s.store.GetCompletedGame(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(model.WinnerDraw, rec.Winner)
	s.Equal(model.EndReasonAbandoned, rec.Reason)
}

func (s *SweeperSuite) TestReconnectBeforeSweepWins() {
	code := s.activeSession()

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, code, model.GuestKey("g1")))
	s.clock.Advance(4 * time.Minute)

	// Ann comes back just before the sweep runs
	_, err := s.coordinator.JoinLobby(s.ctx, code, guest("g1", "Ann"))
	s.Require().NoError(err)

	s.sweeper.SweepOnce()
	s.Equal(1, s.registry.Len())
}

func (s *SweeperSuite) TestSweepDiscardsDeadOpenLobby() {
	s.random.QueueString("code01")
	created, err := s.coordinator.CreateSession(s.ctx, guest("g1", "Ann"), session.CreateOptions{Color: model.ColorWhite})
	s.Require().NoError(err)

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, created.Code, model.GuestKey("g1")))
	s.clock.Advance(4 * time.Minute)
	s.sweeper.SweepOnce()

	s.Equal(0, s.registry.Len())

	// Never active, so nothing was persisted
	_, err = s.store.GetCompletedGame(s.ctx, 1)
	s.Require().ErrorIs(err, model.ErrGameRecordNotFound)
}
