package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boardblitz/boardblitz/internal/broadcast"
	"github.com/boardblitz/boardblitz/internal/dependencies/clock"
	"github.com/boardblitz/boardblitz/internal/dependencies/random"
	"github.com/boardblitz/boardblitz/internal/model"
	"github.com/boardblitz/boardblitz/internal/registry"
	"github.com/boardblitz/boardblitz/internal/rules"
	"github.com/boardblitz/boardblitz/internal/services/identity"
	"github.com/boardblitz/boardblitz/internal/storage"
)

// Config holds lifecycle tuning. Abandonment thresholds are deliberately
// configuration, not constants.
type Config struct {
	// ClaimAfter is how long a seat must be disconnected before another
	// participant may claim it
	ClaimAfter time.Duration
	// ForfeitAfter is how long a seat may stay disconnected before the
	// sweeper terminates the session as abandoned
	ForfeitAfter time.Duration
	// SweepInterval is how often the abandonment sweeper runs
	SweepInterval time.Duration

	// Persistence hand-off retry budget
	PersistAttempts int
	PersistBackoff  time.Duration
	PersistTimeout  time.Duration
}

// DefaultConfig returns default lifecycle configuration
func DefaultConfig() Config {
	return Config{
		ClaimAfter:      time.Minute,
		ForfeitAfter:    3 * time.Minute,
		SweepInterval:   15 * time.Second,
		PersistAttempts: 5,
		PersistBackoff:  500 * time.Millisecond,
		PersistTimeout:  5 * time.Second,
	}
}

// CreateOptions control session creation
type CreateOptions struct {
	// Color pre-seats the host; empty means a coin flip
	Color model.Color
	// Unlisted hides the session from public discovery
	Unlisted bool
}

// Controller is the lifecycle coordinator: every connection event enters
// here, mutates the registry entry for its code under that code's lane,
// and ends with exactly one broadcast of the full session snapshot
// (chat excepted, which relays a discrete message).
type Controller struct {
	registry    *registry.Registry
	store       storage.Store
	resolver    *identity.Resolver
	engine      rules.Engine
	broadcaster *broadcast.Broadcaster
	clock       clock.Clock
	random      random.Random
	cfg         Config
	logger      *slog.Logger
}

// NewController creates a lifecycle Controller
func NewController(
	reg *registry.Registry,
	store storage.Store,
	resolver *identity.Resolver,
	engine rules.Engine,
	broadcaster *broadcast.Broadcaster,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.PersistAttempts == 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		registry:    reg,
		store:       store,
		resolver:    resolver,
		engine:      engine,
		broadcaster: broadcaster,
		clock:       clk,
		random:      rnd,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "session")),
	}
}

// CreateSession creates a new open session hosted by the given identity,
// pre-seating the host on the requested (or randomly chosen) color
func (c *Controller) CreateSession(ctx context.Context, host model.Identity, opts CreateOptions) (*model.Session, error) {
	now := c.clock.Now()

	color := opts.Color
	if color == "" {
		if c.random.Coin() {
			color = model.ColorWhite
		} else {
			color = model.ColorBlack
		}
	}

	s := &model.Session{
		State:     model.SessionStateOpen,
		Host:      &model.Participant{Identity: host, Connected: true, JoinedAt: now},
		Unlisted:  opts.Unlisted,
		Moves:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.SetSeat(color, &model.Participant{Identity: host, Connected: true, JoinedAt: now})

	code, err := c.registry.Create(s)
	if err != nil {
		return nil, err
	}

	c.logger.Info("session created",
		slog.String("code", string(code)),
		slog.String("host", string(host.Key())),
		slog.String("color", string(color)),
		slog.Bool("unlisted", opts.Unlisted))

	return s.Clone(), nil
}

// JoinAsPlayer seats the joiner on the requested color. When both seats
// are filled the session becomes active.
func (c *Controller) JoinAsPlayer(ctx context.Context, code model.GameCode, joiner model.Identity, color model.Color) (*model.Session, error) {
	var snap *model.Session
	err := c.registry.WithSession(code, func(s *model.Session) error {
		if s.IsTerminal() {
			return model.ErrSessionComplete
		}
		if s.Seat(color) != nil {
			return model.ErrSeatTaken
		}
		if _, p := s.SeatOf(joiner.Key()); p != nil {
			return model.ErrAlreadySeated
		}

		now := c.clock.Now()

		// A seated player is never simultaneously an observer
		c.removeObserver(s, joiner.Key(), code, false)

		s.SetSeat(color, &model.Participant{Identity: joiner, Connected: true, JoinedAt: now})
		if s.BothSeated() && s.StartedAt == nil {
			s.State = model.SessionStateActive
			s.StartedAt = &now
		}
		s.UpdatedAt = now

		c.registry.IndexParticipant(joiner.Key(), code)
		c.broadcaster.PublishSnapshot(s)
		snap = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// JoinLobby adds the identity as an observer, or restores the connection
// flag when the identity already holds a slot (reconnect catch-up)
func (c *Controller) JoinLobby(ctx context.Context, code model.GameCode, joiner model.Identity) (*model.Session, error) {
	var snap *model.Session
	err := c.registry.WithSession(code, func(s *model.Session) error {
		now := c.clock.Now()

		if p := s.Participant(joiner.Key()); p != nil {
			// Reconnect before the claim window closes leaves the slot
			// identity untouched
			p.Connected = true
			p.DisconnectedAt = nil
		} else {
			s.Observers = append(s.Observers, model.Participant{
				Identity:  joiner,
				Connected: true,
				JoinedAt:  now,
			})
			c.registry.IndexParticipant(joiner.Key(), code)
		}

		s.UpdatedAt = now
		c.broadcaster.PublishSnapshot(s)
		snap = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Disconnect marks a seated participant or host as disconnected and
// removes observers outright. The session is never terminated here;
// abandonment is the sweeper's call.
func (c *Controller) Disconnect(ctx context.Context, code model.GameCode, key model.ParticipantKey) error {
	return c.registry.WithSession(code, func(s *model.Session) error {
		now := c.clock.Now()

		if _, p := s.SeatOf(key); p != nil {
			p.Connected = false
			p.DisconnectedAt = &now
			if s.Host != nil && s.Host.Identity.Key() == key {
				s.Host.Connected = false
				s.Host.DisconnectedAt = &now
			}
		} else if s.Host != nil && s.Host.Identity.Key() == key {
			s.Host.Connected = false
			s.Host.DisconnectedAt = &now
		} else if s.Observer(key) != nil {
			// Observers hold no game stake; drop the slot
			c.removeObserver(s, key, code, true)
		} else {
			return model.ErrNotInSession
		}

		s.UpdatedAt = now
		c.broadcaster.PublishSnapshot(s)
		return nil
	})
}

// SendMove applies a move for the sender's seat. Legality and terminal
// detection are entirely the rules engine's; a terminal verdict records
// the outcome and hands the session to persistence.
func (c *Controller) SendMove(ctx context.Context, code model.GameCode, sender model.Identity, notation string) (*model.Session, error) {
	var snap *model.Session
	err := c.registry.WithSession(code, func(s *model.Session) error {
		if s.IsTerminal() {
			return model.ErrSessionComplete
		}
		if s.State != model.SessionStateActive {
			return model.ErrSessionNotActive
		}

		color, p := s.SeatOf(sender.Key())
		if p == nil {
			return model.ErrNotSeated
		}

		verdict, err := c.engine.Apply(s.Moves, rules.Move{Color: color, Notation: notation})
		if err != nil {
			return err
		}

		s.Moves = verdict.Moves
		s.UpdatedAt = c.clock.Now()

		if verdict.Outcome != nil {
			c.terminate(s, *verdict.Outcome)
		} else {
			c.broadcaster.PublishSnapshot(s)
		}
		snap = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Chat relays a message to the session's broadcast audience only.
// Messages are never persisted and never produce a snapshot.
func (c *Controller) Chat(ctx context.Context, code model.GameCode, from model.Identity, text string) error {
	return c.registry.WithSession(code, func(s *model.Session) error {
		if s.Participant(from.Key()) == nil {
			return model.ErrNotInSession
		}
		c.broadcaster.PublishChat(code, broadcast.ChatMessage{
			ID:     uuid.NewString(),
			From:   from,
			Text:   text,
			SentAt: c.clock.Now(),
		})
		return nil
	})
}

// ClaimAbandoned lets a participant take over a seat whose occupant has
// been disconnected past the claim threshold. An observer claiming the
// seat replaces its identity in place; the opposing player claiming it
// ends the game as abandoned in their favor (one identity never holds
// both colors).
func (c *Controller) ClaimAbandoned(ctx context.Context, code model.GameCode, claimant model.Identity, color model.Color) (*model.Session, error) {
	var snap *model.Session
	err := c.registry.WithSession(code, func(s *model.Session) error {
		if s.IsTerminal() {
			return model.ErrSessionComplete
		}
		if s.State != model.SessionStateActive {
			return model.ErrSessionNotActive
		}

		seat := s.Seat(color)
		if seat == nil || seat.Connected || seat.DisconnectedAt == nil {
			return model.ErrSeatNotAbandoned
		}
		if c.clock.Now().Sub(*seat.DisconnectedAt) < c.cfg.ClaimAfter {
			return model.ErrClaimTooEarly
		}
		if s.Participant(claimant.Key()) == nil {
			return model.ErrNotInSession
		}

		now := c.clock.Now()

		if opponentColor, p := s.SeatOf(claimant.Key()); p != nil {
			if opponentColor == color {
				// Claiming one's own seat is just a reconnect
				return model.ErrSeatNotAbandoned
			}
			winner := model.WinnerWhite
			if opponentColor == model.ColorBlack {
				winner = model.WinnerBlack
			}
			c.terminate(s, model.Outcome{Winner: winner, Reason: model.EndReasonAbandoned})
			snap = s.Clone()
			return nil
		}

		// Observer (or host) takes over the seat in place
		oldKey := seat.Identity.Key()
		c.removeObserver(s, claimant.Key(), code, false)
		seat.Identity = claimant
		seat.Connected = true
		seat.DisconnectedAt = nil
		s.UpdatedAt = now

		c.registry.IndexParticipant(claimant.Key(), code)
		if s.Participant(oldKey) == nil {
			c.registry.UnindexParticipant(oldKey, code)
		}

		c.logger.Info("abandoned seat claimed",
			slog.String("code", string(code)),
			slog.String("color", string(color)),
			slog.String("claimant", string(claimant.Key())))

		c.broadcaster.PublishSnapshot(s)
		snap = s.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// GetSnapshot returns the current full session state (reconnect catch-up)
func (c *Controller) GetSnapshot(code model.GameCode) (*model.Session, error) {
	return c.registry.Snapshot(code)
}

// ListPublic returns active, listed sessions for discovery
func (c *Controller) ListPublic() []*model.Session {
	return c.registry.ListPublic()
}

// FindSessionFor returns the active session containing the identity, if
// any (login-time game recovery)
func (c *Controller) FindSessionFor(key model.ParticipantKey) (*model.Session, bool) {
	code, ok := c.registry.FindByParticipant(key)
	if !ok {
		return nil, false
	}
	snap, err := c.registry.Snapshot(code)
	if err != nil {
		return nil, false
	}
	return snap, true
}

// ReconcileIdentity migrates a guest's slots to the freshly resolved
// persistent identity and broadcasts every affected session. The acting
// connection's guest key must match the slots being replaced; the
// registry guarantees only that key's slots are touched.
func (c *Controller) ReconcileIdentity(ctx context.Context, guestKey model.ParticipantKey, ref identity.ActorRef) ([]model.GameCode, error) {
	resolved, err := c.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	affected := c.registry.SubstituteIdentity(guestKey, resolved)
	for _, code := range affected {
		_ = c.registry.WithSession(code, func(s *model.Session) error {
			c.broadcaster.PublishSnapshot(s)
			return nil
		})
	}
	return affected, nil
}

// terminate records the outcome exactly once, broadcasts the terminal
// snapshot and hands the session off to persistence. Callers hold the
// session's lane.
func (c *Controller) terminate(s *model.Session, outcome model.Outcome) {
	now := c.clock.Now()
	s.Outcome = &outcome
	s.State = model.SessionStateTerminal
	s.EndedAt = &now
	s.UpdatedAt = now

	c.logger.Info("session terminal",
		slog.String("code", string(s.Code)),
		slog.String("winner", string(outcome.Winner)),
		slog.String("reason", string(outcome.Reason)))

	c.broadcaster.PublishSnapshot(s)

	// Persistence retries happen off the lane; the session stays in the
	// registry (rejecting further events as complete) until the write
	// lands or the retry budget runs out.
	go c.persistAndRemove(s.Clone())
}

// persistAndRemove writes the completed session to the durable store with
// bounded retries and backoff, then discards the in-memory entry. Retry
// exhaustion loses the record; that is an acknowledged cost of the
// single-process design.
func (c *Controller) persistAndRemove(snap *model.Session) {
	rec := recordFrom(snap)

	backoff := c.cfg.PersistBackoff
	var lastErr error
	for attempt := 1; attempt <= c.cfg.PersistAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PersistTimeout)
		lastErr = c.store.SaveCompletedGame(ctx, rec)
		cancel()
		if lastErr == nil {
			c.logger.Info("session persisted",
				slog.String("code", string(snap.Code)),
				slog.Int64("record_id", rec.ID),
				slog.Int("attempt", attempt))
			break
		}
		c.logger.Warn("persist attempt failed",
			slog.String("code", string(snap.Code)),
			slog.Int("attempt", attempt),
			slog.Any("error", lastErr))
		if attempt < c.cfg.PersistAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	if lastErr != nil {
		c.logger.Error("persist retries exhausted, discarding session",
			slog.String("code", string(snap.Code)),
			slog.Any("error", fmt.Errorf("%w: %w", model.ErrPersistenceFailed, lastErr)))
	}

	_ = c.registry.WithSession(snap.Code, func(s *model.Session) error {
		c.registry.Remove(snap.Code)
		return nil
	})
	c.broadcaster.SessionClosed(snap.Code)
}

// discard drops a session that never became active; nothing to persist.
// Callers hold the session's lane.
func (c *Controller) discard(s *model.Session) {
	c.registry.Remove(s.Code)
	c.broadcaster.SessionClosed(s.Code)
	c.logger.Info("open session discarded", slog.String("code", string(s.Code)))
}

// removeObserver drops the identity's observer slot if present. When
// unindex is set and the identity holds no other slot, its index entry
// is dropped too.
func (c *Controller) removeObserver(s *model.Session, key model.ParticipantKey, code model.GameCode, unindex bool) {
	for i := range s.Observers {
		if s.Observers[i].Identity.Key() == key {
			s.Observers = append(s.Observers[:i], s.Observers[i+1:]...)
			if unindex && s.Participant(key) == nil {
				c.registry.UnindexParticipant(key, code)
			}
			return
		}
	}
}

// recordFrom freezes a terminal session into its durable form
func recordFrom(s *model.Session) *model.GameRecord {
	rec := &model.GameRecord{
		Code:    s.Code,
		Moves:   strings.Join(s.Moves, " "),
		EndedAt: *s.EndedAt,
	}
	if s.Outcome != nil {
		rec.Winner = s.Outcome.Winner
		rec.Reason = s.Outcome.Reason
	}
	if s.StartedAt != nil {
		rec.StartedAt = *s.StartedAt
	} else {
		rec.StartedAt = s.CreatedAt
	}
	if s.White != nil {
		rec.WhiteAccount = s.White.Identity.AccountID
		rec.WhiteName = s.White.Identity.DisplayName
	}
	if s.Black != nil {
		rec.BlackAccount = s.Black.Identity.AccountID
		rec.BlackName = s.Black.Identity.DisplayName
	}
	return rec
}
