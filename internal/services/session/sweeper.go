package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/boardblitz/boardblitz/internal/model"
)

// Sweeper periodically scans the registry for sessions whose seats have
// been disconnected past the forfeit threshold and terminates them. Each
// session is judged under its own lane, so the sweep never races a
// reconnect: a participant who comes back between the scan and the
// verdict wins.
type Sweeper struct {
	controller *Controller
	interval   time.Duration
	logger     *slog.Logger
}

// NewSweeper creates a Sweeper driven by the controller's configuration
func NewSweeper(controller *Controller, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		controller: controller,
		interval:   controller.cfg.SweepInterval,
		logger:     logger.With(slog.String("component", "sweeper")),
	}
}

// Run sweeps on the configured interval until the context is cancelled
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("abandonment sweeper started", slog.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("abandonment sweeper stopped")
			return
		case <-ticker.C:
			w.SweepOnce()
		}
	}
}

// SweepOnce runs a single sweep pass over every registered session
func (w *Sweeper) SweepOnce() {
	c := w.controller
	for _, code := range c.registry.Codes() {
		err := c.registry.WithSession(code, func(s *model.Session) error {
			w.judge(s)
			return nil
		})
		if err != nil {
			// Session vanished between the scan and the lane; fine
			continue
		}
	}
	c.broadcaster.CleanupHubs()
}

// judge decides one session's fate under its lane
func (w *Sweeper) judge(s *model.Session) {
	c := w.controller
	now := c.clock.Now()

	if s.IsTerminal() {
		return
	}

	if s.State == model.SessionStateOpen {
		// A lobby nobody is connected to anymore has nothing to forfeit
		// or persist; it is simply discarded once the window passes.
		if oldest, all := disconnectedSince(s, now); all && oldest >= c.cfg.ForfeitAfter {
			c.discard(s)
		}
		return
	}

	whiteGone := seatGone(s.White, now, c.cfg.ForfeitAfter)
	blackGone := seatGone(s.Black, now, c.cfg.ForfeitAfter)

	switch {
	case whiteGone && blackGone:
		w.logger.Info("both seats abandoned", slog.String("code", string(s.Code)))
		c.terminate(s, model.Outcome{Winner: model.WinnerDraw, Reason: model.EndReasonAbandoned})
	case whiteGone:
		w.logger.Info("white seat abandoned", slog.String("code", string(s.Code)))
		c.terminate(s, model.Outcome{Winner: model.WinnerBlack, Reason: model.EndReasonAbandoned})
	case blackGone:
		w.logger.Info("black seat abandoned", slog.String("code", string(s.Code)))
		c.terminate(s, model.Outcome{Winner: model.WinnerWhite, Reason: model.EndReasonAbandoned})
	}
}

// seatGone reports whether the seat has been disconnected at least the
// threshold. The host slot never forfeits a game; only seats do.
func seatGone(p *model.Participant, now time.Time, threshold time.Duration) bool {
	return p != nil && !p.Connected && p.DisconnectedAt != nil &&
		now.Sub(*p.DisconnectedAt) >= threshold
}

// disconnectedSince reports the longest current disconnection across all
// slots and whether every slot is disconnected
func disconnectedSince(s *model.Session, now time.Time) (time.Duration, bool) {
	var oldest time.Duration
	slots := []*model.Participant{s.Host, s.White, s.Black}
	seen := false
	for _, p := range slots {
		if p == nil {
			continue
		}
		seen = true
		if p.Connected || p.DisconnectedAt == nil {
			return 0, false
		}
		if d := now.Sub(*p.DisconnectedAt); d > oldest {
			oldest = d
		}
	}
	for i := range s.Observers {
		if s.Observers[i].Connected {
			return 0, false
		}
	}
	return oldest, seen
}
