package rules

import (
	"strings"

	"github.com/boardblitz/boardblitz/internal/model"
)

// NotationEngine is a notation-level stand-in for a full chess validator.
// It enforces turn alternation (white on even plies) and recognizes the
// terminal markers below, but does not validate piece movement. The real
// validator implements Engine and replaces it at wiring time.
type NotationEngine struct{}

// Terminal markers the stand-in understands. Repetition and
// insufficient-material endings need board state and wait for the real
// validator.
const (
	drawToken       = "1/2-1/2"
	stalemateMarker = "(=)"
)

// NewNotationEngine creates a NotationEngine
func NewNotationEngine() *NotationEngine {
	return &NotationEngine{}
}

var _ Engine = (*NotationEngine)(nil)

// Apply appends the move if it is the mover's turn and the notation is
// non-empty. A trailing '#' ends the game with checkmate for the mover;
// the PGN result token "1/2-1/2" records an agreed draw and a trailing
// "(=)" marks the move as delivering stalemate.
func (e *NotationEngine) Apply(moves []string, mv Move) (*Verdict, error) {
	turn := model.ColorWhite
	if len(moves)%2 == 1 {
		turn = model.ColorBlack
	}
	if mv.Color != turn {
		return nil, model.ErrNotYourTurn
	}

	notation := strings.TrimSpace(mv.Notation)
	if notation == "" {
		return nil, model.ErrIllegalMove
	}

	updated := make([]string, len(moves), len(moves)+1)
	copy(updated, moves)
	updated = append(updated, notation)

	verdict := &Verdict{Moves: updated}
	switch {
	case notation == drawToken:
		verdict.Outcome = &model.Outcome{Winner: model.WinnerDraw, Reason: model.EndReasonDraw}
	case strings.HasSuffix(notation, stalemateMarker):
		verdict.Outcome = &model.Outcome{Winner: model.WinnerDraw, Reason: model.EndReasonStalemate}
	case strings.HasSuffix(notation, "#"):
		winner := model.WinnerWhite
		if mv.Color == model.ColorBlack {
			winner = model.WinnerBlack
		}
		verdict.Outcome = &model.Outcome{Winner: winner, Reason: model.EndReasonCheckmate}
	}
	return verdict, nil
}
