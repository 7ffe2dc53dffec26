// Package rules defines the boundary to the game-rules engine. The live
// session core never derives move legality or terminal conditions itself;
// it hands the current move log and the candidate move to an Engine and
// propagates whatever comes back.
package rules

import "github.com/boardblitz/boardblitz/internal/model"

// Move is a candidate move from the seat holding the given color
type Move struct {
	Color    model.Color
	Notation string
}

// Verdict is the engine's accepted result: the updated legal move log and,
// when the move ended the game, the terminal outcome
type Verdict struct {
	Moves   []string
	Outcome *model.Outcome
}

// Engine validates moves and detects terminal conditions. Rejections are
// returned as model.ErrNotYourTurn or model.ErrIllegalMove so callers can
// map them onto the wire taxonomy.
type Engine interface {
	Apply(moves []string, mv Move) (*Verdict, error)
}
