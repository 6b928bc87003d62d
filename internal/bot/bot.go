// Package bot picks placements for a piece: greedily over a single ply, or
// with a bounded-width beam search over several.
package bot

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/caffeineism/dizzybeam/internal/tetris"
)

// Chooser decides where the current piece goes. ok is false when the piece
// has no legal placement, which callers treat as a top-out.
type Chooser interface {
	Choose(t tetris.PieceType, b tetris.Board) (m tetris.Move, ok bool)
}

// Mode selects the decision procedure.
type Mode int

const (
	ModeGreedy Mode = iota
	ModeBeam
)

func (m Mode) String() string {
	switch m {
	case ModeGreedy:
		return "greedy"
	case ModeBeam:
		return "beam"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode reads "greedy" or "beam".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "greedy", "":
		return ModeGreedy, nil
	case "beam":
		return ModeBeam, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

const (
	DefaultBeamWidth = 5
	DefaultDepth     = 2
)

// Params configures New and ChooseMove. Zero BeamWidth and Depth take the
// defaults; a nil Source draws lookahead pieces uniformly at random.
// ClearRows is passed through to Beam.
type Params struct {
	Mode      Mode
	BeamWidth int
	Depth     int
	Source    tetris.Source
	ClearRows bool
}

var errNilEvaluator = errors.New("nil evaluator")

// New builds the chooser described by p.
func New(eval *tetris.Evaluator, p Params) (Chooser, error) {
	if eval == nil {
		return nil, errNilEvaluator
	}
	switch p.Mode {
	case ModeGreedy:
		return &Greedy{Eval: eval}, nil
	case ModeBeam:
		if p.BeamWidth < 0 || p.Depth < 0 {
			return nil, fmt.Errorf("beam width %d and depth %d must not be negative", p.BeamWidth, p.Depth)
		}
		beam := NewBeam(eval, p.BeamWidth, p.Depth, p.Source)
		beam.ClearRows = p.ClearRows
		return beam, nil
	}
	return nil, fmt.Errorf("unknown mode %v", p.Mode)
}

// ChooseMove is the one-shot form of New(...).Choose. A bad configuration
// reads as no move.
func ChooseMove(t tetris.PieceType, b tetris.Board, eval *tetris.Evaluator, p Params) (tetris.Move, bool) {
	c, err := New(eval, p)
	if err != nil {
		return tetris.Move{}, false
	}
	return c.Choose(t, b)
}

// Greedy scores every placement of the current piece and keeps the best.
// Ties go to the placement enumerated first.
type Greedy struct {
	Eval *tetris.Evaluator

	moves []tetris.Move // Reused between calls to save allocation time.
}

func (g *Greedy) Choose(t tetris.PieceType, b tetris.Board) (tetris.Move, bool) {
	g.moves = tetris.AppendMoves(g.moves[:0], t, b)
	return bestMove(g.Eval, g.moves)
}

func bestMove(eval *tetris.Evaluator, moves []tetris.Move) (tetris.Move, bool) {
	bestScore := math.Inf(-1)
	best := -1
	for i := range moves {
		score := eval.Score(&moves[i].Board, moves[i].Row)
		if score > bestScore || best < 0 {
			bestScore = score
			best = i
		}
	}
	if best < 0 {
		return tetris.Move{}, false
	}
	return moves[best], true
}
