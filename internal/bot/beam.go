package bot

import (
	"sort"

	"github.com/caffeineism/dizzybeam/internal/tetris"
)

// Beam looks Depth pieces ahead, keeping the Width best boards between plies.
// Only the first ply uses the real piece; later plies draw from Source, which
// need not match the live piece sequence. Only the first placement of the
// winning line is returned.
//
// A Beam is not safe for concurrent use.
type Beam struct {
	Eval   *tetris.Evaluator
	Width  int
	Depth  int
	Source tetris.Source
	// ClearRows clears rows completed on one ply before the next piece is
	// placed on that board. Off by default: later plies see the board exactly
	// as the previous move left it.
	ClearRows bool

	moves []tetris.Move
}

// beamState is one frontier entry: a board reached from the real board and
// the first move that led to it.
type beamState struct {
	board tetris.Board
	first tetris.Move
	score float64
}

// NewBeam fills in defaults for zero width and depth and a uniform random
// source for a nil one.
func NewBeam(eval *tetris.Evaluator, width, depth int, src tetris.Source) *Beam {
	if width == 0 {
		width = DefaultBeamWidth
	}
	if depth == 0 {
		depth = DefaultDepth
	}
	if src == nil {
		src = tetris.NewUniformSource(tetris.NewRand(0))
	}
	return &Beam{Eval: eval, Width: width, Depth: depth, Source: src}
}

func (s *Beam) Choose(t tetris.PieceType, b tetris.Board) (tetris.Move, bool) {
	width, levels := max(s.Width, 1), max(s.Depth, 1)
	frontier := []beamState{{board: b}}
	for depth := 0; depth < levels; depth++ {
		piece := t
		if depth > 0 {
			piece = s.Source.Next()
		}
		candidates := s.expand(frontier, piece, depth == 0)
		if len(candidates) == 0 {
			if depth == 0 {
				return tetris.Move{}, false
			}
			// Every line died out; keep the best boards we already had.
			break
		}
		// Stable so equal scores keep enumeration order, the same tie-break
		// the greedy chooser uses.
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score > candidates[j].score
		})
		if len(candidates) > width {
			candidates = candidates[:width]
		}
		frontier = candidates
	}
	return frontier[0].first, true
}

// expand places piece on every frontier board. With ClearRows set, rows
// completed on an earlier ply are removed first; the board being scored
// always keeps its own completed rows so they still count.
func (s *Beam) expand(frontier []beamState, piece tetris.PieceType, root bool) []beamState {
	var candidates []beamState
	for _, state := range frontier {
		board := state.board
		if s.ClearRows && !root {
			board, _ = board.ClearFullRows()
		}
		s.moves = tetris.AppendMoves(s.moves[:0], piece, board)
		for _, m := range s.moves {
			next := beamState{
				board: m.Board,
				first: state.first,
				score: s.Eval.Score(&m.Board, m.Row),
			}
			if root {
				next.first = m
			}
			candidates = append(candidates, next)
		}
	}
	return candidates
}
