package bot

import (
	"math"
	"math/rand"
	"testing"

	"github.com/caffeineism/dizzybeam/internal/tetris"
)

// sequence deals a fixed list of pieces, repeating the last one.
type sequence []tetris.PieceType

func (s *sequence) Next() tetris.PieceType {
	p := (*s)[0]
	if len(*s) > 1 {
		*s = (*s)[1:]
	}
	return p
}

func mustEvaluator(t *testing.T, w tetris.Weights) *tetris.Evaluator {
	t.Helper()
	e, err := tetris.NewEvaluator(w)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func randomBoard(r *rand.Rand, maxHeight int) tetris.Board {
	var b tetris.Board
	h := r.Intn(maxHeight + 1)
	for y := tetris.Height - h; y < tetris.Height; y++ {
		for x := 0; x < tetris.Width; x++ {
			if r.Intn(3) > 0 {
				b.Fill(x, y)
			}
		}
		// Keep at least one gap so the fixture has no full rows.
		gap := r.Intn(tetris.Width)
		b[y] &^= 1 << uint(gap)
	}
	return b
}

func TestGreedyPicksHighestScore(t *testing.T) {
	eval := mustEvaluator(t, tetris.DefaultWeights)
	r := rand.New(rand.NewSource(1))
	g := &Greedy{Eval: eval}
	for i := 0; i < 100; i++ {
		b := randomBoard(r, 10)
		p := tetris.AllPieces[r.Intn(len(tetris.AllPieces))]
		m, ok := g.Choose(p, b)
		if !ok {
			t.Fatalf("no move for %v", p)
		}
		want := math.Inf(-1)
		for _, cand := range tetris.EnumerateMoves(p, b) {
			want = max(want, eval.Score(&cand.Board, cand.Row))
		}
		if got := eval.Score(&m.Board, m.Row); got != want {
			t.Fatalf("chosen score %v, best %v", got, want)
		}
	}
}

func TestGreedyTieGoesToFirstMove(t *testing.T) {
	eval := mustEvaluator(t, make(tetris.Weights, tetris.NumFeatures))
	m, ok := ChooseMove(tetris.L, tetris.Board{}, eval, Params{})
	if !ok {
		t.Fatal("no move on an empty board")
	}
	if m.Rotation != 0 || m.Column != 0 {
		t.Errorf("chose rotation %d column %d, want the first enumerated move", m.Rotation, m.Column)
	}
}

func TestNoMoveOnFullBoard(t *testing.T) {
	eval := mustEvaluator(t, tetris.DefaultWeights)
	var b tetris.Board
	for y := range b {
		b[y] = 1<<tetris.Width - 1
	}
	for _, mode := range []Mode{ModeGreedy, ModeBeam} {
		if _, ok := ChooseMove(tetris.I, b, eval, Params{Mode: mode}); ok {
			t.Errorf("%v found a move on a topped out board", mode)
		}
	}
}

func TestBeamOfOneMatchesGreedy(t *testing.T) {
	eval := mustEvaluator(t, tetris.DefaultWeights)
	r := rand.New(rand.NewSource(2))
	g := &Greedy{Eval: eval}
	beam := NewBeam(eval, 1, 1, nil)
	for i := 0; i < 100; i++ {
		b := randomBoard(r, 12)
		p := tetris.AllPieces[r.Intn(len(tetris.AllPieces))]
		gm, gok := g.Choose(p, b)
		bm, bok := beam.Choose(p, b)
		if gok != bok || gm.Rotation != bm.Rotation || gm.Column != bm.Column {
			t.Fatalf("board %d: greedy %v/%d/%d, beam %v/%d/%d", i, gok, gm.Rotation, gm.Column, bok, bm.Rotation, bm.Column)
		}
	}
}

// bestContinuation is the best score reachable by placing next on the board m
// leaves, optionally clearing m's completed rows first.
func bestContinuation(eval *tetris.Evaluator, m tetris.Move, next tetris.PieceType, clearRows bool) float64 {
	board := m.Board
	if clearRows {
		board, _ = board.ClearFullRows()
	}
	best := math.Inf(-1)
	for _, cand := range tetris.EnumerateMoves(next, board) {
		best = max(best, eval.Score(&cand.Board, cand.Row))
	}
	return best
}

func TestWideBeamIsExhaustive(t *testing.T) {
	eval := mustEvaluator(t, tetris.DefaultWeights)
	for _, clearRows := range []bool{false, true} {
		r := rand.New(rand.NewSource(3))
		for i := 0; i < 30; i++ {
			b := randomBoard(r, 8)
			first := tetris.AllPieces[r.Intn(len(tetris.AllPieces))]
			second := tetris.AllPieces[r.Intn(len(tetris.AllPieces))]

			beam := NewBeam(eval, 1000, 2, &sequence{second})
			beam.ClearRows = clearRows
			m, ok := beam.Choose(first, b)
			if !ok {
				t.Fatalf("no move for %v", first)
			}
			want := math.Inf(-1)
			for _, cand := range tetris.EnumerateMoves(first, b) {
				want = max(want, bestContinuation(eval, cand, second, clearRows))
			}
			if got := bestContinuation(eval, m, second, clearRows); got != want {
				t.Fatalf("clear rows %v, board %d: chosen line scores %v, best line %v", clearRows, i, got, want)
			}
		}
	}
}

func TestBeamKeepsCompletedRowsByDefault(t *testing.T) {
	eval := mustEvaluator(t, tetris.DefaultWeights)
	full := tetris.MustParseBoard(
		"##########",
	)
	frontier := []beamState{{board: full}}

	beam := NewBeam(eval, 5, 2, &sequence{tetris.O})
	for _, c := range beam.expand(frontier, tetris.O, false) {
		if c.board[tetris.Height-1] != full[tetris.Height-1] {
			t.Fatalf("completed row was cleared before the next ply:\n%v", c.board)
		}
		if c.board.Filled() != tetris.Width+4 {
			t.Fatalf("next ply board has %d cells, want %d", c.board.Filled(), tetris.Width+4)
		}
	}

	beam.ClearRows = true
	for _, c := range beam.expand(frontier, tetris.O, false) {
		if c.board.Filled() != 4 {
			t.Fatalf("with ClearRows the next ply board has %d cells, want 4", c.board.Filled())
		}
	}
}

func TestBeamKeepsFrontierWhenLookaheadDiesOut(t *testing.T) {
	eval := mustEvaluator(t, tetris.DefaultWeights)
	// Only an O fits, in the top-left corner. After it lands there is
	// nowhere an I can enter, whether or not its completed row is cleared.
	rows := []string{
		"..######.#",
		"..########",
	}
	for len(rows) < tetris.Height {
		rows = append(rows, "#########.")
	}
	b := tetris.MustParseBoard(rows...)

	for _, clearRows := range []bool{false, true} {
		beam := NewBeam(eval, 3, 3, &sequence{tetris.I})
		beam.ClearRows = clearRows
		m, ok := beam.Choose(tetris.O, b)
		if !ok {
			t.Fatalf("clear rows %v: beam gave up although the first piece fits", clearRows)
		}
		if m.Piece != tetris.O || m.Column != 0 || m.Row != 0 {
			t.Errorf("clear rows %v: chose %+v", clearRows, m.Placement())
		}
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"greedy", ModeGreedy, false},
		{"", ModeGreedy, false},
		{"BEAM", ModeBeam, false},
		{"minimax", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
	if ModeBeam.String() != "beam" {
		t.Errorf("ModeBeam.String() = %q", ModeBeam.String())
	}
}

func TestNewRejectsBadParams(t *testing.T) {
	eval := mustEvaluator(t, tetris.DefaultWeights)
	tests := []struct {
		name string
		eval *tetris.Evaluator
		p    Params
	}{
		{"nil evaluator", nil, Params{}},
		{"negative width", eval, Params{Mode: ModeBeam, BeamWidth: -1}},
		{"negative depth", eval, Params{Mode: ModeBeam, Depth: -2}},
		{"unknown mode", eval, Params{Mode: Mode(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.eval, tt.p); err == nil {
				t.Error("expected error")
			}
			if _, ok := ChooseMove(tetris.T, tetris.Board{}, tt.eval, tt.p); ok {
				t.Error("ChooseMove returned a move for a bad configuration")
			}
		})
	}
}

func TestNewBeamDefaults(t *testing.T) {
	eval := mustEvaluator(t, tetris.DefaultWeights)
	c, err := New(eval, Params{Mode: ModeBeam})
	if err != nil {
		t.Fatal(err)
	}
	beam, ok := c.(*Beam)
	if !ok {
		t.Fatalf("New returned %T", c)
	}
	if beam.Width != DefaultBeamWidth || beam.Depth != DefaultDepth || beam.Source == nil || beam.ClearRows {
		t.Errorf("defaults not applied: %+v", beam)
	}

	c, err = New(eval, Params{Mode: ModeBeam, ClearRows: true})
	if err != nil {
		t.Fatal(err)
	}
	if beam := c.(*Beam); !beam.ClearRows {
		t.Error("ClearRows not passed through")
	}
}
