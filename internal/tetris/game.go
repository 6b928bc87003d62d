package tetris

// Game is one play session: the board, the piece sequence and the running
// totals. Nothing in it is shared, so any number of games can run side by
// side.
type Game struct {
	Board      Board
	Current    Piece
	Next       PieceType
	Lines      int
	Points     int
	Placements int

	source Source
	random Rand
}

// NewGame starts an empty board fed by src. r picks spawn columns; with a
// nil r pieces spawn centered.
func NewGame(src Source, r Rand) *Game {
	g := &Game{source: src, random: r}
	g.Current = g.spawn(src.Next())
	g.Next = src.Next()
	return g
}

// spawn places a new piece in rotation 0 at the top of the board.
func (g *Game) spawn(t PieceType) Piece {
	x := (Width - t.Size()) / 2
	if g.random != nil {
		x = g.random.Intn(Width - t.Size() + 1)
	}
	return Piece{Type: t, X: x}
}

// Blocked reports whether the freshly spawned piece already overlaps the
// stack, which ends a live game.
func (g *Game) Blocked() bool {
	return g.Board.Collides(g.Current.Type, g.Current.Rotation, g.Current.X, g.Current.Y)
}

// Place locks a move chosen for the current piece, clears full rows, updates
// the totals and advances the piece sequence. It returns the number of rows
// cleared.
func (g *Game) Place(m Move) int {
	var lines int
	g.Board, lines = m.Board.ClearFullRows()
	g.Lines += lines
	g.Points += Points(lines)
	g.Placements++
	g.Current = g.spawn(g.Next)
	g.Next = g.source.Next()
	return lines
}

// Points is the live-play reward for one lock: 100 doubling per extra row
// cleared at once, or 10 when nothing clears.
func Points(cleared int) int {
	if cleared <= 0 {
		return 10
	}
	return 100 << (cleared - 1)
}
