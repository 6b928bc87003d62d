package tetris

// Move is a final resting placement together with the board it produces.
// Row is the landing row of the piece's frame after gravity.
type Move struct {
	Piece    PieceType
	Rotation int
	Column   int
	Row      int
	Board    Board
}

// Placement returns the piece instance the move puts on the board.
func (m Move) Placement() Piece {
	return Piece{Type: m.Piece, Rotation: m.Rotation, X: m.Column, Y: m.Row}
}

// Drop simulates gravity for a piece entering at row 0. It returns the last
// legal row before the piece would collide or leave the board. ok is false
// when the piece cannot even enter at row 0.
func Drop(b *Board, t PieceType, rotation, x int) (row int, ok bool) {
	if b.Collides(t, rotation, x, 0) {
		return 0, false
	}
	for !b.Collides(t, rotation, x, row+1) {
		row++
	}
	return row, true
}

// EnumerateMoves returns one move for every reachable (rotation, column)
// pair. An empty result means the board is topped out for this piece.
func EnumerateMoves(t PieceType, b Board) []Move {
	return AppendMoves(make([]Move, 0, NumRotations*(Width-t.Size()+1)), t, b)
}

// AppendMoves is EnumerateMoves writing into dst, so hot loops can reuse a
// slice between placements.
func AppendMoves(dst []Move, t PieceType, b Board) []Move {
	for rot := 0; rot < NumRotations; rot++ {
		for x := 0; x <= Width-t.Size(); x++ {
			row, ok := Drop(&b, t, rot, x)
			if !ok {
				continue // Unreachable: the column is already full at spawn.
			}
			m := Move{Piece: t, Rotation: rot, Column: x, Row: row}
			m.Board = ApplyMove(b, m)
			dst = append(dst, m)
		}
	}
	return dst
}

// ApplyMove returns a copy of b with the move's cells filled. Cells that fall
// outside the board rows are dropped.
func ApplyMove(b Board, m Move) Board {
	for c := range m.Piece.Cells(m.Rotation, m.Column, m.Row) {
		b.Fill(c.X, c.Y)
	}
	return b
}
