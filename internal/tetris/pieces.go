package tetris

import (
	"fmt"
	"iter"
	"strings"
)

// PieceType identifies one of the seven tetrominoes.
type PieceType uint8

const (
	I PieceType = iota
	J
	L
	O
	S
	T
	Z
)

const (
	numPieces    = 7
	NumRotations = 4
	pieceCells   = 4 // Filled cells in every tetromino.
	formCols     = 4 // Side of the bounding frame every rotation mask lives in.
)

// AllPieces lists every piece type in catalogue order.
var AllPieces = [numPieces]PieceType{I, J, L, O, S, T, Z}

var pieceNames = [numPieces]string{"I", "J", "L", "O", "S", "T", "Z"}

// Each rotation is a 16 bit mask of a 4x4 frame read row by row, most
// significant bit first. The top-left cell of the frame is 0x8000.
//
// T-piece, rotation 0 (0x0E40):
// 0000
// 1110
// 0100
// 0000
var pieceMasks = [numPieces][NumRotations]uint16{
	I: {0x0F00, 0x2222, 0x00F0, 0x4444},
	J: {0x44C0, 0x8E00, 0x6440, 0x0E20},
	L: {0x4460, 0x0E80, 0xC440, 0x2E00},
	O: {0xCC00, 0xCC00, 0xCC00, 0xCC00},
	S: {0x06C0, 0x8C40, 0x6C00, 0x4620},
	T: {0x0E40, 0x4C40, 0x4E00, 0x4640},
	Z: {0x0C60, 0x4C80, 0xC600, 0x2640},
}

// pieceSizes is the side of the bounding box used to limit horizontal
// placement. It is not the width of any particular rotation.
var pieceSizes = [numPieces]int{I: 4, J: 3, L: 3, O: 2, S: 3, T: 3, Z: 3}

// Cell is a (column, row) coordinate. Rows grow downward from the top.
type Cell struct {
	X, Y int
}

var tableCells = getCells()

// getCells decodes every rotation mask into its list of frame offsets so that
// nothing downstream has to touch the bits again.
func getCells() [numPieces][NumRotations][pieceCells]Cell {
	var table [numPieces][NumRotations][pieceCells]Cell
	for piece := 0; piece < numPieces; piece++ {
		for rot := 0; rot < NumRotations; rot++ {
			mask := pieceMasks[piece][rot]
			var n, row, col int
			for bit := uint16(0x8000); bit > 0; bit >>= 1 {
				if mask&bit != 0 {
					table[piece][rot][n] = Cell{col, row}
					n++
				}
				if col++; col == formCols {
					col = 0
					row++
				}
			}
			if n != pieceCells {
				panic(fmt.Sprintf("tetris: piece %s rotation %d has %d cells", pieceNames[piece], rot, n))
			}
		}
	}
	return table
}

// Size returns the side of the piece's bounding box (2 to 4).
func (t PieceType) Size() int {
	return pieceSizes[t]
}

func (t PieceType) String() string {
	if int(t) >= numPieces {
		return fmt.Sprintf("PieceType(%d)", t)
	}
	return pieceNames[t]
}

// Offsets returns the frame-relative cells of a rotation.
func (t PieceType) Offsets(rotation int) [pieceCells]Cell {
	return tableCells[t][rotation&(NumRotations-1)]
}

// Cells yields the absolute cells a piece occupies when its frame is anchored
// at (x, y), in raster order of the rotation mask.
func (t PieceType) Cells(rotation, x, y int) iter.Seq[Cell] {
	offsets := t.Offsets(rotation)
	return func(yield func(Cell) bool) {
		for _, c := range offsets {
			if !yield(Cell{x + c.X, y + c.Y}) {
				return
			}
		}
	}
}

// ParsePieceType accepts the single-letter piece names, case-insensitively.
func ParsePieceType(s string) (PieceType, error) {
	for i, name := range pieceNames {
		if strings.EqualFold(s, name) {
			return PieceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown piece type %q", s)
}

// Piece is a piece instance: a type, a rotation and the anchor of its frame.
type Piece struct {
	Type     PieceType
	Rotation int
	X, Y     int
}

// Cells yields the absolute cells of the piece.
func (p Piece) Cells() iter.Seq[Cell] {
	return p.Type.Cells(p.Rotation, p.X, p.Y)
}
