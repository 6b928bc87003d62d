package tetris

import (
	"fmt"
	"math/bits"
	"strings"
)

// Board dimensions. Row 0 is the top of the playfield.
const (
	Width  = 10
	Height = 20
)

// Each row is a bitmask where bit x is set when column x is occupied. Only the
// low Width bits are ever used.
//
// Column:  9876543210
// Bits:    0000011111  <- left half of the row filled
const filledRow = uint16(1<<Width - 1)

// Board is the playfield occupancy grid. It is a plain array so assigning a
// Board copies it; search branches never share rows.
type Board [Height]uint16

// inside reports whether (x, y) lies on the playfield.
func inside(x, y int) bool {
	return x >= 0 && x < Width && y >= 0 && y < Height
}

// Occupied reports whether the cell is filled. Cells off the board read as
// empty.
func (b *Board) Occupied(x, y int) bool {
	if !inside(x, y) {
		return false
	}
	return b[y]>>uint(x)&1 != 0
}

// Fill marks a cell occupied. Cells off the board are ignored.
func (b *Board) Fill(x, y int) {
	if !inside(x, y) {
		return
	}
	b[y] |= 1 << uint(x)
}

// Collides reports whether a piece anchored at (x, y) would overlap a filled
// cell or leave the playfield in any direction. It is the only collision check
// used by drop simulation and rotation legality.
func (b *Board) Collides(t PieceType, rotation, x, y int) bool {
	for _, c := range t.Offsets(rotation) {
		cx, cy := x+c.X, y+c.Y
		if !inside(cx, cy) || b[cy]>>uint(cx)&1 != 0 {
			return true
		}
	}
	return false
}

// Copy returns an independent copy of the board.
func (b Board) Copy() Board {
	return b
}

// FullRows returns the indexes of completely filled rows, top to bottom.
func (b *Board) FullRows() []int {
	var rows []int
	for y := 0; y < Height; y++ {
		if b[y] == filledRow {
			rows = append(rows, y)
		}
	}
	return rows
}

// Collapse removes one row, shifting every row above it down by one and
// inserting an empty row at the top.
func (b *Board) Collapse(row int) {
	if row < 0 || row >= Height {
		return
	}
	copy(b[1:row+1], b[:row])
	b[0] = 0
}

// ClearFullRows removes every full row and returns the new board along with
// how many rows were removed. Rows are scanned bottom up and the same index is
// checked again after each collapse, since the row shifted into it may also
// be full.
func (b Board) ClearFullRows() (Board, int) {
	var lines int
	for y := Height - 1; y >= 0; y-- {
		for b[y] == filledRow {
			b.Collapse(y)
			lines++
		}
	}
	return b, lines
}

// Heights returns, per column, Height minus the row of its topmost filled
// cell, or 0 for an empty column.
func (b *Board) Heights() [Width]int {
	var heights [Width]int
	var seen uint16
	for y := 0; y < Height; y++ {
		fresh := b[y] &^ seen
		for fresh != 0 {
			x := bits.TrailingZeros16(fresh)
			heights[x] = Height - y
			fresh &= fresh - 1
		}
		seen |= b[y]
	}
	return heights
}

// Filled counts occupied cells.
func (b *Board) Filled() int {
	var n int
	for _, row := range b {
		n += bits.OnesCount16(row)
	}
	return n
}

// ParseBoard builds a board from text rows, one string per row. '#', 'X' and
// '@' mark filled cells; anything else is empty. The rows are aligned to the
// bottom of the board so short fixtures describe the stack near the floor.
func ParseBoard(rows ...string) (Board, error) {
	var b Board
	if len(rows) > Height {
		return b, fmt.Errorf("board has %d rows, max %d", len(rows), Height)
	}
	offset := Height - len(rows)
	for i, r := range rows {
		if len(r) > Width {
			return b, fmt.Errorf("row %d has %d columns, max %d", i, len(r), Width)
		}
		for x, ch := range r {
			switch ch {
			case '#', 'X', '@':
				b.Fill(x, offset+i)
			}
		}
	}
	return b, nil
}

// MustParseBoard is ParseBoard for fixtures; it panics on malformed input.
func MustParseBoard(rows ...string) Board {
	b, err := ParseBoard(rows...)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Board) String() string {
	var sb strings.Builder
	for y := 0; y < Height; y++ {
		sb.WriteString(stringRow(b[y]))
		sb.WriteString("\n")
	}
	return sb.String()
}
