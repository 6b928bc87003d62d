package tetris

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	strEmptyCell  = "  "
	strFilledCell = "@@"
	strPieceCell  = "[]"
)

// Render writes the board to w with the piece p overlaid. When weights are
// valid, the feature breakdown of the board is printed beside it.
func Render(w io.Writer, b Board, p Piece, weights Weights) error {
	var sb strings.Builder
	for y := 0; y < Height; y++ {
		sb.WriteString(stringRow(b[y]) + "\n")
	}
	rows := insertPieceInStr(sb.String(), p)
	if weights.Validate() == nil {
		rows = insertDebugInfo(rows, b, p, weights)
	}
	sb.Reset()
	sb.WriteString(" " + strings.Repeat("__", Width) + "\n") // Top border
	sb.WriteString(rows)
	sb.WriteString(" " + strings.Repeat("‾‾", Width) + "\n ") // Bottom border
	for i := 0; i < Width; i++ {
		sb.WriteString(strconv.Itoa(i%10) + " ") // Column labels
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// insertDebugInfo appends row labels and, next to the top rows, the weighted
// value of every feature the board would have after the piece locks.
func insertDebugInfo(str string, b Board, p Piece, weights Weights) string {
	rows := strings.Split(str, "\n")
	rows = rows[:len(rows)-1]
	for i := 0; i < len(rows); i++ {
		rows[i] = rows[i] + " " + strconv.Itoa(i) // Row label
	}
	rows[0] = rows[0] + fmt.Sprintf("\t%vy %vx %v", p.Y, p.X, p.Type)
	index := 3
	locked := ApplyMove(b, Move{Piece: p.Type, Rotation: p.Rotation, Column: p.X, Row: p.Y})
	features := ExtractFeatures(&locked, p.Y)
	var score float64
	for i := 0; i < NumFeatures && i+index < len(rows); i++ {
		weighted := weights[i] * features[i]
		score += weighted
		rows[i+index] = rows[i+index] + "\t" + fmt.Sprintf("%-9.2f", weighted) + " " + fmt.Sprintf("%3.0f", features[i]) + " " + FeatureNames[i]
	}
	rows[index-1] = rows[index-1] + fmt.Sprintf("\t%-12.2f score", score)
	return strings.Join(rows, "\n") + "\n"
}

func insertPieceInStr(str string, p Piece) string {
	rows := strings.Split(str, "\n")
	c := len(strEmptyCell)
	for cell := range p.Cells() {
		if !inside(cell.X, cell.Y) {
			continue
		}
		r := rows[cell.Y]
		rows[cell.Y] = r[:cell.X*c+1] + strPieceCell + r[cell.X*c+c+1:]
	}
	return strings.Join(rows, "\n")
}

// stringRow draws one row with column 0 on the left.
func stringRow(r uint16) string {
	var sb strings.Builder
	sb.WriteString("|") // Left side border
	for x := 0; x < Width; x++ {
		if r>>uint(x)&1 != 0 {
			sb.WriteString(strFilledCell)
		} else {
			sb.WriteString(strEmptyCell)
		}
	}
	sb.WriteString("|") // Right side border
	return sb.String()
}
