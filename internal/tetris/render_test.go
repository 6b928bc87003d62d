package tetris

import (
	"bytes"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	b := MustParseBoard(
		"##...#####",
	)
	p := Piece{Type: T, X: 2, Y: 0}

	var buf bytes.Buffer
	if err := Render(&buf, b, p, DefaultWeights); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if got := strings.Count(out, strPieceCell); got != pieceCells {
		t.Errorf("rendered %d piece cells, want %d", got, pieceCells)
	}
	if got := strings.Count(out, strFilledCell); got != 7 {
		t.Errorf("rendered %d filled cells, want 7", got)
	}
	for _, name := range FeatureNames {
		if !strings.Contains(out, name) {
			t.Errorf("debug output missing %s", name)
		}
	}

	buf.Reset()
	if err := Render(&buf, b, p, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "score") {
		t.Error("debug output rendered without weights")
	}
}
