package tetris

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Feature indexes, in the order weights are applied.
const (
	AggregateHeight = iota
	CompleteLines
	Holes
	Bumpiness
	LandingHeight
	RowTransitions
	ColTransitions
	WellDepth
	NumFeatures
)

// FeatureNames labels each feature index for debug output.
var FeatureNames = [NumFeatures]string{
	"aggregateHeight",
	"completeLines",
	"holes",
	"bumpiness",
	"landingHeight",
	"rowTransitions",
	"colTransitions",
	"wellDepth",
}

// ErrInvalidWeights is returned for a weight vector that does not have
// exactly one coefficient per feature.
var ErrInvalidWeights = errors.New("invalid weight vector")

// Weights holds one coefficient per feature.
type Weights []float64

// DefaultWeights came out of a 20 generation training run and play well with
// both the greedy and beam engines.
var DefaultWeights = Weights{
	-0.8370186515007799,
	0.07800828639044773,
	-0.9199195588777043,
	-0.16993362833562325,
	-0.03245026652201599,
	-0.9140805670540637,
	0.03862784738965987,
	-0.6946664883532104,
}

// Validate checks the arity of w.
func (w Weights) Validate() error {
	if len(w) != NumFeatures {
		return fmt.Errorf("%w: got %d components, want %d", ErrInvalidWeights, len(w), NumFeatures)
	}
	return nil
}

// Clone returns a copy that shares nothing with w.
func (w Weights) Clone() Weights {
	return append(Weights(nil), w...)
}

// Features is the measured feature vector of one board.
type Features [NumFeatures]float64

// Dot returns the weighted sum of the features. w must be valid.
func (f Features) Dot(w Weights) float64 {
	var score float64
	for i := 0; i < NumFeatures; i++ {
		score += w[i] * f[i]
	}
	return score
}

// ExtractFeatures measures b. landingRow is the row the last piece landed on,
// 0 when unknown; it is used as the landing height as is.
func ExtractFeatures(b *Board, landingRow int) Features {
	heights, holes := heightsAndHoles(b)
	var f Features
	f[AggregateHeight] = float64(aggregateHeight(&heights))
	f[CompleteLines] = float64(completeLines(b))
	f[Holes] = float64(holes)
	f[Bumpiness] = float64(bumpiness(&heights))
	f[LandingHeight] = float64(landingRow)
	f[RowTransitions] = float64(rowTransitions(b))
	f[ColTransitions] = float64(colTransitions(b))
	f[WellDepth] = float64(wellDepth(&heights))
	return f
}

// heightsAndHoles finds the column heights and counts empty cells that have a
// filled cell somewhere above them in the same column.
func heightsAndHoles(b *Board) ([Width]int, int) {
	heights := b.Heights()
	var holes int
	var covered uint16
	for y := 0; y < Height; y++ {
		holes += bits.OnesCount16(covered &^ b[y])
		covered |= b[y]
	}
	return heights, holes
}

func aggregateHeight(heights *[Width]int) int {
	var sum int
	for _, h := range heights {
		sum += h
	}
	return sum
}

func completeLines(b *Board) int {
	var n int
	for _, row := range b {
		if row == filledRow {
			n++
		}
	}
	return n
}

func bumpiness(heights *[Width]int) int {
	var sum int
	for x := 0; x < Width-1; x++ {
		d := heights[x] - heights[x+1]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum
}

// rowTransitions counts how many times a filled cell neighbors an empty cell to
// its left or right. The left and right walls count as filled, so an empty row
// contributes two transitions.
// Follows Dellacherie's definition.
func rowTransitions(b *Board) int {
	var sum int
	for y := 0; y < Height; y++ {
		prev := true
		for x := 0; x < Width; x++ {
			cur := b[y]>>uint(x)&1 != 0
			if cur != prev {
				sum++
			}
			prev = cur
		}
		if !prev {
			sum++
		}
	}
	return sum
}

// colTransitions counts how many times a filled cell neighbors an empty cell
// above or below it. Both the ceiling and the floor count as filled.
// Follows Dellacherie's definition.
func colTransitions(b *Board) int {
	var sum int
	for x := 0; x < Width; x++ {
		prev := true
		for y := 0; y < Height; y++ {
			cur := b[y]>>uint(x)&1 != 0
			if cur != prev {
				sum++
			}
			prev = cur
		}
		if !prev {
			sum++
		}
	}
	return sum
}

// wellDepth sums, per column, how far it sits below the lower of its two
// neighbors. The walls are infinitely tall.
func wellDepth(heights *[Width]int) int {
	var sum int
	for x := 0; x < Width; x++ {
		left, right := math.MaxInt, math.MaxInt
		if x > 0 {
			left = heights[x-1]
		}
		if x < Width-1 {
			right = heights[x+1]
		}
		if n := min(left, right); n > heights[x] {
			sum += n - heights[x]
		}
	}
	return sum
}

// Evaluator scores boards with a fixed, validated weight vector.
type Evaluator struct {
	weights Weights
}

// NewEvaluator copies w after checking its arity.
func NewEvaluator(w Weights) (*Evaluator, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{weights: w.Clone()}, nil
}

// Weights returns a copy of the evaluator's weights.
func (e *Evaluator) Weights() Weights {
	return e.weights.Clone()
}

// Score rates b after a piece landed on landingRow. Higher is better.
func (e *Evaluator) Score(b *Board, landingRow int) float64 {
	return ExtractFeatures(b, landingRow).Dot(e.weights)
}
