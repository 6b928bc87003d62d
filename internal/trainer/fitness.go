package trainer

import (
	"fmt"
	"math/rand"

	"github.com/caffeineism/dizzybeam/internal/bot"
	"github.com/caffeineism/dizzybeam/internal/tetris"
)

// Fitness names how a simulation is turned into a fitness value.
type Fitness string

const (
	// FitnessLines counts rows cleared over the whole simulation.
	FitnessLines Fitness = "lines"
	// FitnessPoints uses live-play scoring, which rewards multi-row clears.
	FitnessPoints Fitness = "points"
)

func ParseFitness(s string) (Fitness, error) {
	switch f := Fitness(s); f {
	case FitnessLines, FitnessPoints:
		return f, nil
	case "":
		return FitnessLines, nil
	}
	return "", fmt.Errorf("unknown fitness %q", s)
}

// Of extracts the fitness value from a simulation result.
func (f Fitness) Of(r SimResult) float64 {
	if f == FitnessPoints {
		return float64(r.Points)
	}
	return float64(r.Lines)
}

// SimResult is the outcome of one headless game.
type SimResult struct {
	Lines      int `json:"lines"`
	Points     int `json:"points"`
	Placements int `json:"placements"`
}

// Simulate plays up to placements pieces on an empty board with the greedy
// engine and the given weights. Pieces are drawn uniformly from a generator
// seeded with seed. The game ends early only when a piece has no legal
// placement.
func Simulate(w tetris.Weights, placements int, seed int64) (SimResult, error) {
	eval, err := tetris.NewEvaluator(w)
	if err != nil {
		return SimResult{}, err
	}
	src := tetris.NewUniformSource(rand.New(rand.NewSource(seed)))
	agent := bot.Agent{
		Chooser:       &bot.Greedy{Eval: eval},
		Game:          tetris.NewGame(src, nil),
		MaxPlacements: placements,
	}
	res := agent.Run()
	return SimResult{Lines: res.Lines, Points: res.Points, Placements: res.Placements}, nil
}
