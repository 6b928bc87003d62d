package bot

import (
	"github.com/caffeineism/dizzybeam/internal/tetris"
)

// Agent plays a game with a chooser until it tops out or reaches
// MaxPlacements (0 means no cap).
type Agent struct {
	Chooser       Chooser
	Game          *tetris.Game
	MaxPlacements int
	// StopOnBlockedSpawn ends the game as soon as a new piece spawns into the
	// stack, as live play does. Without it the game only ends when the piece
	// has no legal placement at all.
	StopOnBlockedSpawn bool
	// OnPlace, if set, runs after every placement.
	OnPlace func(g *tetris.Game, m tetris.Move)
}

// Result summarizes a finished game.
type Result struct {
	Lines      int
	Points     int
	Placements int
	ToppedOut  bool
}

// Run plays until the game ends and returns the totals.
func (a *Agent) Run() Result {
	g := a.Game
	for a.MaxPlacements == 0 || g.Placements < a.MaxPlacements {
		if a.StopOnBlockedSpawn && g.Blocked() {
			return a.result(true)
		}
		m, ok := a.Chooser.Choose(g.Current.Type, g.Board)
		if !ok { // No placement found
			return a.result(true)
		}
		g.Place(m)
		if a.OnPlace != nil {
			a.OnPlace(g, m)
		}
	}
	return a.result(false)
}

func (a *Agent) result(toppedOut bool) Result {
	return Result{
		Lines:      a.Game.Lines,
		Points:     a.Game.Points,
		Placements: a.Game.Placements,
		ToppedOut:  toppedOut,
	}
}
