package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"

	"github.com/caffeineism/dizzybeam/internal/bot"
	"github.com/caffeineism/dizzybeam/internal/logx"
	"github.com/caffeineism/dizzybeam/internal/tetris"
)

func main() {
	var (
		cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
		logLevel   = flag.String("log-level", "info", "log level")

		// Engine
		mode      = flag.String("mode", "greedy", "decision engine: greedy or beam")
		width     = flag.Int("width", bot.DefaultBeamWidth, "beam width")
		depth     = flag.Int("depth", bot.DefaultDepth, "beam depth")
		clearRows = flag.Bool("beam-clear", false, "clear completed rows between beam plies")

		// Games
		games      = flag.Int("games", 1, "number of games to play")
		placements = flag.Int("placements", 0, "stop each game after this many pieces (0 = until top-out)")
		seed       = flag.Int64("seed", 0, "first game seed (0 = random)")
		useBag     = flag.Bool("bag", true, "deal pieces from a bag instead of uniformly")
		speed      = flag.Int("speed", 0, "render every placement and sleep this many ms (0 = headless)")
	)
	flag.Parse()

	logx.ParseLevel(*logLevel)
	logger := logx.NewLogger()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logger.Fatal().Err(err).Msg("create cpu profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatal().Err(err).Msg("start cpu profile")
		}
		defer pprof.StopCPUProfile()
	}

	m, err := bot.ParseMode(*mode)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse mode")
	}
	eval, err := tetris.NewEvaluator(tetris.DefaultWeights)
	if err != nil {
		logger.Fatal().Err(err).Msg("create evaluator")
	}

	var totalPieces, totalLines int
	now := time.Now()
	for i := 0; i < *games; i++ {
		gameSeed := *seed
		if gameSeed != 0 {
			gameSeed += int64(i)
		}
		params := bot.Params{Mode: m, BeamWidth: *width, Depth: *depth, ClearRows: *clearRows}
		res, err := play(logger, eval, params, gameSeed, *placements, *useBag, *speed)
		if err != nil {
			logger.Fatal().Err(err).Msg("play")
		}
		logger.Info().
			Int("game", i).
			Int("pieces", res.Placements).
			Int("lines", res.Lines).
			Int("points", res.Points).
			Bool("topped_out", res.ToppedOut).
			Msg("game over")
		totalPieces += res.Placements
		totalLines += res.Lines
	}
	elapsed := time.Since(now)
	logger.Info().
		Dur("elapsed", elapsed).
		Int("pieces", totalPieces).
		Int("lines", totalLines).
		Float64("pieces_per_sec", float64(totalPieces)/elapsed.Seconds()).
		Msg("done")
}

func play(logger zerolog.Logger, eval *tetris.Evaluator, params bot.Params, seed int64, placements int, useBag bool, speed int) (bot.Result, error) {
	r := tetris.NewRand(seed)
	var src tetris.Source = tetris.NewUniformSource(r)
	if useBag {
		src = tetris.NewBag(r)
	}
	// Lookahead pieces come from their own generator so they never consume
	// the game's piece sequence.
	params.Source = tetris.NewUniformSource(tetris.NewRand(seed * 31))
	chooser, err := bot.New(eval, params)
	if err != nil {
		return bot.Result{}, err
	}
	agent := bot.Agent{
		Chooser:            chooser,
		Game:               tetris.NewGame(src, r),
		MaxPlacements:      placements,
		StopOnBlockedSpawn: true,
	}
	if speed > 0 {
		weights := eval.Weights()
		agent.OnPlace = func(g *tetris.Game, m tetris.Move) {
			// Show the board as the piece landed, before rows clear.
			if err := tetris.Render(os.Stdout, m.Board, m.Placement(), weights); err != nil {
				logger.Warn().Err(err).Msg("render")
			}
			fmt.Printf("lines %d  points %d  next %v\n", g.Lines, g.Points, g.Next)
			time.Sleep(time.Duration(speed) * time.Millisecond)
		}
	}
	return agent.Run(), nil
}
