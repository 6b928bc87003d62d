package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/caffeineism/dizzybeam/internal/logx"
	"github.com/caffeineism/dizzybeam/internal/trainer"
	"github.com/caffeineism/dizzybeam/internal/trainerapi"
)

func main() {
	defaults := trainer.DefaultConfig()
	var (
		// Genetic algorithm
		population   = flag.Int("population", defaults.Population, "individuals per generation")
		generations  = flag.Int("generations", defaults.Generations, "generations to run")
		placements   = flag.Int("placements", defaults.Placements, "pieces per fitness simulation")
		mutationRate = flag.Float64("mutation-rate", defaults.MutationRate, "per-gene mutation probability")
		mutationStep = flag.Float64("mutation-step", defaults.MutationStep, "max absolute mutation per gene")
		fitness      = flag.String("fitness", string(defaults.Fitness), "fitness function: lines or points")
		workers      = flag.Int("workers", defaults.Workers, "concurrent simulations")
		seed         = flag.Int64("seed", 0, "random seed (0 = random)")

		// Service
		addr      = flag.String("addr", "", "serve the trainer API on this address instead of running once")
		autostart = flag.Bool("autostart", false, "with -addr, start a run immediately")

		logLevel = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	logx.ParseLevel(*logLevel)
	logger := logx.NewLogger()

	f, err := trainer.ParseFitness(*fitness)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse fitness")
	}
	cfg := trainer.Config{
		Population:   *population,
		Generations:  *generations,
		Placements:   *placements,
		MutationRate: *mutationRate,
		MutationStep: *mutationStep,
		Fitness:      f,
		Workers:      *workers,
		Seed:         *seed,
		Logger:       logger.With().Str("component", "trainer").Logger(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *addr == "" {
		if err := runOnce(ctx, logger, cfg); err != nil {
			logger.Fatal().Err(err).Msg("training")
		}
		return
	}
	serve(ctx, logger, cfg, *addr, *autostart)
}

// runOnce trains in the foreground and prints the final report as JSON.
func runOnce(ctx context.Context, logger zerolog.Logger, cfg trainer.Config) error {
	t, err := trainer.New(cfg)
	if err != nil {
		return err
	}
	report, err := t.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		logger.Warn().Msg("interrupted, reporting partial run")
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func serve(ctx context.Context, logger zerolog.Logger, cfg trainer.Config, addr string, autostart bool) {
	hub := trainerapi.NewHub()
	go hub.Run(ctx.Done())

	svc := trainer.NewService(cfg, hub.Publish)
	if autostart {
		if err := svc.Start(cfg); err != nil {
			logger.Error().Err(err).Msg("autostart failed")
		}
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      trainerapi.NewRouter(logger.With().Str("component", "api").Logger(), svc, hub),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("trainer api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("trainer api server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}
	if err := svc.Stop("shutdown"); err != nil && !errors.Is(err, trainer.ErrNotRunning) {
		logger.Warn().Err(err).Msg("stop training")
	}
	logger.Info().Msg("shutdown complete")
}
