// Package trainer tunes evaluator weights with a genetic algorithm. Each
// candidate weight vector is scored by playing fast headless games with the
// greedy engine.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/caffeineism/dizzybeam/internal/tetris"
)

// ErrInvalidConfig wraps every configuration rejected by New.
var ErrInvalidConfig = errors.New("invalid trainer config")

// Config controls a training run. Zero values take the defaults, except
// MutationRate and MutationStep, where zero turns mutation off; start from
// DefaultConfig to get the usual mutation.
type Config struct {
	Population   int
	Generations  int
	Placements   int     // Pieces per fitness simulation.
	MutationRate float64 // Probability that a gene is perturbed.
	MutationStep float64 // Perturbations are uniform in [-step, step).
	Fitness      Fitness
	Workers      int   // Concurrent simulations. Defaults to runtime.NumCPU().
	Seed         int64 // 0 seeds from entropy.

	Logger zerolog.Logger
	// OnGeneration, if set, is called synchronously after every generation
	// is evaluated.
	OnGeneration func(GenerationReport)
}

func DefaultConfig() Config {
	return Config{
		Population:   30,
		Generations:  20,
		Placements:   300,
		MutationRate: 0.15,
		MutationStep: 0.1,
		Fitness:      FitnessLines,
		Workers:      runtime.NumCPU(),
		Logger:       zerolog.Nop(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Population == 0 {
		c.Population = d.Population
	}
	if c.Generations == 0 {
		c.Generations = d.Generations
	}
	if c.Placements == 0 {
		c.Placements = d.Placements
	}
	if c.Fitness == "" {
		c.Fitness = d.Fitness
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.Population < 2:
		return fmt.Errorf("%w: population %d, need at least 2", ErrInvalidConfig, c.Population)
	case c.Generations < 1:
		return fmt.Errorf("%w: generations %d, need at least 1", ErrInvalidConfig, c.Generations)
	case c.Placements < 1:
		return fmt.Errorf("%w: placements %d, need at least 1", ErrInvalidConfig, c.Placements)
	case c.MutationRate < 0 || c.MutationRate > 1:
		return fmt.Errorf("%w: mutation rate %v outside [0, 1]", ErrInvalidConfig, c.MutationRate)
	case c.MutationStep < 0:
		return fmt.Errorf("%w: mutation step %v is negative", ErrInvalidConfig, c.MutationStep)
	}
	if _, err := ParseFitness(string(c.Fitness)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Individual is one candidate weight vector. Fitness and the game totals are
// only meaningful for the generation that measured them.
type Individual struct {
	ID         string         `json:"id"`
	Weights    tetris.Weights `json:"weights"`
	Fitness    float64        `json:"fitness"`
	Lines      int            `json:"lines"`
	Points     int            `json:"points"`
	Placements int            `json:"placements"`
}

func newIndividual(w tetris.Weights) Individual {
	return Individual{ID: uuid.NewString(), Weights: w}
}

// Population is ordered best first after every evaluation.
type Population []Individual

// GenerationReport summarizes one evaluated generation.
type GenerationReport struct {
	RunID        string        `json:"run_id"`
	Generation   int           `json:"generation"`
	Best         Individual    `json:"best"`
	MeanFitness  float64       `json:"mean_fitness"`
	WorstFitness float64       `json:"worst_fitness"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// Report is what a finished run leaves behind. Nothing is written to disk.
type Report struct {
	RunID       string             `json:"run_id"`
	Best        Individual         `json:"best"`
	Generations []GenerationReport `json:"generations"`
}

// Trainer runs the evaluate, select, reproduce loop.
type Trainer struct {
	cfg        Config
	log        zerolog.Logger
	rng        tetris.Rand
	runID      string
	generation int
	population Population
	report     Report
	simulate   func(w tetris.Weights, placements int, seed int64) (SimResult, error)

	statusMu sync.RWMutex
	status   Status
}

// New validates cfg and seeds the first population with weights uniform in
// [-1, 1).
func New(cfg Config) (*Trainer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	t := &Trainer{
		cfg:      cfg,
		log:      cfg.Logger.With().Str("run", runID).Logger(),
		rng:      tetris.NewRand(cfg.Seed),
		runID:    runID,
		report:   Report{RunID: runID},
		status:   newStatus(runID, cfg),
		simulate: Simulate,
	}
	t.population = make(Population, cfg.Population)
	for i := range t.population {
		t.population[i] = newIndividual(randomWeights(t.rng))
	}
	return t, nil
}

func (t *Trainer) RunID() string { return t.runID }

// Population returns a copy of the current population.
func (t *Trainer) Population() Population {
	pop := make(Population, len(t.population))
	for i, ind := range t.population {
		ind.Weights = ind.Weights.Clone()
		pop[i] = ind
	}
	return pop
}

// Run trains for the configured number of generations and returns the best
// individual seen in any generation. Cancelling ctx stops the run between
// simulations and returns the report so far with the context's error.
func (t *Trainer) Run(ctx context.Context) (Report, error) {
	t.log.Info().
		Int("population", t.cfg.Population).
		Int("generations", t.cfg.Generations).
		Int("placements", t.cfg.Placements).
		Str("fitness", string(t.cfg.Fitness)).
		Int("workers", t.cfg.Workers).
		Msg("training started")
	t.updateStatus(func(s *Status) {
		s.Running = true
		s.Phase = PhaseStarting
		s.Message = "training starting"
	})
	for t.generation < t.cfg.Generations {
		if _, err := t.Step(ctx); err != nil {
			t.updateStatus(func(s *Status) {
				s.Running = false
				s.Phase = PhaseError
				s.Message = err.Error()
			})
			return t.report, err
		}
	}
	t.updateStatus(func(s *Status) {
		s.Running = false
		s.Phase = PhaseDone
		s.Message = "training complete"
	})
	t.log.Info().
		Float64("fitness", t.report.Best.Fitness).
		Floats64("weights", t.report.Best.Weights).
		Msg("training complete")
	return t.report, nil
}

// Step runs one generation: evaluate, select, reproduce, replace. The
// returned report describes the evaluated generation, not the children that
// replaced it.
func (t *Trainer) Step(ctx context.Context) (GenerationReport, error) {
	start := time.Now()
	t.updateStatus(func(s *Status) {
		s.Phase = PhaseEvaluating
		s.Message = fmt.Sprintf("evaluating generation %d", t.generation)
	})
	if err := t.evaluate(ctx); err != nil {
		return GenerationReport{}, err
	}
	rank(t.population)
	gen := t.summarize(time.Since(start))
	t.record(gen)

	t.updateStatus(func(s *Status) {
		s.Phase = PhaseBreeding
		s.Message = fmt.Sprintf("breeding generation %d", t.generation+1)
	})
	survivors := selectSurvivors(t.population)
	children := breed(t.rng, survivors, t.cfg.Population)
	for i := range children {
		mutate(t.rng, children[i].Weights, t.cfg.MutationRate, t.cfg.MutationStep)
	}
	t.population = children
	t.generation++
	return gen, nil
}

// evaluate plays one simulation per individual, in parallel. Seeds are drawn
// up front from the trainer's generator so a seeded run is reproducible no
// matter how the simulations get scheduled.
func (t *Trainer) evaluate(ctx context.Context) error {
	seeds := make([]int64, len(t.population))
	for i := range seeds {
		seeds[i] = int64(t.rng.Intn(math.MaxInt32)) + 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.cfg.Workers)
	for i := range t.population {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ind := &t.population[i]
			res, err := t.simulate(ind.Weights, t.cfg.Placements, seeds[i])
			if err != nil {
				return fmt.Errorf("simulate %s: %w", ind.ID, err)
			}
			ind.Fitness = t.cfg.Fitness.Of(res)
			ind.Lines = res.Lines
			ind.Points = res.Points
			ind.Placements = res.Placements
			return nil
		})
	}
	return g.Wait()
}

func (t *Trainer) summarize(elapsed time.Duration) GenerationReport {
	var sum float64
	for _, ind := range t.population {
		sum += ind.Fitness
	}
	best := t.population[0]
	best.Weights = best.Weights.Clone()
	return GenerationReport{
		RunID:        t.runID,
		Generation:   t.generation,
		Best:         best,
		MeanFitness:  sum / float64(len(t.population)),
		WorstFitness: t.population[len(t.population)-1].Fitness,
		Elapsed:      elapsed,
	}
}

func (t *Trainer) record(gen GenerationReport) {
	improved := len(t.report.Generations) == 0 || gen.Best.Fitness > t.report.Best.Fitness
	if improved {
		t.report.Best = gen.Best
		t.log.Info().
			Int("generation", gen.Generation).
			Float64("fitness", gen.Best.Fitness).
			Msg("new best")
	}
	t.report.Generations = append(t.report.Generations, gen)
	t.log.Info().
		Int("generation", gen.Generation).
		Float64("best", gen.Best.Fitness).
		Float64("mean", gen.MeanFitness).
		Float64("worst", gen.WorstFitness).
		Floats64("weights", gen.Best.Weights).
		Dur("elapsed", gen.Elapsed).
		Msg("generation evaluated")

	best := t.report.Best
	t.updateStatus(func(s *Status) {
		s.Generation = gen.Generation + 1
		s.BestFitness = best.Fitness
		s.BestWeights = best.Weights.Clone()
		s.History = append(s.History, gen.Best.Fitness)
		remaining := t.cfg.Generations - gen.Generation - 1
		s.EtaSeconds = int((gen.Elapsed * time.Duration(remaining)).Seconds())
	})
	if t.cfg.OnGeneration != nil {
		t.cfg.OnGeneration(gen)
	}
}

// rank sorts by fitness, best first. Equal fitness keeps the previous order.
func rank(pop Population) {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].Fitness > pop[j].Fitness
	})
}

// selectSurvivors keeps the better half of a ranked population, rounding
// down but never below one.
func selectSurvivors(ranked Population) Population {
	n := max(len(ranked)/2, 1)
	return ranked[:n:n]
}

// breed fills a new population of the given size with children of parents
// picked uniformly, with replacement, from survivors. No mutation is applied.
func breed(r tetris.Rand, survivors Population, size int) Population {
	children := make(Population, 0, size)
	for len(children) < size {
		a := survivors[r.Intn(len(survivors))].Weights
		b := survivors[r.Intn(len(survivors))].Weights
		children = append(children, newIndividual(crossover(r, a, b)))
	}
	return children
}

// crossover takes each gene from either parent with equal probability.
func crossover(r tetris.Rand, a, b tetris.Weights) tetris.Weights {
	child := make(tetris.Weights, len(a))
	for i := range a {
		if r.Float64() < 0.5 {
			child[i] = a[i]
		} else {
			child[i] = b[i]
		}
	}
	return child
}

// mutate perturbs genes in place, each with probability rate, by a uniform
// amount in [-step, step).
func mutate(r tetris.Rand, w tetris.Weights, rate, step float64) {
	for i := range w {
		if r.Float64() < rate {
			w[i] += r.Float64()*2*step - step
		}
	}
}

func randomWeights(r tetris.Rand) tetris.Weights {
	w := make(tetris.Weights, tetris.NumFeatures)
	for i := range w {
		w[i] = r.Float64()*2 - 1
	}
	return w
}
