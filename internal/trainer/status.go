package trainer

import "time"

// Phases a run moves through.
const (
	PhaseIdle       = "idle"
	PhaseStarting   = "starting"
	PhaseEvaluating = "evaluating"
	PhaseBreeding   = "breeding"
	PhaseDone       = "done"
	PhaseError      = "error"
)

// Status is a point-in-time view of a run, safe to hand to other goroutines.
type Status struct {
	RunID          string    `json:"run_id"`
	Running        bool      `json:"running"`
	Phase          string    `json:"phase"`
	Message        string    `json:"message"`
	StartedAt      string    `json:"started_at"`
	UpdatedAt      string    `json:"updated_at"`
	Generation     int       `json:"generation"`
	Generations    int       `json:"generations"`
	PopulationSize int       `json:"population_size"`
	Placements     int       `json:"placements"`
	MutationRate   float64   `json:"mutation_rate"`
	MutationStep   float64   `json:"mutation_step"`
	Fitness        Fitness   `json:"fitness"`
	BestFitness    float64   `json:"best_fitness"`
	BestWeights    []float64 `json:"best_weights,omitempty"`
	History        []float64 `json:"history,omitempty"` // Best fitness per generation.
	EtaSeconds     int       `json:"eta_seconds"`
}

func newStatus(runID string, cfg Config) Status {
	now := time.Now().UTC().Format(time.RFC3339)
	return Status{
		RunID:          runID,
		Phase:          PhaseIdle,
		Message:        "ready",
		StartedAt:      now,
		UpdatedAt:      now,
		Generations:    cfg.Generations,
		PopulationSize: cfg.Population,
		Placements:     cfg.Placements,
		MutationRate:   cfg.MutationRate,
		MutationStep:   cfg.MutationStep,
		Fitness:        cfg.Fitness,
	}
}

// Status returns a copy of the run's current status.
func (t *Trainer) Status() Status {
	t.statusMu.RLock()
	defer t.statusMu.RUnlock()
	s := t.status
	s.BestWeights = append([]float64(nil), s.BestWeights...)
	s.History = append([]float64(nil), s.History...)
	return s
}

func (t *Trainer) updateStatus(mutator func(*Status)) {
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	mutator(&t.status)
	t.status.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}
