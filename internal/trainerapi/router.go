// Package trainerapi exposes a trainer.Service over HTTP: JSON status and
// start/stop endpoints plus a websocket feed of generation reports.
package trainerapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/caffeineism/dizzybeam/internal/trainer"
)

type server struct {
	log zerolog.Logger
	svc *trainer.Service
	hub *Hub
}

// NewRouter wires the trainer endpoints. hub may be nil, in which case the
// websocket route is not mounted.
func NewRouter(log zerolog.Logger, svc *trainer.Service, hub *Hub) http.Handler {
	s := &server{log: log, svc: svc, hub: hub}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(log))
	r.Use(middleware.Recoverer)

	r.Route("/api/trainer", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/status", s.status)
		r.Get("/report", s.report)
		r.Post("/start", s.start)
		r.Post("/stop", s.stop)
	})
	if hub != nil {
		r.Get("/ws/generations", s.serveWS)
	}
	return r
}

// accessLog logs each request with the id chi's RequestID middleware
// assigned.
func accessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("rid", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("dur", time.Since(start)).
				Msg("request completed")
		})
	}
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "running": s.svc.Status().Running})
}

func (s *server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *server) report(w http.ResponseWriter, r *http.Request) {
	report, ok := s.svc.Report()
	if !ok {
		writeError(w, http.StatusNotFound, "no finished run")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// startRequest overrides fields of the service's base config. Omitted fields
// keep the base value.
type startRequest struct {
	Population   *int     `json:"population"`
	Generations  *int     `json:"generations"`
	Placements   *int     `json:"placements"`
	MutationRate *float64 `json:"mutation_rate"`
	MutationStep *float64 `json:"mutation_step"`
	Fitness      *string  `json:"fitness"`
	Seed         *int64   `json:"seed"`
}

func (req startRequest) apply(cfg trainer.Config) (trainer.Config, error) {
	if req.Population != nil {
		cfg.Population = *req.Population
	}
	if req.Generations != nil {
		cfg.Generations = *req.Generations
	}
	if req.Placements != nil {
		cfg.Placements = *req.Placements
	}
	if req.MutationRate != nil {
		cfg.MutationRate = *req.MutationRate
	}
	if req.MutationStep != nil {
		cfg.MutationStep = *req.MutationStep
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.Fitness != nil {
		f, err := trainer.ParseFitness(*req.Fitness)
		if err != nil {
			return cfg, err
		}
		cfg.Fitness = f
	}
	return cfg, nil
}

func (s *server) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	cfg, err := req.apply(s.svc.Config())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.svc.Start(cfg); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, trainer.ErrAlreadyRunning) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Status())
}

func (s *server) stop(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Stop("requested via api"); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Status())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
