package trainer

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrAlreadyRunning = errors.New("training already running")
	ErrNotRunning     = errors.New("no running training job")
)

// Service runs at most one training job in the background and keeps the
// last job around so its status and report stay visible after it ends.
type Service struct {
	base    Config
	log     zerolog.Logger
	publish func(GenerationReport)
	// newJobContext creates the context each job runs under.
	newJobContext func() (context.Context, context.CancelFunc)

	jobMu     sync.Mutex
	jobCancel context.CancelFunc
	jobDone   chan struct{}
	current   *Trainer
	report    *Report
}

// NewService uses base for every job started without overrides. publish, if
// not nil, receives every generation report of every job.
func NewService(base Config, publish func(GenerationReport)) *Service {
	return &Service{
		base:    base,
		log:     base.Logger.With().Str("component", "trainer-service").Logger(),
		publish: publish,
		newJobContext: func() (context.Context, context.CancelFunc) {
			return context.WithCancel(context.Background())
		},
	}
}

// Config returns the base configuration new jobs start from.
func (s *Service) Config() Config {
	return s.base
}

// Start launches a job with cfg. It fails if a job is already running or cfg
// is invalid.
func (s *Service) Start(cfg Config) error {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if s.jobCancel != nil {
		return ErrAlreadyRunning
	}
	onGeneration := cfg.OnGeneration
	cfg.OnGeneration = func(gen GenerationReport) {
		if onGeneration != nil {
			onGeneration(gen)
		}
		if s.publish != nil {
			s.publish(gen)
		}
	}
	t, err := New(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := s.newJobContext()
	done := make(chan struct{})
	s.jobCancel = cancel
	s.jobDone = done
	s.current = t
	s.report = nil
	go func() {
		defer close(done)
		report, err := t.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error().Err(err).Str("run", t.RunID()).Msg("training failed")
		}
		cancel()
		s.jobMu.Lock()
		s.report = &report
		s.jobCancel = nil
		s.jobDone = nil
		s.jobMu.Unlock()
	}()
	return nil
}

// Stop cancels the running job and waits for it to wind down.
func (s *Service) Stop(reason string) error {
	s.jobMu.Lock()
	cancel := s.jobCancel
	done := s.jobDone
	s.jobMu.Unlock()
	if cancel == nil {
		return ErrNotRunning
	}
	s.log.Info().Str("reason", reason).Msg("stopping training")
	cancel()
	if done != nil {
		<-done
	}
	return nil
}

// Wait blocks until the running job, if any, has finished.
func (s *Service) Wait() {
	s.jobMu.Lock()
	done := s.jobDone
	s.jobMu.Unlock()
	if done != nil {
		<-done
	}
}

// Status describes the running job, or the last one if none is running.
func (s *Service) Status() Status {
	s.jobMu.Lock()
	t := s.current
	s.jobMu.Unlock()
	if t == nil {
		return newStatus("", s.base.withDefaults())
	}
	return t.Status()
}

// Report returns the report of the last finished job.
func (s *Service) Report() (Report, bool) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	if s.report == nil {
		return Report{}, false
	}
	return *s.report, true
}
