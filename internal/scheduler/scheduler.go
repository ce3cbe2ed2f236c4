// Package scheduler runs the service's periodic jobs on six-field cron
// schedules.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a named unit of periodic work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler wraps a seconds-resolution cron runner and gives every job the
// same execution logging, whether it fired on schedule or was triggered
// manually.
type Scheduler struct {
	cron    *cron.Cron
	entries map[string]cron.EntryID
	log     zerolog.Logger
}

// New creates a scheduler. Schedules use the six-field form with a leading
// seconds field:
//   - "0 30 0 * * *"   - 00:30 daily
//   - "@hourly"        - Every hour
//   - "@every 30s"     - Every 30 seconds
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		entries: make(map[string]cron.EntryID),
		log:     log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins dispatching registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.entries)).Msg("Scheduler started")
}

// Stop halts dispatch and blocks until in-flight jobs return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a job under its name. Jobs are singletons; registering
// the same name twice is an error.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %q is already registered", name)
	}

	id, err := s.cron.AddFunc(schedule, func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %q: %w", schedule, name, err)
	}
	s.entries[name] = id

	s.log.Info().Str("job", name).Str("schedule", schedule).Msg("Job registered")
	return nil
}

// RunNow executes a job immediately, outside its schedule.
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Manual job trigger")
	return s.execute(job)
}

func (s *Scheduler) execute(job Job) error {
	start := time.Now()
	if err := job.Run(); err != nil {
		s.log.Error().Err(err).
			Str("job", job.Name()).
			Dur("duration_ms", time.Since(start)).
			Msg("Job failed")
		return err
	}
	s.log.Debug().
		Str("job", job.Name()).
		Dur("duration_ms", time.Since(start)).
		Msg("Job completed")
	return nil
}
