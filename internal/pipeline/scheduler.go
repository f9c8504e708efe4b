package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/condor/internal/common"
)

// Scheduler runs a job on a cron expression. A tick that fires while the
// previous job is still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	job     func(ctx context.Context) error
	logger  arbor.ILogger
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	busy    bool
	running bool
}

// NewScheduler validates expr and registers job on it.
func NewScheduler(expr string, job func(ctx context.Context) error, logger arbor.ILogger) (*Scheduler, error) {
	if err := common.ValidateSchedule(expr); err != nil {
		return nil, err
	}

	s := &Scheduler{
		cron:   cron.New(),
		job:    job,
		logger: logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}
	return s, nil
}

// Start begins firing ticks in the background.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.cron.Start()
	s.running = true

	if entries := s.cron.Entries(); len(entries) > 0 {
		s.logger.Info().Str("next_run", entries[0].Next.Format("2006-01-02 15:04:05")).Msg("Scheduler started")
	}
	return nil
}

// Stop cancels a job in progress and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) tick() {
	defer common.Recover(s.logger, "scheduled run")

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous run still in progress, skipping this tick")
		return
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if err := s.job(s.ctx); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled run failed")
	}
}
