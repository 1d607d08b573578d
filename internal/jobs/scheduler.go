package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mkruchkov/accountd/internal/store"
)

// Scheduler manages background maintenance jobs
type Scheduler struct {
	cron     *cron.Cron
	sessions store.OAuthSessionStore
	resets   store.ResetTokenStore
	logger   zerolog.Logger
}

// NewScheduler creates a new job scheduler
func NewScheduler(sessions store.OAuthSessionStore, resets store.ResetTokenStore, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		sessions: sessions,
		resets:   resets,
		logger:   logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Purge expired OAuth sessions, linking tokens and reset tokens
	s.cron.AddFunc("*/10 * * * *", s.cleanupExpired)

	s.cron.Start()
	s.logger.Info().Msg("job scheduler started")

	// Run cleanup immediately on start
	go s.cleanupExpired()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info().Msg("job scheduler stopped")
}

func (s *Scheduler) cleanupExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	deleted, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to delete expired oauth records")
	} else if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("deleted expired oauth records")
	}

	deleted, err = s.resets.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to delete expired reset tokens")
	} else if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("deleted expired reset tokens")
	}
}
