package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler fires scan runs on a cron cadence.
type Scheduler struct {
	orch *Orchestrator
	cron *cron.Cron
	spec string
	log  *zap.Logger
}

// NewScheduler creates a Scheduler ticking roughly every interval.
// Cron quantizes to whole minutes, so sub-minute intervals tick every
// minute.
func NewScheduler(orch *Orchestrator, interval time.Duration, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{orch: orch, spec: cronSpec(interval), log: log.Named("scheduler")}
}

// cronSpec renders the interval as a five-field cron expression.
// Intervals of an hour and more tick on whole hours.
func cronSpec(interval time.Duration) string {
	minutes := int(interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if minutes >= 60 {
		hours := minutes / 60
		if hours > 23 {
			hours = 23
		}
		return fmt.Sprintf("0 */%d * * *", hours)
	}
	return fmt.Sprintf("*/%d * * * *", minutes)
}

// Start registers the cron entry and fires one immediate scan so a
// fresh deployment does not wait a full interval for its first results.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("register cron entry %q: %w", s.spec, err)
	}
	s.cron = c
	c.Start()
	s.log.Info("scheduler started", zap.String("cron", s.spec))

	go s.tick(ctx)
	return nil
}

// tick runs one scan. Failures never propagate past this boundary.
func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.orch.RunScan(ctx)
	switch {
	case errors.Is(err, ErrScanInProgress):
		s.log.Info("previous scan still running, skipping tick")
	case err != nil:
		s.log.Error("scheduled scan failed", zap.Error(err))
	default:
		s.log.Info("scheduled scan finished",
			zap.Int("fresh_wallets", len(result.Wallets)),
			zap.Duration("duration", result.Duration))
	}
}

// Stop halts the cron loop and waits for a running entry to return.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
