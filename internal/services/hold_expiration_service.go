package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// HoldExpirationService periodically clears seat holds whose booking never finished
type HoldExpirationService struct {
	cron     *cron.Cron
	seats    SeatStore
	interval time.Duration
	timeout  time.Duration
	logger   *logrus.Logger
}

// NewHoldExpirationService creates a new hold sweeper
func NewHoldExpirationService(seats SeatStore, interval time.Duration, logger *logrus.Logger) *HoldExpirationService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HoldExpirationService{
		cron:     cron.New(),
		seats:    seats,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start schedules the sweep
func (s *HoldExpirationService) Start() error {
	schedule := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(schedule, s.sweepJob); err != nil {
		return fmt.Errorf("failed to schedule hold sweep: %w", err)
	}
	s.cron.Start()
	s.logger.WithField("interval", s.interval.String()).Info("Hold expiration service started")
	return nil
}

// Stop waits for a running sweep to finish
func (s *HoldExpirationService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Hold expiration service stopped")
}

func (s *HoldExpirationService) sweepJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.WithError(err).Error("Hold sweep failed")
	}
}

// RunOnce releases every expired hold and returns how many were cleared
func (s *HoldExpirationService) RunOnce(ctx context.Context) (int64, error) {
	started := time.Now()
	released, err := s.seats.ReleaseExpiredHolds(ctx)
	if err != nil {
		return 0, err
	}

	if released > 0 {
		s.logger.WithFields(logrus.Fields{
			"released":    released,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("Released expired seat holds")
	}
	return released, nil
}

// Status reports the schedule of the sweep
func (s *HoldExpirationService) Status() map[string]interface{} {
	entries := s.cron.Entries()
	status := map[string]interface{}{
		"running":  len(entries) > 0,
		"interval": s.interval.String(),
	}
	if len(entries) > 0 {
		status["next_run"] = entries[0].Next
		status["prev_run"] = entries[0].Prev
	}
	return status
}
