package services

import (
	"context"
	"time"

	"membership-api/pkg/logging"
)

// SchedulerService runs the periodic background sweeps: resuming frozen
// memberships whose window elapsed and mailing expiry reminders. The two
// sweeps are independent; each tolerates partial failure per entry.
type SchedulerService struct {
	freeze     *FreezeService
	reminders  *ReminderService
	interval   time.Duration
	daysBefore int
}

// NewSchedulerService creates a scheduler
func NewSchedulerService(freeze *FreezeService, reminders *ReminderService, interval time.Duration, reminderDaysBefore int) *SchedulerService {
	return &SchedulerService{
		freeze:     freeze,
		reminders:  reminders,
		interval:   interval,
		daysBefore: reminderDaysBefore,
	}
}

// Start launches the sweep loop in a goroutine. It runs once immediately so
// a restart does not delay overdue unfreezes by a full interval, then ticks
// until the context is cancelled.
func (s *SchedulerService) Start(ctx context.Context) {
	go func() {
		logging.Infof("Scheduler started, sweep interval %s", s.interval)
		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logging.Infof("Scheduler stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	now := time.Now()
	s.freeze.SweepDueUnfreezes(now)
	s.reminders.SweepExpiryReminders(ctx, now, s.daysBefore)
}
