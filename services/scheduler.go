// services/scheduler.go
package services

import (
	"context"
	"log/slog"
	"time"

	"mpa-platform/config"
	"mpa-platform/session"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the periodic housekeeping jobs.
type Scheduler struct {
	sched gocron.Scheduler
	log   *slog.Logger
}

func NewScheduler(cfg config.SchedulerConfig, notifications *NotificationService, payments *PaymentService, sessions *session.Manager, log *slog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	s := &Scheduler{sched: sched, log: log.With("component", "scheduler")}

	// Daily at 03:00 UTC: drop old read notifications
	if _, err := sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := notifications.Cleanup(ctx, cfg.NotificationRetention); err != nil {
				s.log.Error("notification cleanup failed", "error", err)
			}
		}),
		gocron.WithName("notification-cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}

	// Hourly: surface payment claims waiting too long for review
	if _, err := sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			stale, err := payments.StalePending(ctx, cfg.PendingPaymentAge)
			if err != nil {
				s.log.Error("stale payment check failed", "error", err)
				return
			}
			for _, tx := range stale {
				s.log.Warn("payment awaiting review", "transaction_id", tx.ID, "user_id", tx.UserID, "age", time.Since(tx.CreatedAt).Round(time.Minute))
			}
		}),
		gocron.WithName("stale-payments"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}

	// Every minute: sign out expired or idle sessions
	if _, err := sched.NewJob(
		gocron.DurationJob(time.Minute),
		gocron.NewTask(func() {
			if n := sessions.Expire(cfg.SessionIdle); n > 0 {
				s.log.Info("expired sessions", "count", n)
			}
		}),
		gocron.WithName("session-expiry"),
	); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	s.log.Info("scheduler started", "jobs", len(s.sched.Jobs()))
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
