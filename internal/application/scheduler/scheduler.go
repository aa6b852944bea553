// Package scheduler runs sync cycles on a schedule
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
	"github.com/robfig/cron/v3"
)

// DefaultCooldown is the wait after a cycle-level failure
const DefaultCooldown = 5 * time.Minute

// Syncer runs one sync cycle
type Syncer interface {
	Sync(ctx context.Context) (*entity.SyncRun, error)
}

// ParseSchedule returns the cron schedule for spec, or a fixed interval when
// spec is empty.
// Schedule examples:
//   - "0 */2 * * *"  - every two hours on the hour
//   - "@hourly"      - every hour
//   - "@every 90m"   - every 90 minutes
func ParseSchedule(spec string, interval time.Duration) (cron.Schedule, error) {
	if spec != "" {
		schedule, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
		}
		return schedule, nil
	}
	if interval <= 0 {
		return nil, errors.New("sync interval must be positive")
	}
	return cron.Every(interval), nil
}

// Scheduler is the single caller of Syncer.Sync, so cycles never overlap
type Scheduler struct {
	syncer   Syncer
	schedule cron.Schedule
	cooldown time.Duration
	trigger  chan struct{}
	now      func() time.Time
	logger   logger.Logger
}

// New creates a new scheduler
func New(syncer Syncer, schedule cron.Schedule, cooldown time.Duration, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &Scheduler{
		syncer:   syncer,
		schedule: schedule,
		cooldown: cooldown,
		trigger:  make(chan struct{}, 1),
		now:      time.Now,
		logger:   log.WithField("component", "scheduler"),
	}
}

// Trigger requests an immediate cycle. It reports false when a request is
// already pending; the pending request covers this one.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Run executes a cycle immediately and then on every schedule tick until ctx
// is cancelled. After a failed cycle the next one waits for the cooldown
// instead.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Scheduler started", map[string]interface{}{
		"cooldown": s.cooldown.String(),
	})

	for {
		wait := s.cooldown
		if err := s.runCycle(ctx); err == nil {
			wait = s.untilNext()
		} else if ctx.Err() == nil {
			s.logger.Warn("Sync cycle failed, cooling down", map[string]interface{}{
				"error":    err.Error(),
				"cooldown": s.cooldown.String(),
			})
		}

		if ctx.Err() != nil {
			break
		}

		s.logger.Debug("Waiting for next cycle", map[string]interface{}{
			"wait": wait.String(),
		})

		if !s.wait(ctx, wait) {
			break
		}
	}

	s.logger.Info("Scheduler stopped", nil)
}

func (s *Scheduler) untilNext() time.Duration {
	now := s.now()
	wait := s.schedule.Next(now).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// wait blocks for d, a trigger, or cancellation; it reports false on cancellation
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-s.trigger:
		s.logger.Info("Manual sync triggered", nil)
		return true
	case <-timer.C:
		return true
	}
}

// runCycle runs one sync, turning a panic into a cycle error
func (s *Scheduler) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync cycle panicked: %v", r)
			s.logger.Error("Sync cycle panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
			})
		}
	}()

	// A pending trigger is served by this cycle
	select {
	case <-s.trigger:
	default:
	}

	_, err = s.syncer.Sync(ctx)
	return err
}
