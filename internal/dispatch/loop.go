package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/clock"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/logger"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/storage"
)

// Deliverer sends the day's prompt to the user. A nil error means the
// platform accepted the message.
type Deliverer interface {
	DeliverPrompt(ctx context.Context, habit models.Habit, schedule models.Schedule, day string) error
}

type Config struct {
	// Tick is the poll interval. Defaults to 60s.
	Tick time.Duration
	// DeliveryTimeout bounds each delivery attempt so one slow endpoint
	// cannot stall the tick. Defaults to 10s.
	DeliveryTimeout time.Duration
	// CatchUpDays also dispatches prompts missed on the previous N days.
	CatchUpDays int
}

// Loop is the process-wide dispatcher: it polls the clock for due schedules,
// delivers prompts, and records firings so they are not repeated. Ticks run
// strictly one at a time.
type Loop struct {
	store     storage.Provider
	clock     *clock.Clock
	deliverer Deliverer
	cfg       Config
}

func New(store storage.Provider, deliverer Deliverer, cfg Config) *Loop {
	if cfg.Tick <= 0 {
		cfg.Tick = 60 * time.Second
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}

	c := clock.New(store)
	c.CatchUpDays = cfg.CatchUpDays

	return &Loop{
		store:     store,
		clock:     c,
		deliverer: deliverer,
		cfg:       cfg,
	}
}

// Clock exposes the loop's schedule clock for manual "send now" triggers.
func (l *Loop) Clock() *clock.Clock {
	return l.clock
}

// Run drives ticks until ctx is cancelled. It refuses to start against an
// unreachable store: due schedules are recomputed from persisted firing
// records, so the store must be verified first.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.store.Ping(); err != nil {
		return fmt.Errorf("store unreachable, refusing to start dispatch loop: %w", err)
	}

	logger.Info("dispatch loop started", "tick", l.cfg.Tick, "catch_up_days", l.cfg.CatchUpDays)

	ticker := time.NewTicker(l.cfg.Tick)
	defer ticker.Stop()

	for {
		l.Tick(ctx, time.Now())

		select {
		case <-ctx.Done():
			logger.Info("dispatch loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick dispatches every schedule due at now, once. A failure on one schedule
// never blocks the rest; cancellation is honored between schedules only, so
// an in-flight delivery always gets its firing record written.
func (l *Loop) Tick(ctx context.Context, now time.Time) {
	due, err := l.clock.DueSchedules(now)
	if err != nil {
		logger.Error("due schedule lookup failed", "error", err)
		return
	}

	for _, d := range due {
		select {
		case <-ctx.Done():
			return
		default:
		}
		l.dispatch(d)
	}
}

func (l *Loop) dispatch(d clock.Due) {
	habit, err := l.store.GetHabit(d.Schedule.HabitID)
	if err != nil {
		logger.Error("failed to load habit for due schedule",
			"schedule", d.Schedule.ID, "habit", d.Schedule.HabitID, "error", err)
		return
	}

	// Re-check the firing record right before delivering: a concurrent
	// dispatcher may have handled this schedule since the due computation.
	fired, err := l.store.HasFiringRecord(d.Schedule.ID, d.Day)
	if err != nil {
		logger.Error("failed to check firing record", "schedule", d.Schedule.ID, "error", err)
		return
	}
	if fired {
		logger.Debug("prompt already dispatched elsewhere", "schedule", d.Schedule.ID, "day", d.Day)
		return
	}

	// The delivery context is detached from the loop context: shutdown
	// must not cancel a delivery mid-flight, or the firing could happen
	// without being recorded and repeat on restart.
	dctx, cancel := context.WithTimeout(context.Background(), l.cfg.DeliveryTimeout)
	defer cancel()

	if err := l.deliverer.DeliverPrompt(dctx, habit, d.Schedule, d.Day); err != nil {
		logger.Warn("prompt delivery failed, will retry next tick",
			"habit", habit.Name, "schedule", d.Schedule.ID, "day", d.Day, "error", err)
		return
	}

	rec := models.FiringRecord{
		ScheduleID: d.Schedule.ID,
		Day:        d.Day,
		FiredAt:    time.Now().UTC(),
	}
	if err := l.store.AddFiringRecord(rec); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// A concurrent dispatcher won the insert; the prompt is handled.
			logger.Debug("firing already recorded", "schedule", d.Schedule.ID, "day", d.Day)
			return
		}
		logger.Error("failed to record firing",
			"schedule", d.Schedule.ID, "day", d.Day, "error", err)
		return
	}

	logger.Info("prompt dispatched", "habit", habit.Name, "schedule", d.Schedule.ID, "day", d.Day)
}
