package cli

import (
	"fmt"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/recorder"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/stats"
)

type RecordCmd struct {
	Habit   string `arg:"" help:"Habit id or name."`
	Outcome string `arg:"" help:"Outcome: completed|skipped (aliases: done, skip)."`
	Date    string `short:"D" help:"Day to record (YYYY-MM-DD); defaults to today in the habit's zone."`
}

func (c *RecordCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := resolveHabit(ctx, c.Habit)
	if err != nil {
		return err
	}

	var outcome models.Outcome
	switch c.Outcome {
	case "completed", "done", "yes":
		outcome = models.OutcomeCompleted
	case "skipped", "skip", "no":
		outcome = models.OutcomeSkipped
	default:
		return fmt.Errorf("invalid outcome %q: expected completed or skipped", c.Outcome)
	}

	day := c.Date
	if day == "" {
		loc, err := time.LoadLocation(habit.Timezone)
		if err != nil {
			loc = time.UTC
		}
		day = time.Now().In(loc).Format("2006-01-02")
	}

	rec, err := recorder.New(ctx.Store).Record(habit.ID, day, outcome)
	if err != nil {
		return err
	}

	fmt.Printf("Recorded %q as %s for %s\n", habit.Name, rec.Outcome, rec.Day)

	if streak, err := stats.New(ctx.Store).CurrentStreak(habit.ID, rec.Day); err == nil {
		fmt.Printf("Current streak: %d day(s)\n", streak)
	}
	return nil
}
