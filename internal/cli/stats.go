package cli

import (
	"fmt"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/stats"
)

type StatsCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Month string `short:"m" help:"Month to report (YYYY-MM); defaults to the current month."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := resolveHabit(ctx, c.Habit)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(habit.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	today := now.Format("2006-01-02")

	year, month := now.Year(), now.Month()
	if c.Month != "" {
		t, err := time.Parse("2006-01", c.Month)
		if err != nil {
			return fmt.Errorf("invalid month %q: expected YYYY-MM", c.Month)
		}
		year, month = t.Year(), t.Month()
	}

	agg := stats.New(ctx.Store)

	streak, err := agg.CurrentStreak(habit.ID, today)
	if err != nil {
		return err
	}
	monthly, err := agg.Monthly(habit.ID, year, month, today)
	if err != nil {
		return err
	}
	lifetime, err := agg.Lifetime(habit.ID, today)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", habit.Name)
	fmt.Printf("  Current streak: %d day(s)\n", streak)
	fmt.Printf("  %s %d: %d/%d days (%.0f%%)\n",
		month, year, monthly.CompletedDays, monthly.TotalDaysElapsed, monthly.Percentage*100)
	fmt.Printf("  Lifetime: %d/%d days (%.0f%%), best streak %d day(s)\n",
		lifetime.CompletedDays, lifetime.TotalDays, lifetime.Percentage*100, lifetime.BestStreak)
	return nil
}
