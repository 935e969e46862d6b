package cli

import (
	"fmt"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/clock"
)

type DueCmd struct {
	CatchUpDays int `help:"Also list prompts missed on the previous N days." default:"0"`
}

// Run lists the schedules that are currently due without dispatching
// anything, so no firing records are written.
func (c *DueCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	clk := clock.New(ctx.Store)
	clk.CatchUpDays = c.CatchUpDays

	due, err := clk.DueSchedules(time.Now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		fmt.Println("Nothing due.")
		return nil
	}

	for _, d := range due {
		habit, err := ctx.Store.GetHabit(d.Schedule.HabitID)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s at %s %s (schedule %s)\n",
			d.Day, habit.Name, d.Schedule.TimeOfDay, d.Schedule.Timezone, d.Schedule.ID)
	}
	return nil
}
