package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
)

type ScheduleAddCmd struct {
	Habit    string `arg:"" help:"Habit id or name."`
	Time     string `arg:"" help:"Time of day (HH:MM, 24-hour)."`
	Timezone string `short:"z" help:"IANA time zone; defaults to the habit's zone."`
}

func (c *ScheduleAddCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := resolveHabit(ctx, c.Habit)
	if err != nil {
		return err
	}

	timeOfDay, err := normalizeTimeOfDay(c.Time)
	if err != nil {
		return err
	}

	tz := c.Timezone
	if tz == "" {
		tz = habit.Timezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid time zone %q", tz)
	}

	schedule := models.Schedule{
		ID:        uuid.NewString(),
		HabitID:   habit.ID,
		TimeOfDay: timeOfDay,
		Timezone:  tz,
		Active:    true,
	}

	if err := ctx.Store.AddSchedule(schedule); err != nil {
		return err
	}

	fmt.Printf("Scheduled %q daily at %s %s (%s)\n", habit.Name, timeOfDay, tz, schedule.ID)
	return nil
}

type ScheduleListCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

func (c *ScheduleListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := resolveHabit(ctx, c.Habit)
	if err != nil {
		return err
	}

	schedules, err := ctx.Store.ListSchedules(habit.ID)
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		fmt.Printf("No schedules for %q.\n", habit.Name)
		return nil
	}

	for _, sch := range schedules {
		state := "active"
		if !sch.Active {
			state = "inactive"
		}
		fmt.Printf("%s  %s %s (%s)\n", sch.ID, sch.TimeOfDay, sch.Timezone, state)
	}
	return nil
}

type ScheduleDeleteCmd struct {
	ID string `arg:"" help:"Schedule id."`
}

func (c *ScheduleDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	if err := ctx.Store.DeleteSchedule(c.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted schedule %s\n", c.ID)
	return nil
}
