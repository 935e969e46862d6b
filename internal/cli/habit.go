package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
)

type HabitAddCmd struct {
	Name        string `arg:"" help:"Habit name."`
	Description string `short:"d" help:"Optional description."`
	Timezone    string `short:"z" help:"IANA time zone for this habit." default:"UTC"`
}

func (c *HabitAddCmd) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid time zone %q", c.Timezone)
	}
	return nil
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit := models.Habit{
		ID:          uuid.NewString(),
		OwnerID:     ctx.Owner,
		Name:        c.Name,
		Description: c.Description,
		Timezone:    c.Timezone,
		CreatedAt:   time.Now().UTC(),
	}

	if err := ctx.Store.AddHabit(habit); err != nil {
		return err
	}

	fmt.Printf("Added habit %q (%s)\n", habit.Name, habit.ID)
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habits, err := ctx.Store.ListHabits(ctx.Owner)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		fmt.Println("No habits yet. Add one with 'habitd habit add'.")
		return nil
	}

	for _, habit := range habits {
		fmt.Printf("%s  %s", habit.ID, habit.Name)
		if habit.Description != "" {
			fmt.Printf(" - %s", habit.Description)
		}
		fmt.Printf(" [%s]\n", habit.Timezone)

		schedules, err := ctx.Store.ListSchedules(habit.ID)
		if err != nil {
			return err
		}
		for _, sch := range schedules {
			state := "active"
			if !sch.Active {
				state = "inactive"
			}
			fmt.Printf("    %s  %s %s (%s)\n", sch.ID, sch.TimeOfDay, sch.Timezone, state)
		}
	}

	return nil
}

type HabitRenameCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
	Name  string `arg:"" help:"New name."`
}

func (c *HabitRenameCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := resolveHabit(ctx, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Store.RenameHabit(habit.ID, c.Name); err != nil {
		return err
	}

	fmt.Printf("Renamed %q to %q\n", habit.Name, c.Name)
	return nil
}

type HabitDescribeCmd struct {
	Habit       string `arg:"" help:"Habit id or name."`
	Description string `arg:"" help:"New description."`
}

func (c *HabitDescribeCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := resolveHabit(ctx, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Store.DescribeHabit(habit.ID, c.Description); err != nil {
		return err
	}

	fmt.Printf("Updated description for %q\n", habit.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or name."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	habit, err := resolveHabit(ctx, c.Habit)
	if err != nil {
		return err
	}
	if err := ctx.Store.DeleteHabit(habit.ID); err != nil {
		return err
	}

	fmt.Printf("Deleted habit %q and all of its schedules and records\n", habit.Name)
	return nil
}
