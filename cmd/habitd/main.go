package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/cli"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/logger"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/storage"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"SQLite database path." type:"path" default:"~/.config/habitd/habitd.db"`
	Postgres string `env:"HABITD_POSTGRES" help:"PostgreSQL connection string; overrides --config."`
	Owner    string `env:"HABITD_OWNER" default:"default" help:"Owner scope for habits."`
	Debug    bool   `help:"Enable debug logging to stderr."`

	Init  cli.InitCmd  `cmd:"" help:"Initialize habitd storage."`
	Serve cli.ServeCmd `cmd:"" help:"Run the reminder dispatch loop."`
	Due   cli.DueCmd   `cmd:"" help:"List currently due schedules without dispatching."`
	Habit struct {
		Add      cli.HabitAddCmd      `cmd:"" help:"Add a new habit."`
		List     cli.HabitListCmd     `cmd:"" help:"List habits and their schedules."`
		Rename   cli.HabitRenameCmd   `cmd:"" help:"Rename a habit."`
		Describe cli.HabitDescribeCmd `cmd:"" help:"Update a habit's description."`
		Delete   cli.HabitDeleteCmd   `cmd:"" help:"Delete a habit and its history."`
	} `cmd:"" help:"Manage habits."`
	Schedule struct {
		Add    cli.ScheduleAddCmd    `cmd:"" help:"Add a daily reminder schedule."`
		List   cli.ScheduleListCmd   `cmd:"" help:"List a habit's schedules."`
		Delete cli.ScheduleDeleteCmd `cmd:"" help:"Delete a schedule."`
	} `cmd:"" help:"Manage reminder schedules."`
	Record cli.RecordCmd `cmd:"" help:"Record a habit outcome for a day."`
	Stats  cli.StatsCmd  `cmd:"" help:"Show streak and completion stats."`
	Doctor cli.DoctorCmd `cmd:"" help:"Run health checks."`
	Secret struct {
		Set    cli.SecretSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Delete cli.SecretDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
	} `cmd:"" help:"Manage secrets."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("habitd"),
		kong.Description("Habit reminder scheduler and streak tracker"),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: filepath.Dir(CLI.Config),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		os.Exit(1)
	}

	var store storage.Provider
	if CLI.Postgres != "" {
		pg, err := storage.NewPostgresStore(CLI.Postgres)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		store = pg
	} else {
		store = storage.NewSQLiteStore(CLI.Config)
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store: store,
		Owner: CLI.Owner,
		Debug: CLI.Debug,
	}

	if err := ctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
