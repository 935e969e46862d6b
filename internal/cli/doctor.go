package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	ps "github.com/mitchellh/go-ps"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/migration"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/storage"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/migrations"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	storeReachable := false

	// Check 1: store reachable
	if err := checkStoreReachable(ctx); err != nil {
		fmt.Printf("❌ Store reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Store reachable: OK\n")
		storeReachable = true
	}

	// Check 2: schema version
	if storeReachable {
		if err := checkSchemaVersion(ctx); err != nil {
			fmt.Printf("❌ Schema version: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Schema version: OK\n")
		}
	} else {
		fmt.Printf("⊘ Schema version: SKIPPED (store not reachable)\n")
	}

	// Check 3: schedule time zones resolve
	if storeReachable {
		if err := checkScheduleTimezones(ctx); err != nil {
			fmt.Printf("❌ Schedule time zones: FAIL\n")
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		} else {
			fmt.Printf("✓ Schedule time zones: OK\n")
		}
	} else {
		fmt.Printf("⊘ Schedule time zones: SKIPPED (store not reachable)\n")
	}

	// Check 4: competing dispatcher (warning only)
	if err := checkCompetingProcess(); err != nil {
		fmt.Printf("⚠ Single dispatcher: WARNING\n")
		fmt.Printf("   %v\n", err)
	} else {
		fmt.Printf("✓ Single dispatcher: OK\n")
	}

	// Check 5: system clock sanity
	if err := checkSystemClock(); err != nil {
		fmt.Printf("❌ System clock: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ System clock: OK\n")
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	if err := ctx.Store.Ping(); err != nil {
		return fmt.Errorf("failed to ping store: %w", err)
	}
	return nil
}

func checkSchemaVersion(ctx *Context) error {
	sqliteStore, ok := ctx.Store.(*storage.SQLiteStore)
	if !ok {
		// The Postgres store validates its schema on Load.
		return nil
	}

	db := sqliteStore.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return err
	}
	return migration.NewRunner(db, subFS).ValidateVersion()
}

func checkScheduleTimezones(ctx *Context) error {
	schedules, err := ctx.Store.ListActiveSchedules()
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}

	for _, sch := range schedules {
		if _, err := time.LoadLocation(sch.Timezone); err != nil {
			return fmt.Errorf("schedule %s has unresolvable time zone %q", sch.ID, sch.Timezone)
		}
	}
	return nil
}

// checkCompetingProcess looks for another habitd process. Two dispatchers
// against the same store are safe but will race on every due schedule, so
// it is worth flagging.
func checkCompetingProcess() error {
	self := filepath.Base(os.Args[0])
	procs, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("failed to list processes: %w", err)
	}

	for _, p := range procs {
		if p.Pid() == os.Getpid() {
			continue
		}
		if strings.EqualFold(p.Executable(), self) {
			return fmt.Errorf("another %s process is running (pid %d)", self, p.Pid())
		}
	}
	return nil
}

func checkSystemClock() error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
