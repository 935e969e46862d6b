package clock

import (
	"fmt"
	"sort"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/storage"
)

// Due pairs a schedule with the local calendar day its prompt is owed for.
// The day is usually today; with a catch-up lookback it may be earlier.
type Due struct {
	Schedule models.Schedule
	Day      string // YYYY-MM-DD in the schedule's zone
}

// Clock decides which schedules are due at a given instant. It keeps no
// state of its own: "already fired" truth lives entirely in the store's
// firing records, so a restart cannot lose or duplicate dispatches.
type Clock struct {
	store storage.Provider

	// CatchUpDays extends the lookback to schedules unfired on the
	// previous N local days. 0 means only today is ever due.
	CatchUpDays int
}

func New(store storage.Provider) *Clock {
	return &Clock{store: store}
}

// DueSchedules returns every active schedule whose time of day, in its own
// zone, has passed at now and which has no firing record for that local day.
// Results are ordered by habit id, then time of day, then schedule id, so
// dispatch order is reproducible.
func (c *Clock) DueSchedules(now time.Time) ([]Due, error) {
	schedules, err := c.store.ListActiveSchedules()
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	var due []Due
	for _, sch := range schedules {
		loc, err := time.LoadLocation(sch.Timezone)
		if err != nil {
			// Unresolvable zones are skipped rather than failing the
			// whole tick; creation-time validation should prevent them.
			continue
		}
		minutes, err := parseTimeOfDay(sch.TimeOfDay)
		if err != nil {
			continue
		}

		local := now.In(loc)
		for back := 0; back <= c.CatchUpDays; back++ {
			if back == 0 && minutes > local.Hour()*60+local.Minute() {
				continue
			}
			day := local.AddDate(0, 0, -back).Format("2006-01-02")
			fired, err := c.store.HasFiringRecord(sch.ID, day)
			if err != nil {
				return nil, fmt.Errorf("failed to check firing record: %w", err)
			}
			if !fired {
				due = append(due, Due{Schedule: sch, Day: day})
			}
		}
	}

	sort.Slice(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if a.Schedule.HabitID != b.Schedule.HabitID {
			return a.Schedule.HabitID < b.Schedule.HabitID
		}
		if a.Schedule.TimeOfDay != b.Schedule.TimeOfDay {
			return a.Schedule.TimeOfDay < b.Schedule.TimeOfDay
		}
		if a.Schedule.ID != b.Schedule.ID {
			return a.Schedule.ID < b.Schedule.ID
		}
		return a.Day < b.Day
	})

	return due, nil
}

func parseTimeOfDay(timeStr string) (int, error) {
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
