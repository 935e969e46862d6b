package stats

import (
	"fmt"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/storage"
)

// Aggregator computes streak and progress figures for a habit. It is a pure
// read side: every call rescans the habit's completion records, and nothing
// is cached between calls.
type Aggregator struct {
	store storage.Provider
}

func New(store storage.Provider) *Aggregator {
	return &Aggregator{store: store}
}

// MonthlyStats summarizes one calendar month of a habit's history.
type MonthlyStats struct {
	CompletedDays    int
	TotalDaysElapsed int
	Percentage       float64
}

// LifetimeStats covers the full history from habit creation to asOf.
type LifetimeStats struct {
	CompletedDays int
	TotalDays     int
	BestStreak    int
	Percentage    float64
}

// CurrentStreak counts consecutive days ending at asOf (inclusive) with a
// completed outcome. A skipped or missing day breaks the streak.
func (a *Aggregator) CurrentStreak(habitID, asOf string) (int, error) {
	day, err := parseDay(asOf)
	if err != nil {
		return 0, err
	}

	if _, err := a.store.GetHabit(habitID); err != nil {
		return 0, err
	}

	completed, err := a.completedDays(habitID)
	if err != nil {
		return 0, err
	}

	streak := 0
	for completed[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

// Monthly reports completion for one calendar month, as of asOf. The
// denominator is the smaller of the days elapsed in the month and the days
// since the habit was created.
func (a *Aggregator) Monthly(habitID string, year int, month time.Month, asOf string) (MonthlyStats, error) {
	asOfDay, err := parseDay(asOf)
	if err != nil {
		return MonthlyStats{}, err
	}

	habit, err := a.store.GetHabit(habitID)
	if err != nil {
		return MonthlyStats{}, err
	}

	records, err := a.store.ListCompletions(habitID)
	if err != nil {
		return MonthlyStats{}, err
	}

	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	completed := 0
	for _, rec := range records {
		if rec.Outcome == models.OutcomeCompleted && len(rec.Day) >= len(prefix) && rec.Day[:len(prefix)] == prefix {
			completed++
		}
	}

	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	var elapsed int
	switch {
	case asOfDay.Before(monthStart):
		elapsed = 0
	case asOfDay.After(monthEnd):
		elapsed = monthEnd.Day()
	default:
		elapsed = asOfDay.Day()
	}

	sinceCreation := daysBetween(creationDay(habit), asOfDay) + 1
	if sinceCreation < 0 {
		sinceCreation = 0
	}
	if sinceCreation < elapsed {
		elapsed = sinceCreation
	}

	return MonthlyStats{
		CompletedDays:    completed,
		TotalDaysElapsed: elapsed,
		Percentage:       ratio(completed, elapsed),
	}, nil
}

// Lifetime reports completion over the habit's whole history up to asOf,
// including the longest run of consecutive completed days.
func (a *Aggregator) Lifetime(habitID, asOf string) (LifetimeStats, error) {
	asOfDay, err := parseDay(asOf)
	if err != nil {
		return LifetimeStats{}, err
	}

	habit, err := a.store.GetHabit(habitID)
	if err != nil {
		return LifetimeStats{}, err
	}

	records, err := a.store.ListCompletions(habitID)
	if err != nil {
		return LifetimeStats{}, err
	}

	// Records come back ordered by day, so completions, runs, and the best
	// streak all fall out of one scan.
	completed := 0
	best, run := 0, 0
	var prev time.Time
	for _, rec := range records {
		if rec.Outcome != models.OutcomeCompleted {
			continue
		}
		day, err := parseDay(rec.Day)
		if err != nil {
			return LifetimeStats{}, err
		}
		completed++
		if run > 0 && daysBetween(prev, day) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
		prev = day
	}

	total := daysBetween(creationDay(habit), asOfDay) + 1
	if total < 0 {
		total = 0
	}

	return LifetimeStats{
		CompletedDays: completed,
		TotalDays:     total,
		BestStreak:    best,
		Percentage:    ratio(completed, total),
	}, nil
}

// creationDay is the habit's creation date in its own time zone, truncated
// to midnight UTC for day arithmetic.
func creationDay(habit models.Habit) time.Time {
	loc, err := time.LoadLocation(habit.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := habit.CreatedAt.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDay(day string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", day, err)
	}
	return t, nil
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func (a *Aggregator) completedDays(habitID string) (map[string]bool, error) {
	records, err := a.store.ListCompletions(habitID)
	if err != nil {
		return nil, err
	}

	completed := make(map[string]bool, len(records))
	for _, rec := range records {
		if rec.Outcome == models.OutcomeCompleted {
			completed[rec.Day] = true
		}
	}
	return completed, nil
}
