package stats

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/storage"
)

func setupAggregator(t *testing.T) (*Aggregator, *storage.SQLiteStore) {
	t.Helper()

	store := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.AddHabit(models.Habit{
		ID:        "habit-1",
		OwnerID:   "owner-1",
		Name:      "Read",
		Timezone:  "UTC",
		CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}

	return New(store), store
}

func record(t *testing.T, store *storage.SQLiteStore, day string, outcome models.Outcome) {
	t.Helper()

	if err := store.UpsertCompletion(models.CompletionRecord{
		HabitID:    "habit-1",
		Day:        day,
		Outcome:    outcome,
		RecordedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("failed to record %s: %v", day, err)
	}
}

func TestCurrentStreak(t *testing.T) {
	agg, store := setupAggregator(t)

	record(t, store, "2026-08-01", models.OutcomeCompleted)
	record(t, store, "2026-08-02", models.OutcomeCompleted)
	record(t, store, "2026-08-03", models.OutcomeCompleted)

	streak, err := agg.CurrentStreak("habit-1", "2026-08-03")
	if err != nil {
		t.Fatalf("CurrentStreak failed: %v", err)
	}
	if streak != 3 {
		t.Errorf("expected streak 3, got %d", streak)
	}

	// The day after the run has no completion, so the streak is gone.
	streak, err = agg.CurrentStreak("habit-1", "2026-08-04")
	if err != nil {
		t.Fatalf("CurrentStreak failed: %v", err)
	}
	if streak != 0 {
		t.Errorf("expected streak 0 on the missing day, got %d", streak)
	}
}

func TestCurrentStreakSkippedBreaks(t *testing.T) {
	agg, store := setupAggregator(t)

	record(t, store, "2026-08-01", models.OutcomeCompleted)
	record(t, store, "2026-08-02", models.OutcomeSkipped)
	record(t, store, "2026-08-03", models.OutcomeCompleted)
	record(t, store, "2026-08-04", models.OutcomeCompleted)

	streak, err := agg.CurrentStreak("habit-1", "2026-08-04")
	if err != nil {
		t.Fatalf("CurrentStreak failed: %v", err)
	}
	if streak != 2 {
		t.Errorf("expected skip to reset the streak to 2, got %d", streak)
	}
}

func TestCurrentStreakUnknownHabit(t *testing.T) {
	agg, _ := setupAggregator(t)

	if _, err := agg.CurrentStreak("missing", "2026-08-03"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMonthly(t *testing.T) {
	agg, store := setupAggregator(t)

	for day := 1; day <= 10; day++ {
		record(t, store, time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), models.OutcomeCompleted)
	}
	record(t, store, "2026-08-11", models.OutcomeSkipped)

	got, err := agg.Monthly("habit-1", 2026, time.August, "2026-08-15")
	if err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}
	if got.CompletedDays != 10 {
		t.Errorf("expected 10 completed days, got %d", got.CompletedDays)
	}
	if got.TotalDaysElapsed != 15 {
		t.Errorf("expected 15 elapsed days, got %d", got.TotalDaysElapsed)
	}
	if math.Abs(got.Percentage-10.0/15.0) > 1e-9 {
		t.Errorf("expected percentage %.4f, got %.4f", 10.0/15.0, got.Percentage)
	}
}

func TestMonthlyDenominatorCappedByCreation(t *testing.T) {
	agg, store := setupAggregator(t)

	// Habit created 2026-08-01; asking mid-month counts only days since then.
	record(t, store, "2026-08-01", models.OutcomeCompleted)

	got, err := agg.Monthly("habit-1", 2026, time.August, "2026-08-05")
	if err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}
	if got.TotalDaysElapsed != 5 {
		t.Errorf("expected 5 elapsed days, got %d", got.TotalDaysElapsed)
	}

	// A past full month uses the whole month as the denominator.
	record(t, store, "2026-08-31", models.OutcomeCompleted)
	got, err = agg.Monthly("habit-1", 2026, time.August, "2026-09-10")
	if err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}
	if got.TotalDaysElapsed != 31 {
		t.Errorf("expected 31 elapsed days for a past month, got %d", got.TotalDaysElapsed)
	}

	// A month before creation has nothing to count.
	got, err = agg.Monthly("habit-1", 2026, time.July, "2026-08-05")
	if err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}
	if got.CompletedDays != 0 || got.Percentage != 0 {
		t.Errorf("expected empty stats before creation, got %+v", got)
	}
}

func TestLifetime(t *testing.T) {
	agg, store := setupAggregator(t)

	// Two runs: 3 days, a skip, then 2 days.
	record(t, store, "2026-08-01", models.OutcomeCompleted)
	record(t, store, "2026-08-02", models.OutcomeCompleted)
	record(t, store, "2026-08-03", models.OutcomeCompleted)
	record(t, store, "2026-08-04", models.OutcomeSkipped)
	record(t, store, "2026-08-05", models.OutcomeCompleted)
	record(t, store, "2026-08-06", models.OutcomeCompleted)

	got, err := agg.Lifetime("habit-1", "2026-08-10")
	if err != nil {
		t.Fatalf("Lifetime failed: %v", err)
	}
	if got.CompletedDays != 5 {
		t.Errorf("expected 5 completed days, got %d", got.CompletedDays)
	}
	if got.TotalDays != 10 {
		t.Errorf("expected 10 total days, got %d", got.TotalDays)
	}
	if got.BestStreak != 3 {
		t.Errorf("expected best streak 3, got %d", got.BestStreak)
	}
	if math.Abs(got.Percentage-0.5) > 1e-9 {
		t.Errorf("expected percentage 0.5, got %.4f", got.Percentage)
	}
}

func TestLifetimeBestStreakGap(t *testing.T) {
	agg, store := setupAggregator(t)

	// Non-adjacent completions never chain into a streak.
	record(t, store, "2026-08-01", models.OutcomeCompleted)
	record(t, store, "2026-08-03", models.OutcomeCompleted)
	record(t, store, "2026-08-05", models.OutcomeCompleted)

	got, err := agg.Lifetime("habit-1", "2026-08-05")
	if err != nil {
		t.Fatalf("Lifetime failed: %v", err)
	}
	if got.BestStreak != 1 {
		t.Errorf("expected best streak 1 with gaps, got %d", got.BestStreak)
	}
}

func TestLifetimeEmptyHistory(t *testing.T) {
	agg, _ := setupAggregator(t)

	got, err := agg.Lifetime("habit-1", "2026-08-10")
	if err != nil {
		t.Fatalf("Lifetime failed: %v", err)
	}
	if got.CompletedDays != 0 || got.BestStreak != 0 || got.Percentage != 0 {
		t.Errorf("expected zeroed stats, got %+v", got)
	}
	if got.TotalDays != 10 {
		t.Errorf("expected 10 total days from creation, got %d", got.TotalDays)
	}
}
