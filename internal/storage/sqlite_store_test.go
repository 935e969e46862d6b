package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
)

func setupTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewSQLiteStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func testHabit(id, name string) models.Habit {
	return models.Habit{
		ID:        id,
		OwnerID:   "owner-1",
		Name:      name,
		Timezone:  "UTC",
		CreatedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestHabitCRUD(t *testing.T) {
	store := setupTestSQLiteStore(t)

	habit := testHabit("habit-1", "Read")
	habit.Description = "Read 20 pages"
	if err := store.AddHabit(habit); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}

	got, err := store.GetHabit("habit-1")
	if err != nil {
		t.Fatalf("failed to get habit: %v", err)
	}
	if got.Name != "Read" || got.Description != "Read 20 pages" || got.Timezone != "UTC" {
		t.Errorf("unexpected habit: %+v", got)
	}
	if !got.CreatedAt.Equal(habit.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", habit.CreatedAt, got.CreatedAt)
	}

	byName, err := store.GetHabitByName("owner-1", "Read")
	if err != nil {
		t.Fatalf("failed to get habit by name: %v", err)
	}
	if byName.ID != "habit-1" {
		t.Errorf("expected habit-1, got %s", byName.ID)
	}

	// Name lookup is owner scoped.
	if _, err := store.GetHabitByName("owner-2", "Read"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other owner, got %v", err)
	}

	if err := store.RenameHabit("habit-1", "Read More"); err != nil {
		t.Fatalf("failed to rename habit: %v", err)
	}
	if err := store.DescribeHabit("habit-1", "updated"); err != nil {
		t.Fatalf("failed to update description: %v", err)
	}

	got, err = store.GetHabit("habit-1")
	if err != nil {
		t.Fatalf("failed to get habit after update: %v", err)
	}
	if got.Name != "Read More" || got.Description != "updated" {
		t.Errorf("update not applied: %+v", got)
	}

	if err := store.RenameHabit("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound renaming missing habit, got %v", err)
	}
	if _, err := store.GetHabit("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateHabitName(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.AddHabit(testHabit("habit-1", "Read")); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	err := store.AddHabit(testHabit("habit-2", "Read"))
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate name, got %v", err)
	}

	// Same name under another owner is fine.
	other := testHabit("habit-3", "Read")
	other.OwnerID = "owner-2"
	if err := store.AddHabit(other); err != nil {
		t.Errorf("expected duplicate name under another owner to succeed, got %v", err)
	}
}

func TestScheduleDuplicateTimeOfDay(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.AddHabit(testHabit("habit-1", "Read")); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}

	sch := models.Schedule{
		ID:        "sch-1",
		HabitID:   "habit-1",
		TimeOfDay: "09:00",
		Timezone:  "UTC",
		Active:    true,
	}
	if err := store.AddSchedule(sch); err != nil {
		t.Fatalf("failed to add schedule: %v", err)
	}

	dup := sch
	dup.ID = "sch-2"
	if err := store.AddSchedule(dup); !errors.Is(err, ErrDuplicateSchedule) {
		t.Errorf("expected ErrDuplicateSchedule, got %v", err)
	}

	// A different time of day on the same habit is allowed.
	second := sch
	second.ID = "sch-3"
	second.TimeOfDay = "21:00"
	if err := store.AddSchedule(second); err != nil {
		t.Fatalf("failed to add second schedule: %v", err)
	}

	schedules, err := store.ListSchedules("habit-1")
	if err != nil {
		t.Fatalf("failed to list schedules: %v", err)
	}
	if len(schedules) != 2 {
		t.Errorf("expected 2 schedules, got %d", len(schedules))
	}
}

func TestFiringRecordConflict(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.AddHabit(testHabit("habit-1", "Read")); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	sch := models.Schedule{ID: "sch-1", HabitID: "habit-1", TimeOfDay: "09:00", Timezone: "UTC", Active: true}
	if err := store.AddSchedule(sch); err != nil {
		t.Fatalf("failed to add schedule: %v", err)
	}

	fired, err := store.HasFiringRecord("sch-1", "2026-08-20")
	if err != nil {
		t.Fatalf("failed to check firing record: %v", err)
	}
	if fired {
		t.Error("expected no firing record yet")
	}

	rec := models.FiringRecord{ScheduleID: "sch-1", Day: "2026-08-20", FiredAt: time.Now().UTC()}
	if err := store.AddFiringRecord(rec); err != nil {
		t.Fatalf("failed to add firing record: %v", err)
	}
	if err := store.AddFiringRecord(rec); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict on second insert, got %v", err)
	}

	fired, err = store.HasFiringRecord("sch-1", "2026-08-20")
	if err != nil {
		t.Fatalf("failed to check firing record: %v", err)
	}
	if !fired {
		t.Error("expected firing record after insert")
	}

	// A different day is a separate record.
	next := rec
	next.Day = "2026-08-21"
	if err := store.AddFiringRecord(next); err != nil {
		t.Errorf("expected next-day insert to succeed, got %v", err)
	}
}

func TestCompletionUpsert(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.AddHabit(testHabit("habit-1", "Read")); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}

	rec := models.CompletionRecord{
		HabitID:    "habit-1",
		Day:        "2026-08-20",
		Outcome:    models.OutcomeCompleted,
		RecordedAt: time.Now().UTC(),
	}
	if err := store.UpsertCompletion(rec); err != nil {
		t.Fatalf("failed to upsert completion: %v", err)
	}

	rec.Outcome = models.OutcomeSkipped
	if err := store.UpsertCompletion(rec); err != nil {
		t.Fatalf("failed to overwrite completion: %v", err)
	}

	got, err := store.GetCompletion("habit-1", "2026-08-20")
	if err != nil {
		t.Fatalf("failed to get completion: %v", err)
	}
	if got.Outcome != models.OutcomeSkipped {
		t.Errorf("expected skipped after overwrite, got %s", got.Outcome)
	}

	records, err := store.ListCompletions("habit-1")
	if err != nil {
		t.Fatalf("failed to list completions: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected a single record after upsert, got %d", len(records))
	}
}

func TestDeleteHabitCascades(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.AddHabit(testHabit("habit-1", "Read")); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	sch := models.Schedule{ID: "sch-1", HabitID: "habit-1", TimeOfDay: "09:00", Timezone: "UTC", Active: true}
	if err := store.AddSchedule(sch); err != nil {
		t.Fatalf("failed to add schedule: %v", err)
	}
	fr := models.FiringRecord{ScheduleID: "sch-1", Day: "2026-08-20", FiredAt: time.Now().UTC()}
	if err := store.AddFiringRecord(fr); err != nil {
		t.Fatalf("failed to add firing record: %v", err)
	}
	cr := models.CompletionRecord{HabitID: "habit-1", Day: "2026-08-20", Outcome: models.OutcomeCompleted, RecordedAt: time.Now().UTC()}
	if err := store.UpsertCompletion(cr); err != nil {
		t.Fatalf("failed to add completion: %v", err)
	}

	if err := store.DeleteHabit("habit-1"); err != nil {
		t.Fatalf("failed to delete habit: %v", err)
	}

	if _, err := store.GetHabit("habit-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected habit gone, got %v", err)
	}
	if _, err := store.GetSchedule("sch-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected schedule gone, got %v", err)
	}
	fired, err := store.HasFiringRecord("sch-1", "2026-08-20")
	if err != nil {
		t.Fatalf("failed to check firing record: %v", err)
	}
	if fired {
		t.Error("expected firing record gone after cascade")
	}
	if _, err := store.GetCompletion("habit-1", "2026-08-20"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected completion gone, got %v", err)
	}

	if err := store.DeleteHabit("habit-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestDeleteScheduleKeepsCompletions(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.AddHabit(testHabit("habit-1", "Read")); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	sch := models.Schedule{ID: "sch-1", HabitID: "habit-1", TimeOfDay: "09:00", Timezone: "UTC", Active: true}
	if err := store.AddSchedule(sch); err != nil {
		t.Fatalf("failed to add schedule: %v", err)
	}
	cr := models.CompletionRecord{HabitID: "habit-1", Day: "2026-08-20", Outcome: models.OutcomeCompleted, RecordedAt: time.Now().UTC()}
	if err := store.UpsertCompletion(cr); err != nil {
		t.Fatalf("failed to add completion: %v", err)
	}

	if err := store.DeleteSchedule("sch-1"); err != nil {
		t.Fatalf("failed to delete schedule: %v", err)
	}

	// Completion history belongs to the habit, not the schedule.
	if _, err := store.GetCompletion("habit-1", "2026-08-20"); err != nil {
		t.Errorf("expected completion to survive schedule delete, got %v", err)
	}
}

func TestListActiveSchedulesOrdering(t *testing.T) {
	store := setupTestSQLiteStore(t)

	if err := store.AddHabit(testHabit("habit-a", "Read")); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}
	habitB := testHabit("habit-b", "Run")
	if err := store.AddHabit(habitB); err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}

	for _, sch := range []models.Schedule{
		{ID: "sch-3", HabitID: "habit-b", TimeOfDay: "07:00", Timezone: "UTC", Active: true},
		{ID: "sch-2", HabitID: "habit-a", TimeOfDay: "21:00", Timezone: "UTC", Active: true},
		{ID: "sch-1", HabitID: "habit-a", TimeOfDay: "09:00", Timezone: "UTC", Active: true},
	} {
		if err := store.AddSchedule(sch); err != nil {
			t.Fatalf("failed to add schedule %s: %v", sch.ID, err)
		}
	}

	schedules, err := store.ListActiveSchedules()
	if err != nil {
		t.Fatalf("failed to list active schedules: %v", err)
	}

	want := []string{"sch-1", "sch-2", "sch-3"}
	if len(schedules) != len(want) {
		t.Fatalf("expected %d schedules, got %d", len(want), len(schedules))
	}
	for i, id := range want {
		if schedules[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, schedules[i].ID)
		}
	}
}

func TestLoadBeforeInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")
	store := NewSQLiteStore(dbPath)

	if err := store.Load(); err == nil {
		t.Error("expected Load to fail before Init")
	}
}
