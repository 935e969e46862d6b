package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/migration"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/migrations"
)

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

func (s *SQLiteStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'habitd init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	return s.validateSchemaVersion()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	return s.db.Ping()
}

func (s *SQLiteStore) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS)
	_, err = runner.Apply(nil)
	return err
}

// GetDB exposes the underlying handle for diagnostics.
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) validateSchemaVersion() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS).ValidateVersion()
}

func (s *SQLiteStore) AddHabit(habit models.Habit) error {
	res, err := s.db.Exec(`
		INSERT INTO habits (id, owner_id, name, description, timezone, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		habit.ID, habit.OwnerID, habit.Name, habit.Description, habit.Timezone,
		habit.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("habit %q: %w", habit.Name, ErrConflict)
	}
	return nil
}

func scanHabit(row interface{ Scan(...any) error }) (models.Habit, error) {
	var h models.Habit
	var createdAt string

	err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Description, &h.Timezone, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, ErrNotFound
		}
		return models.Habit{}, err
	}

	h.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return h, nil
}

func (s *SQLiteStore) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`
		SELECT id, owner_id, name, description, timezone, created_at
		FROM habits WHERE id = ?`, id)
	return scanHabit(row)
}

func (s *SQLiteStore) GetHabitByName(ownerID, name string) (models.Habit, error) {
	row := s.db.QueryRow(`
		SELECT id, owner_id, name, description, timezone, created_at
		FROM habits WHERE owner_id = ? AND name = ?`, ownerID, name)
	return scanHabit(row)
}

func (s *SQLiteStore) ListHabits(ownerID string) ([]models.Habit, error) {
	rows, err := s.db.Query(`
		SELECT id, owner_id, name, description, timezone, created_at
		FROM habits WHERE owner_id = ? ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *SQLiteStore) RenameHabit(id, name string) error {
	res, err := s.db.Exec("UPDATE habits SET name = ? WHERE id = ?", name, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *SQLiteStore) DescribeHabit(id, description string) error {
	res, err := s.db.Exec("UPDATE habits SET description = ? WHERE id = ?", description, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteHabit removes a habit and cascades to its schedules, firing
// records, and completion records in a single transaction.
func (s *SQLiteStore) DeleteHabit(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM firing_records
		WHERE schedule_id IN (SELECT id FROM schedules WHERE habit_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM completion_records WHERE habit_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM schedules WHERE habit_id = ?", id); err != nil {
		return err
	}

	res, err := tx.Exec("DELETE FROM habits WHERE id = ?", id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) AddSchedule(schedule models.Schedule) error {
	if _, err := s.GetHabit(schedule.HabitID); err != nil {
		return err
	}

	res, err := s.db.Exec(`
		INSERT INTO schedules (id, habit_id, time_of_day, timezone, active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`,
		schedule.ID, schedule.HabitID, schedule.TimeOfDay, schedule.Timezone, schedule.Active)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("habit %s at %s: %w", schedule.HabitID, schedule.TimeOfDay, ErrDuplicateSchedule)
	}
	return nil
}

func (s *SQLiteStore) GetSchedule(id string) (models.Schedule, error) {
	row := s.db.QueryRow(`
		SELECT id, habit_id, time_of_day, timezone, active
		FROM schedules WHERE id = ?`, id)

	var sch models.Schedule
	err := row.Scan(&sch.ID, &sch.HabitID, &sch.TimeOfDay, &sch.Timezone, &sch.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Schedule{}, ErrNotFound
		}
		return models.Schedule{}, err
	}
	return sch, nil
}

func (s *SQLiteStore) ListSchedules(habitID string) ([]models.Schedule, error) {
	return s.querySchedules(`
		SELECT id, habit_id, time_of_day, timezone, active
		FROM schedules WHERE habit_id = ? ORDER BY time_of_day, id`, habitID)
}

func (s *SQLiteStore) ListActiveSchedules() ([]models.Schedule, error) {
	return s.querySchedules(`
		SELECT id, habit_id, time_of_day, timezone, active
		FROM schedules WHERE active = 1 ORDER BY habit_id, time_of_day, id`)
}

func (s *SQLiteStore) querySchedules(query string, args ...any) ([]models.Schedule, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var sch models.Schedule
		if err := rows.Scan(&sch.ID, &sch.HabitID, &sch.TimeOfDay, &sch.Timezone, &sch.Active); err != nil {
			return nil, err
		}
		schedules = append(schedules, sch)
	}
	return schedules, rows.Err()
}

func (s *SQLiteStore) DeleteSchedule(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM firing_records WHERE schedule_id = ?", id); err != nil {
		return err
	}

	res, err := tx.Exec("DELETE FROM schedules WHERE id = ?", id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

// AddFiringRecord conditionally inserts the (schedule, day) marker.
// Returns ErrConflict when the pair already exists, which callers treat
// as already-handled.
func (s *SQLiteStore) AddFiringRecord(rec models.FiringRecord) error {
	res, err := s.db.Exec(`
		INSERT INTO firing_records (schedule_id, day, fired_at)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		rec.ScheduleID, rec.Day, rec.FiredAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("firing record for schedule %s on %s: %w", rec.ScheduleID, rec.Day, ErrConflict)
	}
	return nil
}

func (s *SQLiteStore) HasFiringRecord(scheduleID, day string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM firing_records WHERE schedule_id = ? AND day = ?",
		scheduleID, day).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLiteStore) UpsertCompletion(rec models.CompletionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO completion_records (habit_id, day, outcome, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			outcome = excluded.outcome,
			recorded_at = excluded.recorded_at`,
		rec.HabitID, rec.Day, string(rec.Outcome), rec.RecordedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) GetCompletion(habitID, day string) (models.CompletionRecord, error) {
	row := s.db.QueryRow(`
		SELECT habit_id, day, outcome, recorded_at
		FROM completion_records WHERE habit_id = ? AND day = ?`, habitID, day)

	var rec models.CompletionRecord
	var outcome, recordedAt string
	err := row.Scan(&rec.HabitID, &rec.Day, &outcome, &recordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CompletionRecord{}, ErrNotFound
		}
		return models.CompletionRecord{}, err
	}

	rec.Outcome = models.Outcome(outcome)
	rec.RecordedAt, err = time.Parse(time.RFC3339, recordedAt)
	if err != nil {
		return models.CompletionRecord{}, fmt.Errorf("failed to parse recorded_at: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListCompletions(habitID string) ([]models.CompletionRecord, error) {
	rows, err := s.db.Query(`
		SELECT habit_id, day, outcome, recorded_at
		FROM completion_records WHERE habit_id = ? ORDER BY day`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.CompletionRecord
	for rows.Next() {
		var rec models.CompletionRecord
		var outcome, recordedAt string
		if err := rows.Scan(&rec.HabitID, &rec.Day, &outcome, &recordedAt); err != nil {
			return nil, err
		}
		rec.Outcome = models.Outcome(outcome)
		rec.RecordedAt, err = time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse recorded_at for %s: %w", rec.Day, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

func requireAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
