package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/keyring"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/migration"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/migrations"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	// ErrEmbeddedCredentials is returned when the connection string carries a
	// password inline; the password belongs in the OS keyring.
	ErrEmbeddedCredentials = errors.New("connection string must not contain a password")
)

type PostgresStore struct {
	connStr string
	db      *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	resolved, err := resolveConnStr(connStr)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{connStr: resolved}, nil
}

// resolveConnStr rejects inline passwords and injects the keyring-held one,
// when present, into a URL-style connection string.
func resolveConnStr(connStr string) (string, error) {
	if strings.TrimSpace(connStr) == "" {
		return "", ErrInvalidConnectionString
	}

	if !strings.HasPrefix(connStr, "postgres://") && !strings.HasPrefix(connStr, "postgresql://") {
		// DSN format: space-separated key=value pairs
		for _, part := range strings.Fields(connStr) {
			kv := strings.SplitN(part, "=", 2)
			if len(kv) == 2 && strings.EqualFold(kv[0], "password") {
				return "", ErrEmbeddedCredentials
			}
		}
		if password, err := keyring.Get(keyring.KeyPostgresPassword); err == nil {
			connStr = connStr + " password=" + password
		}
		return connStr, nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		return "", ErrEmbeddedCredentials
	}
	if password, err := keyring.Get(keyring.KeyPostgresPassword); err == nil && u.User != nil {
		u.User = url.UserPassword(u.User.Username(), password)
	}
	return u.String(), nil
}

func (s *PostgresStore) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to reach database: %w", err)
	}
	s.db = db
	return nil
}

func (s *PostgresStore) Init() error {
	if err := s.open(); err != nil {
		return err
	}

	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	if _, err := migration.NewRunner(s.db, subFS).Apply(nil); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load() error {
	if err := s.open(); err != nil {
		return err
	}

	subFS, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		return fmt.Errorf("failed to access postgres migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS).ValidateVersion()
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) Ping() error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	return s.db.Ping()
}

func (s *PostgresStore) AddHabit(habit models.Habit) error {
	res, err := s.db.Exec(`
		INSERT INTO habits (id, owner_id, name, description, timezone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		habit.ID, habit.OwnerID, habit.Name, habit.Description, habit.Timezone, habit.CreatedAt.UTC())
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

func scanPGHabit(row interface{ Scan(...any) error }) (models.Habit, error) {
	var h models.Habit
	var createdAt time.Time

	err := row.Scan(&h.ID, &h.OwnerID, &h.Name, &h.Description, &h.Timezone, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, ErrNotFound
		}
		return models.Habit{}, err
	}
	h.CreatedAt = createdAt.UTC()
	return h, nil
}

func (s *PostgresStore) GetHabit(id string) (models.Habit, error) {
	row := s.db.QueryRow(`
		SELECT id, owner_id, name, description, timezone, created_at
		FROM habits WHERE id = $1`, id)
	return scanPGHabit(row)
}

func (s *PostgresStore) GetHabitByName(ownerID, name string) (models.Habit, error) {
	row := s.db.QueryRow(`
		SELECT id, owner_id, name, description, timezone, created_at
		FROM habits WHERE owner_id = $1 AND name = $2`, ownerID, name)
	return scanPGHabit(row)
}

func (s *PostgresStore) ListHabits(ownerID string) ([]models.Habit, error) {
	rows, err := s.db.Query(`
		SELECT id, owner_id, name, description, timezone, created_at
		FROM habits WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanPGHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *PostgresStore) RenameHabit(id, name string) error {
	res, err := s.db.Exec("UPDATE habits SET name = $1 WHERE id = $2", name, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PostgresStore) DescribeHabit(id, description string) error {
	res, err := s.db.Exec("UPDATE habits SET description = $1 WHERE id = $2", description, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PostgresStore) DeleteHabit(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM firing_records
		WHERE schedule_id IN (SELECT id FROM schedules WHERE habit_id = $1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM completion_records WHERE habit_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM schedules WHERE habit_id = $1", id); err != nil {
		return err
	}

	res, err := tx.Exec("DELETE FROM habits WHERE id = $1", id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) AddSchedule(schedule models.Schedule) error {
	if _, err := s.GetHabit(schedule.HabitID); err != nil {
		return err
	}

	res, err := s.db.Exec(`
		INSERT INTO schedules (id, habit_id, time_of_day, timezone, active)
		VALUES ($1, $2, $3, $4, $5)
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

func (s *PostgresStore) GetSchedule(id string) (models.Schedule, error) {
	row := s.db.QueryRow(`
		SELECT id, habit_id, time_of_day, timezone, active
		FROM schedules WHERE id = $1`, id)

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

func (s *PostgresStore) ListSchedules(habitID string) ([]models.Schedule, error) {
	return s.querySchedules(`
		SELECT id, habit_id, time_of_day, timezone, active
		FROM schedules WHERE habit_id = $1 ORDER BY time_of_day, id`, habitID)
}

func (s *PostgresStore) ListActiveSchedules() ([]models.Schedule, error) {
	return s.querySchedules(`
		SELECT id, habit_id, time_of_day, timezone, active
		FROM schedules WHERE active ORDER BY habit_id, time_of_day, id`)
}

func (s *PostgresStore) querySchedules(query string, args ...any) ([]models.Schedule, error) {
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

func (s *PostgresStore) DeleteSchedule(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM firing_records WHERE schedule_id = $1", id); err != nil {
		return err
	}

	res, err := tx.Exec("DELETE FROM schedules WHERE id = $1", id)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) AddFiringRecord(rec models.FiringRecord) error {
	res, err := s.db.Exec(`
		INSERT INTO firing_records (schedule_id, day, fired_at)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		rec.ScheduleID, rec.Day, rec.FiredAt.UTC())
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

func (s *PostgresStore) HasFiringRecord(scheduleID, day string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM firing_records WHERE schedule_id = $1 AND day = $2",
		scheduleID, day).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *PostgresStore) UpsertCompletion(rec models.CompletionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO completion_records (habit_id, day, outcome, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			outcome = excluded.outcome,
			recorded_at = excluded.recorded_at`,
		rec.HabitID, rec.Day, string(rec.Outcome), rec.RecordedAt.UTC())
	return err
}

func (s *PostgresStore) GetCompletion(habitID, day string) (models.CompletionRecord, error) {
	row := s.db.QueryRow(`
		SELECT habit_id, day, outcome, recorded_at
		FROM completion_records WHERE habit_id = $1 AND day = $2`, habitID, day)

	var rec models.CompletionRecord
	var outcome string
	var recordedAt time.Time
	err := row.Scan(&rec.HabitID, &rec.Day, &outcome, &recordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CompletionRecord{}, ErrNotFound
		}
		return models.CompletionRecord{}, err
	}

	rec.Outcome = models.Outcome(outcome)
	rec.RecordedAt = recordedAt.UTC()
	return rec, nil
}

func (s *PostgresStore) ListCompletions(habitID string) ([]models.CompletionRecord, error) {
	rows, err := s.db.Query(`
		SELECT habit_id, day, outcome, recorded_at
		FROM completion_records WHERE habit_id = $1 ORDER BY day`, habitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.CompletionRecord
	for rows.Next() {
		var rec models.CompletionRecord
		var outcome string
		var recordedAt time.Time
		if err := rows.Scan(&rec.HabitID, &rec.Day, &outcome, &recordedAt); err != nil {
			return nil, err
		}
		rec.Outcome = models.Outcome(outcome)
		rec.RecordedAt = recordedAt.UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}
