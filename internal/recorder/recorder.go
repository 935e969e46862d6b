package recorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/storage"
)

var (
	// ErrInvalidDate is returned for days in the future relative to the
	// habit's time zone.
	ErrInvalidDate = errors.New("date is in the future")
	// ErrInvalidOutcome is returned for outcomes outside the closed set.
	ErrInvalidOutcome = errors.New("outcome must be completed or skipped")
)

// Recorder is the only write path into the completion ledger.
type Recorder struct {
	store storage.Provider

	now func() time.Time
}

func New(store storage.Provider) *Recorder {
	return &Recorder{
		store: store,
		now:   time.Now,
	}
}

// Record upserts the outcome for a habit on a day. A later response for the
// same day overwrites the earlier one, never duplicates it.
func (r *Recorder) Record(habitID, day string, outcome models.Outcome) (models.CompletionRecord, error) {
	if !outcome.Valid() {
		return models.CompletionRecord{}, fmt.Errorf("%q: %w", outcome, ErrInvalidOutcome)
	}

	habit, err := r.store.GetHabit(habitID)
	if err != nil {
		return models.CompletionRecord{}, fmt.Errorf("habit %s: %w", habitID, err)
	}

	parsed, err := time.Parse("2006-01-02", day)
	if err != nil {
		return models.CompletionRecord{}, fmt.Errorf("invalid date %q: %w", day, err)
	}
	day = parsed.Format("2006-01-02")

	loc, err := time.LoadLocation(habit.Timezone)
	if err != nil {
		loc = time.UTC
	}
	today := r.now().In(loc).Format("2006-01-02")
	if day > today {
		return models.CompletionRecord{}, fmt.Errorf("%s is after %s: %w", day, today, ErrInvalidDate)
	}

	rec := models.CompletionRecord{
		HabitID:    habit.ID,
		Day:        day,
		Outcome:    outcome,
		RecordedAt: r.now().UTC(),
	}
	if err := r.store.UpsertCompletion(rec); err != nil {
		return models.CompletionRecord{}, fmt.Errorf("failed to record completion: %w", err)
	}

	return rec, nil
}
