package models

import "time"

// Outcome is the recorded result for a habit on a given day.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
)

// Valid reports whether o is one of the closed set of outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeCompleted || o == OutcomeSkipped
}

// Habit represents a recurring practice to track
type Habit struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
}

// Schedule is a configured time of day at which a prompt for a habit
// is dispatched. A habit may have several schedules at distinct times.
type Schedule struct {
	ID        string `json:"id"`
	HabitID   string `json:"habit_id"`
	TimeOfDay string `json:"time_of_day"` // HH:MM, 24-hour
	Timezone  string `json:"timezone"`
	Active    bool   `json:"active"`
}

// FiringRecord is the durable marker that a schedule's prompt went out
// on a given day. Insert-only; its uniqueness makes dispatch idempotent
// across restarts.
type FiringRecord struct {
	ScheduleID string    `json:"schedule_id"`
	Day        string    `json:"day"` // YYYY-MM-DD in the schedule's zone
	FiredAt    time.Time `json:"fired_at"`
}

// CompletionRecord is a single day's recorded outcome for a habit.
// At most one exists per (habit, day); a later response overwrites.
type CompletionRecord struct {
	HabitID    string    `json:"habit_id"`
	Day        string    `json:"day"` // YYYY-MM-DD
	Outcome    Outcome   `json:"outcome"`
	RecordedAt time.Time `json:"recorded_at"`
}
