package storage

import "github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Ping() error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(id string) (models.Habit, error)
	GetHabitByName(ownerID, name string) (models.Habit, error)
	ListHabits(ownerID string) ([]models.Habit, error)
	RenameHabit(id, name string) error
	DescribeHabit(id, description string) error
	DeleteHabit(id string) error

	// Schedules
	AddSchedule(models.Schedule) error
	GetSchedule(id string) (models.Schedule, error)
	ListSchedules(habitID string) ([]models.Schedule, error)
	ListActiveSchedules() ([]models.Schedule, error)
	DeleteSchedule(id string) error

	// Firing records
	AddFiringRecord(models.FiringRecord) error
	HasFiringRecord(scheduleID, day string) (bool, error)

	// Completion records
	UpsertCompletion(models.CompletionRecord) error
	GetCompletion(habitID, day string) (models.CompletionRecord, error)
	ListCompletions(habitID string) ([]models.CompletionRecord, error)
}
