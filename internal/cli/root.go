package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/storage"
)

type Context struct {
	Store storage.Provider
	Owner string
	Debug bool
}

// normalizeTimeOfDay accepts H:MM or HH:MM (24-hour) and returns the
// zero-padded HH:MM form used everywhere else.
func normalizeTimeOfDay(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q: expected HH:MM (24-hour)", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return "", fmt.Errorf("invalid hour in %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return "", fmt.Errorf("invalid minute in %q", s)
	}

	return fmt.Sprintf("%02d:%02d", hours, minutes), nil
}

// resolveHabit looks a habit up by id first, then by name within the
// current owner scope.
func resolveHabit(ctx *Context, ref string) (models.Habit, error) {
	habit, err := ctx.Store.GetHabit(ref)
	if err == nil {
		return habit, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Habit{}, err
	}

	habit, err = ctx.Store.GetHabitByName(ctx.Owner, ref)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Habit{}, fmt.Errorf("habit %q not found", ref)
		}
		return models.Habit{}, err
	}
	return habit, nil
}
