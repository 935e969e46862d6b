package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/models"
)

// Notifier delivers habit prompts by POSTing them to a webhook endpoint.
// It implements dispatch.Deliverer; the webhook side owns all message
// formatting and platform session handling.
type Notifier struct {
	url    string
	secret string
	client *http.Client
}

// PromptPayload is the webhook request body for one due schedule.
type PromptPayload struct {
	OwnerID    string `json:"owner_id"`
	HabitID    string `json:"habit_id"`
	HabitName  string `json:"habit_name"`
	ScheduleID string `json:"schedule_id"`
	TimeOfDay  string `json:"time_of_day"`
	Day        string `json:"day"`
	Text       string `json:"text"`
}

func New(url, secret string) *Notifier {
	return &Notifier{
		url:    url,
		secret: secret,
		// Timeouts come from the caller's context, not the client.
		client: &http.Client{},
	}
}

func (n *Notifier) DeliverPrompt(ctx context.Context, habit models.Habit, schedule models.Schedule, day string) error {
	payload := PromptPayload{
		OwnerID:    habit.OwnerID,
		HabitID:    habit.ID,
		HabitName:  habit.Name,
		ScheduleID: schedule.ID,
		TimeOfDay:  schedule.TimeOfDay,
		Day:        day,
		Text:       fmt.Sprintf("Reminder: did you complete %q today?", habit.Name),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set("X-Habitd-Secret", n.secret)
	}

	res, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("delivery failed with status %d: %s", res.StatusCode, string(body))
}
