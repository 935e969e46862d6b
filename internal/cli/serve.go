package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/dispatch"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/keyring"
	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/notifier"
)

type ServeCmd struct {
	WebhookURL      string        `env:"HABITD_WEBHOOK_URL" required:"" help:"Endpoint that receives reminder prompts."`
	Tick            time.Duration `default:"60s" help:"Poll interval for due schedules."`
	DeliveryTimeout time.Duration `default:"10s" help:"Per-prompt delivery timeout."`
	CatchUpDays     int           `default:"0" help:"Also dispatch prompts missed on the previous N days."`
}

// Run starts the dispatch loop and blocks until SIGINT or SIGTERM.
func (c *ServeCmd) Run(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}

	secret, err := keyring.Get(keyring.KeyWebhookSecret)
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) && !errors.Is(err, keyring.ErrKeyringUnavailable) {
			return err
		}
		secret = os.Getenv("HABITD_WEBHOOK_SECRET")
	}

	loop := dispatch.New(ctx.Store, notifier.New(c.WebhookURL, secret), dispatch.Config{
		Tick:            c.Tick,
		DeliveryTimeout: c.DeliveryTimeout,
		CatchUpDays:     c.CatchUpDays,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("habitd serving, tick %s (Ctrl-C to stop)\n", c.Tick)

	if err := loop.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
