package cli

import (
	"fmt"

	"github.com/atrajit-sarkar/Habit-Tracker-Bot/internal/keyring"
)

// secretKey maps a user-facing secret name to its keyring key.
func secretKey(name string) (string, error) {
	switch name {
	case "webhook":
		return keyring.KeyWebhookSecret, nil
	case "postgres":
		return keyring.KeyPostgresPassword, nil
	default:
		return "", fmt.Errorf("unknown secret %q: expected webhook or postgres", name)
	}
}

type SecretSetCmd struct {
	Name  string `arg:"" help:"Secret name: webhook|postgres."`
	Value string `arg:"" help:"Secret value."`
}

func (c *SecretSetCmd) Run(ctx *Context) error {
	key, err := secretKey(c.Name)
	if err != nil {
		return err
	}
	if err := keyring.Set(key, c.Value); err != nil {
		return err
	}
	fmt.Printf("Stored %s secret in the OS keyring\n", c.Name)
	return nil
}

type SecretDeleteCmd struct {
	Name string `arg:"" help:"Secret name: webhook|postgres."`
}

func (c *SecretDeleteCmd) Run(ctx *Context) error {
	key, err := secretKey(c.Name)
	if err != nil {
		return err
	}
	if err := keyring.Delete(key); err != nil {
		return err
	}
	fmt.Printf("Deleted %s secret from the OS keyring\n", c.Name)
	return nil
}
