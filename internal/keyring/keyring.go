package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const service = "habitd"

// Keys for the secrets habitd keeps out of config files and flags.
const (
	KeyPostgresPassword = "postgres-password"
	KeyWebhookSecret    = "webhook-secret"
)

var (
	// ErrNotFound is returned when no secret is stored under the key
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Get retrieves a secret from the OS keyring.
func Get(key string) (string, error) {
	value, err := keyring.Get(service, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores a secret in the OS keyring.
func Set(key, value string) error {
	if value == "" {
		return errors.New("secret cannot be empty")
	}
	if err := keyring.Set(service, key, value); err != nil {
		return fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	return nil
}

// Delete removes a secret from the OS keyring.
func Delete(key string) error {
	err := keyring.Delete(service, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete secret from keyring: %w", err)
	}
	return nil
}
