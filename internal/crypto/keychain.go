package crypto

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// systemKeyring stores the key in the OS credential store
type systemKeyring struct {
	service string
}

// GetKey retrieves the encryption key from the keychain
func (k *systemKeyring) GetKey() (string, error) {
	key, err := keyring.Get(k.service, KeyName)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("encryption key not found in keychain: %w", err)
		}
		return "", fmt.Errorf("failed to retrieve key from keychain: %w", err)
	}

	if key == "" {
		return "", errors.New("encryption key is empty")
	}

	return key, nil
}

// SetKey stores the encryption key in the keychain
func (k *systemKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if err := keyring.Set(k.service, KeyName, password); err != nil {
		return fmt.Errorf("failed to store key in keychain: %w", err)
	}

	return nil
}

// DeleteKey removes the encryption key from the keychain
func (k *systemKeyring) DeleteKey() error {
	if err := keyring.Delete(k.service, KeyName); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("encryption key not found in keychain: %w", err)
		}
		return fmt.Errorf("failed to delete key from keychain: %w", err)
	}

	return nil
}

// IsAvailable probes the keychain with a throwaway item
func (k *systemKeyring) IsAvailable() bool {
	probe := "__fuellog_availability_test__"
	if err := keyring.Set(k.service, probe, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(k.service, probe)
	return true
}
