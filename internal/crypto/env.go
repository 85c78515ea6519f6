package crypto

import (
	"errors"
	"fmt"
	"os"
)

// envKeyring reads the key from FUELLOG_DB_KEY
type envKeyring struct{}

func (k *envKeyring) GetKey() (string, error) {
	key := os.Getenv(EnvKey)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", EnvKey)
	}
	return key, nil
}

// SetKey cannot persist anything; the caller has to export the variable
func (k *envKeyring) SetKey(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	return fmt.Errorf("keyring not available on this platform: set %s (or add it to the .env file next to config.yaml)", EnvKey)
}

func (k *envKeyring) DeleteKey() error {
	return fmt.Errorf("keyring not available on this platform: unset %s manually", EnvKey)
}

func (k *envKeyring) IsAvailable() bool {
	return os.Getenv(EnvKey) != ""
}
