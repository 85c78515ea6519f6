package crypto

import "os"

// Keyring provides secure key storage abstraction
type Keyring interface {
	GetKey() (string, error)
	SetKey(password string) error
	DeleteKey() error
	IsAvailable() bool
}

const (
	ServiceName = "fuellog"
	KeyName     = "db-encryption-key"

	// EnvKey holds the database key where no system keychain is used.
	// When set it takes precedence on every platform.
	EnvKey = "FUELLOG_DB_KEY"
)

// NewKeyring returns the best available keyring implementation
func NewKeyring() Keyring {
	if os.Getenv(EnvKey) != "" {
		return &envKeyring{}
	}
	return newPlatformKeyring()
}
