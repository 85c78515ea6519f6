package cli

import (
	"errors"

	"github.com/andy/fuellog/internal/domain"
)

// Exit codes for scripting
const (
	ExitOK      = 0
	ExitGeneral = 1
	ExitInput   = 2 // bad arguments, malformed or unsupported backup
	ExitIO      = 3 // backup file could not be read or written
)

// ExitCode maps an error returned by Execute to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrParse) ||
		errors.Is(err, domain.ErrUnsupportedVersion) ||
		errors.Is(err, domain.ErrNotFound) {
		return ExitInput
	}

	if errors.Is(err, domain.ErrIO) {
		return ExitIO
	}

	return ExitGeneral
}
