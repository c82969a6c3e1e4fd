package hashtable

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports a call that violates the table contract.
	// All other errors returned by this package wrap it.
	ErrInvalidArgument = errors.New("hashtable: invalid argument")

	// ErrModeMismatch reports a value operation on a pointer table or the reverse.
	ErrModeMismatch = fmt.Errorf("%w: table mode mismatch", ErrInvalidArgument)

	// ErrNotActive reports an operation on a table that was never created or
	// has already been destroyed.
	ErrNotActive = fmt.Errorf("%w: table is not active", ErrInvalidArgument)
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
