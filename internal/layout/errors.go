package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("layout: truncated buffer")
	// ErrUnknownKind indicates a value kind outside the known set.
	ErrUnknownKind = errors.New("layout: unknown value kind")
)

func truncated(what string, have, need int) error {
	return fmt.Errorf("%s: %w (have %d, need %d)", what, ErrTruncated, have, need)
}
