package marshal

import (
	"errors"
	"fmt"
)

// ErrUnsupported is wrapped by every fatal marshaling gap.
var ErrUnsupported = errors.New("unsupported marshaling")

// UnsupportedError reports a combination with no safe generic conversion.
type UnsupportedError struct {
	From      string
	Type      string
	Direction Direction
	Reason    string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("marshal %s (%s) %s: %s", e.From, e.Type, e.Direction, e.Reason)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }
