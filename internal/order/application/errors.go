package application

import (
	"errors"
	"fmt"
)

var ErrStockNotConfigured = errors.New("stockService is not configured")

// PublishError wraps the failure of one event sink.
type PublishError struct {
	Sink  string
	Err   error
	Panic any
}

func (e *PublishError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("publish to %s sink: panic: %v", e.Sink, e.Panic)
	}
	return fmt.Sprintf("publish to %s sink: %v", e.Sink, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
