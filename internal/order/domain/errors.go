package domain

import "errors"

var (
	ErrNotFound = errors.New("order not found")
	ErrNoItems  = errors.New("order has no items")
)

const (
	ReasonMissingItems    = "missing items"
	ReasonInvalidQuantity = "invalid quantity"
	ReasonInvalidPrice    = "invalid price"
)

// ValidationError rejects malformed client input before anything is written.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
