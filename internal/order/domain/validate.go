package domain

import "time"

// ValidateForSubmission checks the structural rules an order must satisfy
// before it is accepted. On success it stamps CreatedAt when unset.
func ValidateForSubmission(o *Order, now time.Time) error {
	if len(o.Items) == 0 {
		return &ValidationError{Reason: ReasonMissingItems}
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return &ValidationError{Reason: ReasonInvalidQuantity}
		}
		if item.Price.IsNegative() {
			return &ValidationError{Reason: ReasonInvalidPrice}
		}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now.UTC()
	}
	return nil
}
