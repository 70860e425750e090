package domain

// SubmissionState tracks how far a submission got. NotFound, NoItems and
// EventsPublished are terminal.
type SubmissionState string

const (
	StateReceived        SubmissionState = "received"
	StateOrderLookedUp   SubmissionState = "order_looked_up"
	StateItemsLoaded     SubmissionState = "items_loaded"
	StateTotalComputed   SubmissionState = "total_computed"
	StateTotalPersisted  SubmissionState = "total_persisted"
	StateEventsPublished SubmissionState = "events_published"
	StateNotFound        SubmissionState = "not_found"
	StateNoItems         SubmissionState = "no_items"
)

func (s SubmissionState) Terminal() bool {
	switch s {
	case StateNotFound, StateNoItems, StateEventsPublished:
		return true
	}
	return false
}

// Succeeded reports whether the total has been committed. Publishing does not
// change the answer.
func (s SubmissionState) Succeeded() bool {
	return s == StateTotalPersisted || s == StateEventsPublished
}
