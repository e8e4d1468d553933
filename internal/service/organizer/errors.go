package organizer

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	// ErrPendingSync rejects changes to a pending record whose backend id is
	// not known yet.
	ErrPendingSync = errors.New("event is still being synchronized")
)
