package catalog

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidDate   = errors.New("invalid date, want YYYY-MM-DD")
)
