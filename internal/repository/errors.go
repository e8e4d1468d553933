package repository

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrCorrupt    = errors.New("stored value is not valid json")
	ErrFeedClosed = errors.New("change feed closed")
)
