package admin

import (
	"errors"
)

var (
	ErrUnknownCollection = errors.New("unknown admin collection")
	ErrUnknownFilter     = errors.New("unknown filter key")
	ErrEventNotFound     = errors.New("admin event not found")
)
