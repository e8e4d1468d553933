package checkout

import (
	"errors"
)

var (
	ErrNothingStaged        = errors.New("nothing staged for checkout")
	ErrSubmissionInProgress = errors.New("a payment for this checkout is already in progress")
)
