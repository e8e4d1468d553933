package redis

import "fmt"

func wrapErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
