package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(codes ...string) (func() error, *int) {
	calls := 0
	return func() error {
		calls++
		if calls <= len(codes) {
			return &pgconn.PgError{Code: codes[calls-1]}
		}
		return nil
	}, &calls
}

func TestRetryTxRerunsSerializationFailures(t *testing.T) {
	attempt, calls := failing("40001", "40P01")

	err := retryTx(context.Background(), 3, time.Millisecond, attempt)
	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
}

func TestRetryTxGivesUpAfterAttempts(t *testing.T) {
	attempt, calls := failing("40001", "40001", "40001", "40001")

	err := retryTx(context.Background(), 3, time.Millisecond, attempt)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3, *calls)
}

func TestRetryTxReturnsOtherErrorsAtOnce(t *testing.T) {
	attempt, calls := failing("23505")

	err := retryTx(context.Background(), 3, time.Millisecond, attempt)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)
	assert.Equal(t, 1, *calls)
}

func TestRetryTxStopsOnCancel(t *testing.T) {
	attempt, calls := failing("40001", "40001")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retryTx(ctx, 3, time.Hour, attempt)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *calls)
}
