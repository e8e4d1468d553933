package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/tix-storefront/internal/repository"
	"github.com/stretchr/testify/assert"
)

func TestWrapDBErr(t *testing.T) {
	assert.NoError(t, wrapDBErr("op", nil))
	assert.ErrorIs(t, wrapDBErr("op", pgx.ErrNoRows), repository.ErrNotFound)

	unique := &pgconn.PgError{Code: "23505"}
	assert.ErrorIs(t, wrapDBErr("op", unique), unique)

	other := errors.New("boom")
	err := wrapDBErr("postgres.Store.Get", other)
	assert.ErrorIs(t, err, other)
	assert.Equal(t, "postgres.Store.Get: boom", err.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("plain")))
}
