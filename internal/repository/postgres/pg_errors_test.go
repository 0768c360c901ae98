package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/courtbook/internal/repository"
)

func TestWrapDBErr(t *testing.T) {
	assert.NoError(t, wrapDBErr("op", nil))

	err := wrapDBErr("postgres.JournalRepo.Insert", pgx.ErrNoRows)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, err.Error(), "postgres.JournalRepo.Insert")

	err = wrapDBErr("op", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	other := errors.New("connection refused")
	assert.ErrorIs(t, wrapDBErr("op", other), other)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsRetryable(wrapDBErr("op", &pgconn.PgError{Code: "40P01"})))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullInt(0))
	assert.Equal(t, int64(7), *nullInt(7))
	assert.Equal(t, int64(0), deref(nil))
}
