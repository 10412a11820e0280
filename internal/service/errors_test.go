package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, ErrTransient},
		{"deadlock", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), ErrTransient},
		{"serialization", &pgconn.PgError{Code: "40001"}, ErrTransient},
		{"check violation", &pgconn.PgError{Code: "23514"}, ErrInternal},
		{"deadline", context.DeadlineExceeded, ErrTransient},
		{"unknown", errors.New("boom"), ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestInsufficientStockError(t *testing.T) {
	t.Parallel()

	var err error = &InsufficientStockError{ProductID: 7, Name: "Mug", Available: 4, Requested: 5}

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "insufficient stock: Mug (available: 4, requested: 5)", err.Error())

	var ise *InsufficientStockError
	assert.True(t, errors.As(fmt.Errorf("checkout: %w", err), &ise))
	assert.Equal(t, int64(7), ise.ProductID)
}

func TestOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "validation", outcome(fmt.Errorf("%w: x", ErrValidation)))
	assert.Equal(t, "not_found", outcome(ErrNotFound))
	assert.Equal(t, "insufficient_stock", outcome(&InsufficientStockError{}))
	assert.Equal(t, "transient", outcome(storageError("lock", &pgconn.PgError{Code: "55P03"})))
	assert.Equal(t, "internal", outcome(storageError("insert", errors.New("disk full"))))
}
