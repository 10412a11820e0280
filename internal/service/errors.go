package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrValidation    = errors.New("malformed cart")     // 400
	ErrUnauthorized  = errors.New("unauthorized")       // 401
	ErrNotFound      = errors.New("product not found")  // 400
	ErrConflict      = errors.New("insufficient stock") // 409
	ErrInternal      = errors.New("internal error")     // 500
	ErrTransient     = errors.New("transient failure")  // 500, safe to retry
	ErrForbidden     = errors.New("forbidden")          // 403
	ErrOrderNotFound = errors.New("order not found")    // 404
)

// InsufficientStockError reports the aggregate demand for one product that
// exceeded its stock when the row lock was taken.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %s (available: %d, requested: %d)", e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrConflict }

// postgres SQLSTATEs that mean "try again later", not "this request is wrong".
var transientCodes = map[string]struct{}{
	"55P03": {}, // lock_not_available (lock_timeout)
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"57014": {}, // query_canceled (statement_timeout)
	"08006": {}, // connection_failure
	"08003": {}, // connection_does_not_exist
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := transientCodes[pgErr.Code]; ok {
			return ErrTransient
		}
		return ErrInternal
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTransient
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return ErrTransient
	}
	return ErrInternal
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", classify(err), op, err)
}

// outcome is the metrics label for a checkout result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "insufficient_stock"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}

// IsBusinessError reports failures caused by the request itself rather than the store.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict)
}
