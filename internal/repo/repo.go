package repo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type GormRepo struct {
	DB *gorm.DB

	// LockTimeout bounds how long a checkout waits for product row locks.
	// Only applied on postgres; zero leaves the server default.
	LockTimeout time.Duration
}

// Tx is a repository bound to one open transaction.
type Tx struct {
	db *gorm.DB
}

func (r *GormRepo) Begin(ctx context.Context) (*Tx, error) {
	tx := r.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if r.LockTimeout > 0 && tx.Dialector.Name() == "postgres" {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.LockTimeout.Milliseconds())
		if err := tx.Exec(stmt).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	return &Tx{db: tx}, nil
}

func (t *Tx) Commit() error {
	return t.db.Commit().Error
}

// Rollback is a no-op after a successful Commit.
func (t *Tx) Rollback() {
	t.db.Rollback()
}
