// Package storetest provides an in-memory sqlite store for package tests.
package storetest

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shophub/storefront/internal/models"
)

// NewDB opens a fresh migrated database. The pool holds a single connection,
// so a second transaction waits until the first one commits or rolls back,
// which is how a row lock behaves on postgres for the rows a checkout touches.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	require.NoError(t, models.Migrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func SeedProduct(t *testing.T, db *gorm.DB, name, price string, stock int64) models.Product {
	t.Helper()

	p := models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func Deactivate(t *testing.T, db *gorm.DB, productID int64) {
	t.Helper()
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", productID).Update("is_active", false).Error)
}

func Stock(t *testing.T, db *gorm.DB, productID int64) int64 {
	t.Helper()

	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}

func CountOrders(t *testing.T, db *gorm.DB) (orders, items int64) {
	t.Helper()

	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	return orders, items
}
