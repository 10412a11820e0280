package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shophub/storefront/internal/models"
)

var ErrStockGuard = errors.New("stock decrement rejected by guard")

// LockProducts reads active products and holds an exclusive row lock on each
// until the transaction ends. Rows are locked in id order.
func (t *Tx) LockProducts(ctx context.Context, ids []int64) ([]models.Product, error) {
	var products []models.Product
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND is_active = ?", ids, true).
		Order("id ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (t *Tx) DecrementStock(ctx context.Context, productID, qty int64) error {
	res := t.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockGuard
	}
	return nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
