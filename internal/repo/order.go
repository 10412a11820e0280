package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shophub/storefront/internal/models"
)

var ErrNoOrderID = errors.New("order insert returned no id")

func (t *Tx) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := t.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return err
	}
	if order.ID == 0 {
		return ErrNoOrderID
	}
	return nil
}

func (t *Tx) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Create(&items).Error
}

// GetOrder loads an order with its items and the current name of each item's product.
func (r *GormRepo) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrders returns every order, or only those in status when it is non-empty.
func (r *GormRepo) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	res := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
