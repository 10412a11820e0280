package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shophub/storefront/internal/models"
	"github.com/shophub/storefront/internal/repo"
)

// Caller is the authenticated principal an order query runs as.
type Caller struct {
	UserID int64
	Admin  bool
}

type OrderService struct {
	Repo *repo.GormRepo
}

func (s *OrderService) MyOrders(ctx context.Context, caller Caller) ([]models.Order, error) {
	if caller.UserID <= 0 {
		return nil, ErrUnauthorized
	}
	orders, err := s.Repo.ListOrdersByUser(ctx, caller.UserID)
	if err != nil {
		return nil, storageError("list orders", err)
	}
	return orders, nil
}

// GetOrder returns an order with its items. Only the owner or an admin may read it.
func (s *OrderService) GetOrder(ctx context.Context, caller Caller, id int64) (*models.Order, error) {
	if caller.UserID <= 0 {
		return nil, ErrUnauthorized
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid order id", ErrValidation)
	}

	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, storageError("get order", err)
	}
	if order.UserID != caller.UserID && !caller.Admin {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListOrders lists every order for admins. status "" or "all" means no filter.
func (s *OrderService) ListOrders(ctx context.Context, caller Caller, status string) ([]models.Order, error) {
	if !caller.Admin {
		return nil, ErrForbidden
	}

	var filter models.OrderStatus
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && status != "all" {
		filter = models.OrderStatus(status)
		if !filter.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
	}

	orders, err := s.Repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, storageError("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, caller Caller, id int64, status string) error {
	if !caller.Admin {
		return ErrForbidden
	}
	if id <= 0 {
		return fmt.Errorf("%w: invalid order id", ErrValidation)
	}
	st := models.OrderStatus(strings.ToLower(strings.TrimSpace(status)))
	if !st.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	if err := s.Repo.UpdateOrderStatus(ctx, id, st); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return storageError("update order status", err)
	}
	return nil
}
