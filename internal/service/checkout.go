package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shophub/storefront/internal/models"
	"github.com/shophub/storefront/internal/repo"
	"github.com/shophub/storefront/pkg/logging"
	"github.com/shophub/storefront/pkg/metrics"
)

// postCommitTimeout bounds all post-commit hooks of one checkout together.
const postCommitTimeout = 5 * time.Second

type CheckoutService struct {
	Repo *repo.GormRepo

	// Optional post-commit hooks. Their failures are logged and never
	// change the outcome of a committed checkout.
	Events      EventPublisher
	EventsTopic string
	Stock       StockSyncer
	Metrics     *metrics.CheckoutMetrics

	// MaxLines caps the normalized cart length; zero means no cap.
	MaxLines int

	hooks sync.WaitGroup
}

type CheckoutResult struct {
	OrderID     int64
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
	Items       []models.OrderItem
	CreatedAt   time.Time
}

// Checkout turns a cart into a pending order in a single transaction.
// Either the order, all of its items and every stock decrement are committed
// together, or nothing is written. Failures are returned without logging.
//
// Post-commit hooks run in the background and never delay the result.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, shippingFee decimal.Decimal, lines []CartLine) (*CheckoutResult, error) {
	start := time.Now()
	res, stock, err := s.checkout(ctx, userID, shippingFee, lines)
	s.Metrics.Observe(outcome(err), time.Since(start))
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("checkout committed",
		"user_id", userID,
		"order_id", res.OrderID,
		"items", len(res.Items),
		"total", res.Total.StringFixed(2),
	)

	if s.Events != nil || s.Stock != nil {
		hctx := context.WithoutCancel(ctx)
		s.hooks.Add(1)
		go func() {
			defer s.hooks.Done()
			s.afterCommit(hctx, userID, res, stock)
		}()
	}
	return res, nil
}

// Wait blocks until the post-commit hooks of every returned checkout have
// finished, or ctx is done.
func (s *CheckoutService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.hooks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CheckoutService) checkout(ctx context.Context, userID int64, shippingFee decimal.Decimal, lines []CartLine) (*CheckoutResult, map[int64]int64, error) {
	if userID <= 0 {
		return nil, nil, ErrUnauthorized
	}
	cart, err := NormalizeCart(lines, s.MaxLines)
	if err != nil {
		return nil, nil, err
	}
	fee, err := normalizeShippingFee(shippingFee)
	if err != nil {
		return nil, nil, err
	}

	// A client disconnect must not abort a transaction half way through
	// commit; the lock timeout bounds how long this can run instead.
	ctx = context.WithoutCancel(ctx)

	tx, err := s.Repo.Begin(ctx)
	if err != nil {
		return nil, nil, storageError("begin", err)
	}
	defer tx.Rollback()

	ids := cart.ProductIDs()
	products, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return nil, nil, storageError("lock products", err)
	}
	if len(products) != len(ids) {
		return nil, nil, fmt.Errorf("%w: one or more products do not exist or are inactive", ErrNotFound)
	}

	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	demand := cart.Demand()
	for _, id := range ids {
		p := byID[id]
		if p.Stock < demand[id] {
			return nil, nil, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Stock,
				Requested: demand[id],
			}
		}
	}

	items := make([]models.OrderItem, 0, len(cart))
	subtotal := decimal.Zero
	for _, l := range cart {
		price := byID[l.ProductID].Price
		lineTotal := price.Mul(decimal.NewFromInt(l.Qty))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			ProductID: l.ProductID,
			Qty:       l.Qty,
			UnitPrice: price,
			LineTotal: lineTotal,
		})
	}
	total := subtotal.Add(fee)

	order := models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		ShippingFee: fee,
		Subtotal:    subtotal,
		Total:       total,
	}
	if err := tx.CreateOrder(ctx, &order); err != nil {
		if errors.Is(err, repo.ErrNoOrderID) {
			return nil, nil, fmt.Errorf("%w: %w", ErrInternal, err)
		}
		return nil, nil, storageError("insert order", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := tx.CreateOrderItems(ctx, items); err != nil {
		return nil, nil, storageError("insert order items", err)
	}

	remaining := make(map[int64]int64, len(ids))
	for _, id := range ids {
		if err := tx.DecrementStock(ctx, id, demand[id]); err != nil {
			if errors.Is(err, repo.ErrStockGuard) {
				// The row is locked and was checked above; losing the guard
				// here means the lock did not hold.
				return nil, nil, fmt.Errorf("%w: product %d: %w", ErrInternal, id, err)
			}
			return nil, nil, storageError("decrement stock", err)
		}
		remaining[id] = byID[id].Stock - demand[id]
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("%w: commit: %w", ErrTransient, err)
	}

	return &CheckoutResult{
		OrderID:     order.ID,
		Subtotal:    subtotal,
		ShippingFee: fee,
		Total:       total,
		Items:       items,
		CreatedAt:   order.CreatedAt,
	}, remaining, nil
}

func (s *CheckoutService) afterCommit(ctx context.Context, userID int64, res *CheckoutResult, stock map[int64]int64) {
	log := logging.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, postCommitTimeout)
	defer cancel()

	if s.Events != nil && s.EventsTopic != "" {
		err := s.Events.PublishEvent(ctx, s.EventsTopic, strconv.FormatInt(userID, 10), newOrderCreatedEvent(userID, res))
		if err != nil {
			log.Warn("order event not published", "order_id", res.OrderID, "err", err)
		}
	}

	if s.Stock != nil {
		if err := s.Stock.SyncStock(ctx, stock); err != nil {
			log.Warn("search stock not synced", "order_id", res.OrderID, "err", err)
		}
	}
}

func newOrderCreatedEvent(userID int64, res *CheckoutResult) OrderCreatedEvent {
	items := make([]OrderEventItem, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, OrderEventItem{
			ProductID: it.ProductID,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice.StringFixed(2),
			LineTotal: it.LineTotal.StringFixed(2),
		})
	}
	return OrderCreatedEvent{
		Type:        EventOrderCreated,
		EventID:     uuid.NewString(),
		OrderID:     res.OrderID,
		UserID:      userID,
		Subtotal:    res.Subtotal.StringFixed(2),
		ShippingFee: res.ShippingFee.StringFixed(2),
		Total:       res.Total.StringFixed(2),
		Items:       items,
		CreatedAt:   res.CreatedAt,
	}
}
