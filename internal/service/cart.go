package service

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

type CartLine struct {
	ProductID int64
	Qty       int64
}

// Cart is a normalized cart: every line has a positive product id and quantity.
// Lines keep the caller's order and are never merged.
type Cart []CartLine

// NormalizeCart drops lines with a non-positive product id or quantity and
// rejects what remains if it is empty, longer than maxLines (when > 0), or
// would overflow the per-product demand.
func NormalizeCart(lines []CartLine, maxLines int) (Cart, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	out := make(Cart, 0, len(lines))
	demand := make(map[int64]int64, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 || l.Qty <= 0 {
			continue
		}
		if demand[l.ProductID] > math.MaxInt64-l.Qty {
			return nil, fmt.Errorf("%w: quantity too large for product %d", ErrValidation, l.ProductID)
		}
		demand[l.ProductID] += l.Qty
		out = append(out, l)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no valid items", ErrValidation)
	}
	if maxLines > 0 && len(out) > maxLines {
		return nil, fmt.Errorf("%w: at most %d items allowed, got %d", ErrValidation, maxLines, len(out))
	}
	return out, nil
}

// ProductIDs returns the distinct product ids in ascending order.
func (c Cart) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(c))
	ids := make([]int64, 0, len(c))
	for _, l := range c {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	slices.Sort(ids)
	return ids
}

// Demand sums the requested quantity per product across all lines.
func (c Cart) Demand() map[int64]int64 {
	d := make(map[int64]int64, len(c))
	for _, l := range c {
		d[l.ProductID] += l.Qty
	}
	return d
}

func normalizeShippingFee(fee decimal.Decimal) (decimal.Decimal, error) {
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: shipping fee must be >= 0", ErrValidation)
	}
	return fee.Round(2), nil
}
