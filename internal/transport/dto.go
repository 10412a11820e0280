package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shophub/storefront/internal/models"
	"github.com/shophub/storefront/internal/service"
)

type CartItem struct {
	ProductID int64 `json:"productId"`
	Qty       int64 `json:"qty"`
}

// CheckoutRequest accepts shippingFee as a JSON number or string; absent means zero.
type CheckoutRequest struct {
	Items       []CartItem      `json:"items"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
}

func (r CheckoutRequest) Lines() []service.CartLine {
	lines := make([]service.CartLine, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, service.CartLine{ProductID: it.ProductID, Qty: it.Qty})
	}
	return lines
}

type CheckoutResponse struct {
	OrderID     int64  `json:"orderId"`
	Subtotal    string `json:"subtotal"`
	ShippingFee string `json:"shippingFee"`
	Total       string `json:"total"`
}

func NewCheckoutResponse(res *service.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		OrderID:     res.OrderID,
		Subtotal:    res.Subtotal.StringFixed(2),
		ShippingFee: res.ShippingFee.StringFixed(2),
		Total:       res.Total.StringFixed(2),
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type OrderItemResponse struct {
	ID        int64  `json:"id"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Qty         int64  `json:"qty"`
	UnitPrice   string `json:"unitPrice"`
	LineTotal   string `json:"lineTotal"`
}

type OrderResponse struct {
	ID          int64               `json:"id"`
	UserID      int64               `json:"userId"`
	Status      string              `json:"status"`
	Subtotal    string              `json:"subtotal"`
	ShippingFee string              `json:"shippingFee"`
	Total       string              `json:"total"`
	CreatedAt   time.Time           `json:"createdAt"`
	Items       []OrderItemResponse `json:"items,omitempty"`
}

func NewOrderResponse(o models.Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		Subtotal:    o.Subtotal.StringFixed(2),
		ShippingFee: o.ShippingFee.StringFixed(2),
		Total:       o.Total.StringFixed(2),
		CreatedAt:   o.CreatedAt,
	}
	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice.StringFixed(2),
			LineTotal: it.LineTotal.StringFixed(2),
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func NewOrderList(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}
