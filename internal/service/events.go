package service

import (
	"context"
	"time"
)

const EventOrderCreated = "order_created"

type OrderCreatedEvent struct {
	Type        string           `json:"type"`
	EventID     string           `json:"eventId"`
	OrderID     int64            `json:"orderId"`
	UserID      int64            `json:"userId"`
	Subtotal    string           `json:"subtotal"`
	ShippingFee string           `json:"shippingFee"`
	Total       string           `json:"total"`
	Items       []OrderEventItem `json:"items"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type OrderEventItem struct {
	ProductID int64  `json:"productId"`
	Qty       int64  `json:"qty"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

// EventPublisher sends a keyed message to a topic. Implemented by mykafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// StockSyncer pushes the new stock level of each product to the search index.
type StockSyncer interface {
	SyncStock(ctx context.Context, stock map[int64]int64) error
}
