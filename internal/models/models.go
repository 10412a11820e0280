package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Product struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"          json:"id"`
	Name      string          `gorm:"not null"                          json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(18,2);not null"       json:"price"`
	Stock     int64           `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	IsActive  bool            `gorm:"not null;default:true"             json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"                 json:"id"`
	UserID      int64           `gorm:"index;not null"                           json:"user_id"`
	Status      OrderStatus     `gorm:"type:varchar(30);not null;default:pending" json:"status"`
	ShippingFee decimal.Decimal `gorm:"type:numeric(18,2);not null"              json:"shipping_fee"`
	Subtotal    decimal.Decimal `gorm:"type:numeric(18,2);not null"              json:"subtotal"`
	Total       decimal.Decimal `gorm:"type:numeric(18,2);not null"              json:"total"`
	CreatedAt   time.Time       `gorm:"index"                                    json:"created_at"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID"                       json:"items,omitempty"`
}

// OrderItem keeps the unit price captured at checkout; it is never updated.
type OrderItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"      json:"id"`
	OrderID   int64           `gorm:"index;not null"                json:"order_id"`
	ProductID int64           `gorm:"index;not null"                json:"product_id"`
	Qty       int64           `gorm:"not null;check:qty > 0"        json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,2);not null"   json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(18,2);not null"   json:"line_total"`
	Product   *Product        `gorm:"foreignKey:ProductID"          json:"product,omitempty"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Product{}, &Order{}, &OrderItem{})
}
