package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the kitchen/service progression of a table order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusServed    OrderStatus = "served"
	StatusCompleted OrderStatus = "completed"
)

// PaymentStatus is tracked independently of OrderStatus
type PaymentStatus string

const (
	PaymentUnpaid              PaymentStatus = "unpaid"
	PaymentPendingVerification PaymentStatus = "pending_verification"
	PaymentPaid                PaymentStatus = "paid"
	PaymentAtRestaurant        PaymentStatus = "pay_at_restaurant"
)

type PaymentMethod string

const (
	MethodQRCode       PaymentMethod = "qr_code"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentChoice is what the customer picks at checkout
type PaymentChoice string

const (
	ChoiceOnline     PaymentChoice = "online"
	ChoiceRestaurant PaymentChoice = "restaurant"
)

// InitialPaymentStatus maps a checkout choice to the entry payment state
func (c PaymentChoice) InitialPaymentStatus() (PaymentStatus, bool) {
	switch c {
	case ChoiceOnline:
		return PaymentUnpaid, true
	case ChoiceRestaurant:
		return PaymentAtRestaurant, true
	}
	return "", false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusServed, StatusCompleted:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPendingVerification, PaymentPaid, PaymentAtRestaurant:
		return true
	}
	return false
}

func (m PaymentMethod) Valid() bool {
	return m == MethodQRCode || m == MethodBankTransfer
}

// CartItem is a menu item selected with a quantity and free-text notes
type CartItem struct {
	MenuItem
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

func (c CartItem) LineTotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

func (c CartItem) LineOriginalTotal() decimal.Decimal {
	return c.ReferencePrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Order is the snapshot taken when a cart is placed. Items and Total are
// frozen; only Status and the payment fields change afterwards.
type Order struct {
	ID            string          `json:"id"`
	TableID       string          `json:"table_id"`
	Items         []CartItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	PaymentSlip   string          `json:"payment_slip,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
	Notes         string          `json:"notes,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with o
func (o Order) Clone() Order {
	out := o
	out.Items = CloneItems(o.Items)
	return out
}

// CloneItems deep-copies cart lines, including OriginalPrice pointers
func CloneItems(items []CartItem) []CartItem {
	if items == nil {
		return nil
	}
	out := make([]CartItem, len(items))
	for i, it := range items {
		out[i] = it
		if it.OriginalPrice != nil {
			p := *it.OriginalPrice
			out[i].OriginalPrice = &p
		}
	}
	return out
}

// SumItems is Σ price×quantity
func SumItems(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// LineItem is one line of an order submission
type LineItem struct {
	ItemID   string
	Quantity int
	Notes    string
}

// PlaceOrderRequest is what gets submitted to the backend at checkout
type PlaceOrderRequest struct {
	TableID       string
	Items         []LineItem
	Notes         string
	PaymentStatus PaymentStatus
}

// PaymentUpdate carries a direct payment-state set. Empty Method/Slip mean "leave as is".
type PaymentUpdate struct {
	Status PaymentStatus `json:"payment_status"`
	Method PaymentMethod `json:"payment_method,omitempty"`
	Slip   string        `json:"payment_slip,omitempty"`
}

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Limit         int
}

func (f OrderFilter) Match(o Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
		return false
	}
	return true
}

// Transition axes recorded in StatusChange
const (
	AxisFulfillment = "fulfillment"
	AxisPayment     = "payment"
)

// StatusChange is the local audit trail of applied status changes
type StatusChange struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	OrderID    string    `json:"order_id" gorm:"index;not null"`
	Axis       string    `json:"axis" gorm:"not null"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status" gorm:"not null"`
	Actor      string    `json:"actor"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}
