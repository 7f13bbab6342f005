package apiclient

import (
	"time"

	"github.com/shopspring/decimal"
)

// Backend payloads. Field names follow the backend's camelCase JSON.

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type apiMenuItem struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Description     *string          `json:"description"`
	FullPrice       decimal.Decimal  `json:"fullPrice"`
	PromotionPrice  *decimal.Decimal `json:"promotionPrice"`
	IsPromotion     bool             `json:"isPromotion"`
	Image           *string          `json:"image"`
	Category        string           `json:"category"`
	IsAvailable     bool             `json:"isAvailable"`
	PreparationTime *int             `json:"preparationTime,omitempty"`
	CreatedAt       *time.Time       `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time       `json:"updatedAt,omitempty"`
}

type apiTable struct {
	ID       int64  `json:"id"`
	Number   string `json:"number"`
	Capacity int    `json:"capacity"`
}

type apiOrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	MenuID    int64           `json:"menuId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Notes     *string         `json:"notes"`
	Menu      apiMenuItem     `json:"menu"`
}

type apiOrder struct {
	ID            int64           `json:"id"`
	TableID       int64           `json:"tableId"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	PaymentMethod *string         `json:"paymentMethod"`
	PaymentSlip   *string         `json:"paymentSlip"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Notes         *string         `json:"notes"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
	Table         *apiTable       `json:"table"`
	OrderItems    []apiOrderItem  `json:"orderItems"`
}

type apiSettings struct {
	ID                int64   `json:"id,omitempty"`
	Name              string  `json:"name"`
	Logo              *string `json:"logo"`
	PrimaryColor      string  `json:"primaryColor"`
	SecondaryColor    string  `json:"secondaryColor"`
	AccentColor       string  `json:"accentColor"`
	Address           *string `json:"address"`
	Phone             *string `json:"phone"`
	Email             *string `json:"email,omitempty"`
	Description       *string `json:"description"`
	BankAccountName   *string `json:"bankAccountName"`
	BankAccountNumber *string `json:"bankAccountNumber"`
	BankName          *string `json:"bankName"`
}

type createOrderItem struct {
	MenuID   int64  `json:"menuId"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes,omitempty"`
}

type createOrderRequest struct {
	TableID       int64             `json:"tableId"`
	Items         []createOrderItem `json:"items"`
	Notes         string            `json:"notes,omitempty"`
	PaymentStatus string            `json:"paymentStatus,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type paymentRequest struct {
	PaymentStatus string `json:"paymentStatus"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	PaymentSlip   string `json:"paymentSlip,omitempty"`
}

// amount is money sent to the backend, which expects JSON numbers
type amount struct {
	decimal.Decimal
}

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

type menuItemRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	FullPrice      amount  `json:"fullPrice"`
	PromotionPrice *amount `json:"promotionPrice"`
	IsPromotion    bool    `json:"isPromotion"`
	Image          string  `json:"image"`
	Category       string  `json:"category"`
	IsAvailable    bool    `json:"isAvailable"`
}
