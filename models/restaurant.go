package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidMenuItem  = errors.New("invalid menu item")
	ErrPromotionPricing = errors.New("promotion price must not exceed original price")
	ErrInvalidSettings  = errors.New("invalid brand settings")
)

// BankAccount is where customers send manual transfers
type BankAccount struct {
	AccountName   string `json:"account_name" yaml:"account_name"`
	AccountNumber string `json:"account_number" yaml:"account_number"`
	BankName      string `json:"bank_name" yaml:"bank_name"`
}

// BrandSettings is the restaurant-wide presentation record. One per deployment.
type BrandSettings struct {
	RestaurantName string      `json:"restaurant_name"`
	Description    string      `json:"description"`
	Logo           string      `json:"logo"`
	PrimaryColor   string      `json:"primary_color"`
	SecondaryColor string      `json:"secondary_color"`
	AccentColor    string      `json:"accent_color"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	BankAccount    BankAccount `json:"bank_account"`
}

func (b BrandSettings) Validate() error {
	if b.RestaurantName == "" {
		return fmt.Errorf("%w: restaurant name is required", ErrInvalidSettings)
	}
	return nil
}

type MenuItem struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price,omitempty"`
	IsOnPromotion bool             `json:"is_on_promotion"`
	Image         string           `json:"image"`
	Category      string           `json:"category"`
	Available     bool             `json:"available"`
}

// ReferencePrice is the price used for savings: the original price when known, else the sale price
func (m MenuItem) ReferencePrice() decimal.Decimal {
	if m.OriginalPrice != nil {
		return *m.OriginalPrice
	}
	return m.Price
}

// NormalizePricing makes OriginalPrice explicit. Items that are not on
// promotion always carry OriginalPrice == Price.
func (m *MenuItem) NormalizePricing() {
	if !m.IsOnPromotion || m.OriginalPrice == nil {
		p := m.Price
		m.OriginalPrice = &p
	}
}

// Validate checks the fields staff can edit
func (m MenuItem) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMenuItem)
	}
	if m.Price.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, m.Price)
	}
	if m.OriginalPrice != nil && m.OriginalPrice.IsNegative() {
		return fmt.Errorf("%w: original %s", ErrInvalidPrice, m.OriginalPrice)
	}
	if m.IsOnPromotion && m.OriginalPrice != nil && m.Price.GreaterThan(*m.OriginalPrice) {
		return fmt.Errorf("%w: %s > %s", ErrPromotionPricing, m.Price, m.OriginalPrice)
	}
	return nil
}
