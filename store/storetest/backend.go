// Package storetest provides an in-memory restaurant backend for tests.
package storetest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"table-order/models"
)

var ErrUnavailable = errors.New("backend unavailable")

// Backend keeps menu, settings and orders in memory. Set Fail to make every
// call return ErrUnavailable.
type Backend struct {
	mu       sync.Mutex
	Fail     bool
	Menu     []models.MenuItem
	Brand    models.BrandSettings
	Orders   []models.Order
	Requests []models.PlaceOrderRequest
	nextID   int
	Now      func() time.Time
}

func New() *Backend {
	return &Backend{Now: time.Now}
}

// SeedMenu adds a menu item priced in whole units
func (b *Backend) SeedMenu(id, name string, price, original int64, available bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item := models.MenuItem{
		ID:            id,
		Name:          name,
		Price:         decimal.NewFromInt(price),
		IsOnPromotion: original > price,
		Category:      "main",
		Available:     available,
	}
	o := decimal.NewFromInt(original)
	item.OriginalPrice = &o
	b.Menu = append(b.Menu, item)
}

func (b *Backend) SetFail(fail bool) {
	b.mu.Lock()
	b.Fail = fail
	b.mu.Unlock()
}

func (b *Backend) FetchMenu(ctx context.Context) ([]models.MenuItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return nil, ErrUnavailable
	}
	out := make([]models.MenuItem, len(b.Menu))
	copy(out, b.Menu)
	return out, nil
}

func (b *Backend) SaveMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return models.MenuItem{}, ErrUnavailable
	}
	if item.ID == "" {
		item.ID = strconv.Itoa(100 + len(b.Menu))
		b.Menu = append(b.Menu, item)
		return item, nil
	}
	for i := range b.Menu {
		if b.Menu[i].ID == item.ID {
			b.Menu[i] = item
			return item, nil
		}
	}
	return models.MenuItem{}, errors.New("menu item not found")
}

func (b *Backend) FetchSettings(ctx context.Context) (models.BrandSettings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return models.BrandSettings{}, ErrUnavailable
	}
	return b.Brand, nil
}

func (b *Backend) UpdateSettings(ctx context.Context, s models.BrandSettings) (models.BrandSettings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return models.BrandSettings{}, ErrUnavailable
	}
	b.Brand = s
	return s, nil
}

func (b *Backend) CreateOrder(ctx context.Context, req models.PlaceOrderRequest) (models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return models.Order{}, ErrUnavailable
	}
	b.nextID++
	b.Requests = append(b.Requests, req)

	order := models.Order{
		ID:            strconv.Itoa(b.nextID),
		TableID:       req.TableID,
		Status:        models.StatusPending,
		PaymentStatus: req.PaymentStatus,
		Timestamp:     b.Now(),
		Notes:         req.Notes,
		Total:         decimal.Zero,
	}
	for _, li := range req.Items {
		for _, m := range b.Menu {
			if m.ID == li.ItemID {
				line := models.CartItem{MenuItem: m, Quantity: li.Quantity, Notes: li.Notes}
				order.Items = append(order.Items, line)
				order.Total = order.Total.Add(line.LineTotal())
			}
		}
	}
	b.Orders = append(b.Orders, order)
	return order.Clone(), nil
}

func (b *Backend) FetchOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return nil, ErrUnavailable
	}
	var out []models.Order
	for _, o := range b.Orders {
		if f.Match(o) {
			out = append(out, o.Clone())
		}
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (b *Backend) FetchTableOrders(ctx context.Context, tableCode string) ([]models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return nil, ErrUnavailable
	}
	out := []models.Order{}
	for _, o := range b.Orders {
		if o.TableID == tableCode {
			out = append(out, o.Clone())
		}
	}
	return out, nil
}

func (b *Backend) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return ErrUnavailable
	}
	for i := range b.Orders {
		if b.Orders[i].ID == orderID {
			b.Orders[i].Status = status
			return nil
		}
	}
	return errors.New("order not found")
}

func (b *Backend) UpdatePaymentStatus(ctx context.Context, orderID string, u models.PaymentUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail {
		return ErrUnavailable
	}
	for i := range b.Orders {
		if b.Orders[i].ID == orderID {
			b.Orders[i].PaymentStatus = u.Status
			if u.Method != "" {
				b.Orders[i].PaymentMethod = u.Method
			}
			if u.Slip != "" {
				b.Orders[i].PaymentSlip = u.Slip
			}
			return nil
		}
	}
	return errors.New("order not found")
}

// Order returns the backend's copy of an order
func (b *Backend) Order(id string) (models.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.Orders {
		if o.ID == id {
			return o.Clone(), true
		}
	}
	return models.Order{}, false
}
