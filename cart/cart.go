// Package cart holds the in-progress selection of one table session.
package cart

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"table-order/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemUnavailable = errors.New("item is not available")
)

// Totals is derived from the cart lines on every read
type Totals struct {
	Total         decimal.Decimal `json:"total"`
	OriginalTotal decimal.Decimal `json:"original_total"`
	Savings       decimal.Decimal `json:"savings"`
	ItemCount     int             `json:"item_count"`
}

// Cart keeps at most one line per menu item id, in insertion order.
type Cart struct {
	mu    sync.Mutex
	items []models.CartItem
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add puts quantity of item in the cart. Adding an id that is already present
// bumps its quantity and replaces its notes.
func (c *Cart) Add(item models.MenuItem, quantity int, notes string) error {
	if quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if !item.Available {
		return fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(item.ID); i >= 0 {
		c.items[i].Quantity += quantity
		c.items[i].Notes = notes
		return nil
	}
	line := models.CloneItems([]models.CartItem{{MenuItem: item, Quantity: quantity, Notes: notes}})
	c.items = append(c.items, line[0])
	return nil
}

// SetQuantity updates a line. Zero removes it; nil notes keep the current
// notes. Unknown ids are ignored.
func (c *Cart) SetQuantity(id string, quantity int, notes *string) error {
	if quantity < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil
	}
	if quantity == 0 {
		c.removeAt(i)
		return nil
	}
	c.items[i].Quantity = quantity
	if notes != nil {
		c.items[i].Notes = *notes
	}
	return nil
}

func (c *Cart) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(id); i >= 0 {
		c.removeAt(i)
	}
}

func (c *Cart) removeAt(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}

// RemovePlaced takes placed lines out of the cart after checkout. Quantities
// added to a line since the snapshot stay in the cart, as do new lines.
func (c *Cart) RemovePlaced(placed []models.CartItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range placed {
		i := c.indexOf(p.ID)
		if i < 0 {
			continue
		}
		c.items[i].Quantity -= p.Quantity
		if c.items[i].Quantity <= 0 {
			c.removeAt(i)
		}
	}
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Items returns a deep copy of the current lines
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := models.CloneItems(c.items)
	if out == nil {
		out = []models.CartItem{}
	}
	return out
}

// Snapshot returns the lines and their totals under one lock
func (c *Cart) Snapshot() ([]models.CartItem, Totals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := models.CloneItems(c.items)
	if items == nil {
		items = []models.CartItem{}
	}
	return items, ComputeTotals(c.items)
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

// Totals computes total, original total and savings from the current lines.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeTotals(c.items)
}

// ComputeTotals is the pure form of Cart.Totals
func ComputeTotals(items []models.CartItem) Totals {
	t := Totals{Total: decimal.Zero, OriginalTotal: decimal.Zero}
	for _, it := range items {
		t.Total = t.Total.Add(it.LineTotal())
		t.OriginalTotal = t.OriginalTotal.Add(it.LineOriginalTotal())
		t.ItemCount += it.Quantity
	}
	t.Savings = t.OriginalTotal.Sub(t.Total)
	return t
}
