// Package store is the gateway's state container: the catalog snapshot,
// one cart per table and the order engine. Handlers receive a *Store
// instead of reaching for globals.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"table-order/cart"
	"table-order/lifecycle"
	"table-order/metrics"
	"table-order/models"
	"table-order/tablecode"
)

var ErrItemNotFound = errors.New("menu item not found")

// Backend is everything the store needs from the restaurant backend
type Backend interface {
	lifecycle.Backend
	FetchMenu(ctx context.Context) ([]models.MenuItem, error)
	SaveMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error)
	FetchSettings(ctx context.Context) (models.BrandSettings, error)
	UpdateSettings(ctx context.Context, s models.BrandSettings) (models.BrandSettings, error)
	FetchOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	FetchTableOrders(ctx context.Context, tableCode string) ([]models.Order, error)
}

type Options struct {
	// PollLimit caps how many orders one poll asks for. Zero means no cap.
	PollLimit int
	// CatalogInterval is how often Poll reloads menu and settings. Zero
	// means every order poll.
	CatalogInterval time.Duration
	Metrics         *metrics.Collector
	Logger          *zap.Logger
}

type Store struct {
	backend         Backend
	engine          *lifecycle.Engine
	metrics         *metrics.Collector
	log             *zap.Logger
	pollLimit       int
	catalogInterval time.Duration

	mu       sync.RWMutex
	menu     []models.MenuItem
	settings models.BrandSettings
	carts    map[string]*cart.Cart
}

func New(backend Backend, engine *lifecycle.Engine, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend:         backend,
		engine:          engine,
		metrics:         opts.Metrics,
		log:             log,
		pollLimit:       opts.PollLimit,
		catalogInterval: opts.CatalogInterval,
		menu:            []models.MenuItem{},
		carts:           make(map[string]*cart.Cart),
	}
}

func (s *Store) Engine() *lifecycle.Engine {
	return s.engine
}

func (s *Store) backendErr(op string, err error) error {
	s.metrics.BackendFailure(op)
	s.log.Warn("backend call failed", zap.String("operation", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", lifecycle.ErrBackend, op, err)
}

// RefreshMenu replaces the catalog snapshot with the backend's menu
func (s *Store) RefreshMenu(ctx context.Context) error {
	items, err := s.backend.FetchMenu(ctx)
	if err != nil {
		return s.backendErr("fetch_menu", err)
	}
	for i := range items {
		items[i].NormalizePricing()
	}
	s.mu.Lock()
	s.menu = items
	s.mu.Unlock()
	s.log.Debug("menu refreshed", zap.Int("items", len(items)))
	return nil
}

func (s *Store) Menu() []models.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MenuItem, len(s.menu))
	for i, m := range s.menu {
		out[i] = copyItem(m)
	}
	return out
}

func (s *Store) MenuItem(id string) (models.MenuItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.menu {
		if m.ID == id {
			return copyItem(m), true
		}
	}
	return models.MenuItem{}, false
}

func copyItem(m models.MenuItem) models.MenuItem {
	if m.OriginalPrice != nil {
		p := *m.OriginalPrice
		m.OriginalPrice = &p
	}
	return m
}

// SaveMenuItem creates (empty ID) or updates an item through the backend and
// then applies the saved version to the catalog.
func (s *Store) SaveMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	item.NormalizePricing()
	if err := item.Validate(); err != nil {
		return models.MenuItem{}, err
	}
	if item.ID != "" {
		if _, ok := s.MenuItem(item.ID); !ok {
			return models.MenuItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, item.ID)
		}
	}

	saved, err := s.backend.SaveMenuItem(ctx, item)
	if err != nil {
		return models.MenuItem{}, s.backendErr("save_menu_item", err)
	}
	saved.NormalizePricing()

	s.mu.Lock()
	replaced := false
	for i := range s.menu {
		if s.menu[i].ID == saved.ID {
			s.menu[i] = saved
			replaced = true
			break
		}
	}
	if !replaced {
		s.menu = append(s.menu, saved)
	}
	s.mu.Unlock()

	s.log.Info("menu item saved", zap.String("item_id", saved.ID), zap.Bool("available", saved.Available))
	return copyItem(saved), nil
}

// SetAvailability is the soft delete of the menu
func (s *Store) SetAvailability(ctx context.Context, itemID string, available bool) (models.MenuItem, error) {
	item, ok := s.MenuItem(itemID)
	if !ok {
		return models.MenuItem{}, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	item.Available = available
	return s.SaveMenuItem(ctx, item)
}

func (s *Store) RefreshSettings(ctx context.Context) error {
	settings, err := s.backend.FetchSettings(ctx)
	if err != nil {
		return s.backendErr("fetch_settings", err)
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

func (s *Store) Settings() models.BrandSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SaveSettings replaces the brand settings wholesale
func (s *Store) SaveSettings(ctx context.Context, settings models.BrandSettings) (models.BrandSettings, error) {
	if err := settings.Validate(); err != nil {
		return models.BrandSettings{}, err
	}
	saved, err := s.backend.UpdateSettings(ctx, settings)
	if err != nil {
		return models.BrandSettings{}, s.backendErr("update_settings", err)
	}
	s.mu.Lock()
	s.settings = saved
	s.mu.Unlock()
	return saved, nil
}

// Cart returns the cart of a table session, creating it on first use
func (s *Store) Cart(tableID string) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[tableID]
	if !ok {
		c = cart.New()
		s.carts[tableID] = c
	}
	return c
}

// CartView is what a table's UI renders
type CartView struct {
	TableID string            `json:"table_id"`
	Items   []models.CartItem `json:"items"`
	Totals  cart.Totals       `json:"totals"`
	Placing bool              `json:"placing"`
}

func (s *Store) CartView(tableID string) CartView {
	items, totals := s.Cart(tableID).Snapshot()
	return CartView{
		TableID: tableID,
		Items:   items,
		Totals:  totals,
		Placing: s.engine.Placing(tableID),
	}
}

// AddToCart adds a catalog item by id. The cart stores the catalog entry as
// it is at the time of adding.
func (s *Store) AddToCart(tableID, itemID string, quantity int, notes string) error {
	item, ok := s.MenuItem(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return s.Cart(tableID).Add(item, quantity, notes)
}

func (s *Store) UpdateCartItem(tableID, itemID string, quantity int, notes *string) error {
	return s.Cart(tableID).SetQuantity(itemID, quantity, notes)
}

func (s *Store) RemoveFromCart(tableID, itemID string) {
	s.Cart(tableID).Remove(itemID)
}

func (s *Store) ClearCart(tableID string) {
	s.Cart(tableID).Clear()
}

// TableOrders asks the backend for every order of one table, newest first
func (s *Store) TableOrders(ctx context.Context, tableID string) ([]models.Order, error) {
	orders, err := s.backend.FetchTableOrders(ctx, tableID)
	if err != nil {
		if errors.Is(err, tablecode.ErrUnknownTable) {
			return nil, err
		}
		return nil, s.backendErr("fetch_table_orders", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Timestamp.After(orders[j].Timestamp)
	})
	return orders, nil
}

// Checkout places the table's cart as an order
func (s *Store) Checkout(ctx context.Context, tableID string, choice models.PaymentChoice, notes string) (models.Order, error) {
	return s.engine.PlaceOrder(ctx, tableID, s.Cart(tableID), choice, notes)
}
