// Package lifecycle owns the order list of the gateway and drives orders
// through the fulfillment and payment state machines. Every mutation is
// confirmed by the backend before it is applied locally.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"table-order/cart"
	"table-order/metrics"
	"table-order/models"
	"table-order/statemachine"
	"table-order/tablecode"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentChoice = errors.New("invalid payment choice")
	ErrInvalidPayment       = errors.New("invalid payment update")
	ErrSlipRequired         = errors.New("payment slip is required for verification")
	ErrInFlight             = errors.New("request already in progress")
	ErrOrderNotFound        = errors.New("order not found")
	ErrBackend              = errors.New("backend request failed")
)

// Backend is the durable store the engine reconciles against
type Backend interface {
	CreateOrder(ctx context.Context, req models.PlaceOrderRequest) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID string, update models.PaymentUpdate) error
}

// Journal records applied transitions
type Journal interface {
	Record(ctx context.Context, change models.StatusChange) error
}

// TableResolver validates table codes before an order is submitted
type TableResolver interface {
	Resolve(code string) (int64, error)
}

type Option func(*Engine)

func WithTables(r TableResolver) Option {
	return func(e *Engine) { e.tables = r }
}

func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithListener registers a callback that receives the full order list after
// every applied change.
func WithListener(fn func([]models.Order)) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, fn) }
}

type Engine struct {
	backend   Backend
	journal   Journal
	tables    TableResolver
	metrics   *metrics.Collector
	log       *zap.Logger
	listeners []func([]models.Order)
	now       func() time.Time

	mu       sync.RWMutex
	orders   []models.Order
	current  map[string]string // table id -> order id placed from this gateway
	inFlight map[string]struct{}
}

func New(backend Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:  backend,
		log:      zap.NewNop(),
		now:      time.Now,
		current:  make(map[string]string),
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func placeKey(tableID string) string { return "place_order:" + tableID }
func orderKey(orderID string) string { return "order:" + orderID }

func (e *Engine) begin(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[key]; busy {
		return false
	}
	e.inFlight[key] = struct{}{}
	return true
}

func (e *Engine) end(key string) {
	e.mu.Lock()
	delete(e.inFlight, key)
	e.mu.Unlock()
}

// Placing reports whether a checkout for tableID is outstanding
func (e *Engine) Placing(tableID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, busy := e.inFlight[placeKey(tableID)]
	return busy
}

// PlaceOrder turns the cart into an order. The placed lines leave the cart
// only after the backend has accepted the order; on any failure the cart is
// left untouched. Lines added while the call is in flight stay in the cart.
func (e *Engine) PlaceOrder(ctx context.Context, tableID string, c *cart.Cart, choice models.PaymentChoice, notes string) (models.Order, error) {
	payment, ok := choice.InitialPaymentStatus()
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %q", ErrInvalidPaymentChoice, choice)
	}
	items, totals := c.Snapshot()
	if len(items) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	if e.tables != nil {
		if _, err := e.tables.Resolve(tableID); err != nil {
			return models.Order{}, err
		}
	}

	key := placeKey(tableID)
	if !e.begin(key) {
		return models.Order{}, fmt.Errorf("%w: checkout for table %s", ErrInFlight, tableID)
	}
	defer e.end(key)

	req := models.PlaceOrderRequest{
		TableID:       tableID,
		Items:         make([]models.LineItem, len(items)),
		Notes:         notes,
		PaymentStatus: payment,
	}
	for i, it := range items {
		req.Items[i] = models.LineItem{ItemID: it.ID, Quantity: it.Quantity, Notes: it.Notes}
	}

	created, err := e.backend.CreateOrder(ctx, req)
	if errors.Is(err, tablecode.ErrUnknownTable) {
		return models.Order{}, err
	}
	if err != nil {
		e.metrics.BackendFailure("create_order")
		e.log.Warn("order placement failed", zap.String("table_id", tableID), zap.Error(err))
		return models.Order{}, fmt.Errorf("%w: place order: %w", ErrBackend, err)
	}

	order := models.Order{
		ID:            created.ID,
		TableID:       tableID,
		Items:         items,
		Total:         totals.Total,
		Status:        models.StatusPending,
		PaymentStatus: payment,
		Timestamp:     created.Timestamp,
		Notes:         notes,
	}
	if order.Timestamp.IsZero() {
		order.Timestamp = e.now()
	}
	if !created.Total.IsZero() && !created.Total.Equal(order.Total) {
		e.log.Warn("backend total differs from cart total",
			zap.String("order_id", order.ID),
			zap.String("backend_total", created.Total.String()),
			zap.String("cart_total", order.Total.String()))
	}

	e.mu.Lock()
	e.orders = append(e.orders, order.Clone())
	e.current[tableID] = order.ID
	e.mu.Unlock()

	c.RemovePlaced(items)

	e.record(ctx, order.ID, models.AxisFulfillment, "", string(order.Status), "customer", "order placed")
	e.record(ctx, order.ID, models.AxisPayment, "", string(order.PaymentStatus), "customer", string(choice))
	e.metrics.OrderPlaced(choice)
	e.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("table_id", tableID),
		zap.String("total", order.Total.String()),
		zap.String("payment_status", string(payment)))
	e.notify()

	return order, nil
}

// AdvanceStatus moves an order one step along the fulfillment chain,
// subject to the payment guard.
func (e *Engine) AdvanceStatus(ctx context.Context, orderID, actor string) (models.Order, error) {
	key := orderKey(orderID)
	if !e.begin(key) {
		return models.Order{}, fmt.Errorf("%w: order %s", ErrInFlight, orderID)
	}
	defer e.end(key)

	current, ok := e.Order(orderID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err := statemachine.CanAdvance(current.Status, current.PaymentStatus); err != nil {
		return current, err
	}
	next, _ := statemachine.NextStatus(current.Status)

	if err := e.backend.UpdateOrderStatus(ctx, orderID, next); err != nil {
		e.metrics.BackendFailure("update_status")
		e.log.Warn("status update failed", zap.String("order_id", orderID), zap.Error(err))
		return current, fmt.Errorf("%w: update status: %w", ErrBackend, err)
	}

	updated, err := e.apply(orderID, func(o *models.Order) { o.Status = next })
	if err != nil {
		return current, err
	}
	e.transitioned(ctx, orderID, models.AxisFulfillment, string(current.Status), string(next), actor, "")
	e.notify()
	return updated, nil
}

// SetPaymentStatus applies a direct payment-state change. Method and slip
// replace the stored values only when provided.
func (e *Engine) SetPaymentStatus(ctx context.Context, orderID string, update models.PaymentUpdate, actor string) (models.Order, error) {
	if !update.Status.Valid() {
		return models.Order{}, fmt.Errorf("%w: unknown payment status %q", ErrInvalidPayment, update.Status)
	}
	if update.Method != "" && !update.Method.Valid() {
		return models.Order{}, fmt.Errorf("%w: unknown payment method %q", ErrInvalidPayment, update.Method)
	}
	if update.Status == models.PaymentPendingVerification && update.Slip == "" {
		return models.Order{}, ErrSlipRequired
	}

	key := orderKey(orderID)
	if !e.begin(key) {
		return models.Order{}, fmt.Errorf("%w: order %s", ErrInFlight, orderID)
	}
	defer e.end(key)

	current, ok := e.Order(orderID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if current.Status == models.StatusCompleted {
		return current, fmt.Errorf("%w: order %s is completed", statemachine.ErrTerminalStatus, orderID)
	}
	if err := statemachine.CanSetPayment(current.PaymentStatus, update.Status); err != nil {
		return current, err
	}

	if err := e.backend.UpdatePaymentStatus(ctx, orderID, update); err != nil {
		e.metrics.BackendFailure("update_payment")
		e.log.Warn("payment update failed", zap.String("order_id", orderID), zap.Error(err))
		return current, fmt.Errorf("%w: update payment: %w", ErrBackend, err)
	}

	updated, err := e.apply(orderID, func(o *models.Order) {
		o.PaymentStatus = update.Status
		if update.Method != "" {
			o.PaymentMethod = update.Method
		}
		if update.Slip != "" {
			o.PaymentSlip = update.Slip
		}
	})
	if err != nil {
		return current, err
	}
	e.transitioned(ctx, orderID, models.AxisPayment, string(current.PaymentStatus), string(update.Status), actor, string(update.Method))
	e.notify()
	return updated, nil
}

// CompleteOrder closes the bill of a served order: payment becomes paid and
// fulfillment becomes completed. Nothing is applied locally unless both
// backend writes succeed.
func (e *Engine) CompleteOrder(ctx context.Context, orderID, actor string) (models.Order, error) {
	key := orderKey(orderID)
	if !e.begin(key) {
		return models.Order{}, fmt.Errorf("%w: order %s", ErrInFlight, orderID)
	}
	defer e.end(key)

	current, ok := e.Order(orderID)
	if !ok {
		return models.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err := statemachine.CanTransition(current.Status, models.StatusCompleted, statemachine.ActionCloseBill); err != nil {
		return current, err
	}

	if current.PaymentStatus != models.PaymentPaid {
		if err := e.backend.UpdatePaymentStatus(ctx, orderID, models.PaymentUpdate{Status: models.PaymentPaid}); err != nil {
			e.metrics.BackendFailure("update_payment")
			e.log.Warn("close bill payment failed", zap.String("order_id", orderID), zap.Error(err))
			return current, fmt.Errorf("%w: update payment: %w", ErrBackend, err)
		}
	}
	if err := e.backend.UpdateOrderStatus(ctx, orderID, models.StatusCompleted); err != nil {
		e.metrics.BackendFailure("update_status")
		e.log.Warn("close bill status failed", zap.String("order_id", orderID), zap.Error(err))
		return current, fmt.Errorf("%w: update status: %w", ErrBackend, err)
	}

	updated, err := e.apply(orderID, func(o *models.Order) {
		o.Status = models.StatusCompleted
		o.PaymentStatus = models.PaymentPaid
	})
	if err != nil {
		return current, err
	}
	if current.PaymentStatus != models.PaymentPaid {
		e.transitioned(ctx, orderID, models.AxisPayment, string(current.PaymentStatus), string(models.PaymentPaid), actor, "bill closed")
	}
	e.transitioned(ctx, orderID, models.AxisFulfillment, string(current.Status), string(models.StatusCompleted), actor, "bill closed")
	e.notify()
	return updated, nil
}

// ReplaceAll swaps the whole order list for a freshly polled one. A local
// change racing with the poll may be overwritten.
func (e *Engine) ReplaceAll(orders []models.Order) {
	fresh := make([]models.Order, len(orders))
	for i, o := range orders {
		fresh[i] = o.Clone()
	}
	e.mu.Lock()
	e.orders = fresh
	e.mu.Unlock()

	e.metrics.SetActiveOrders(fresh)
	e.notify()
}

func (e *Engine) apply(orderID string, mutate func(*models.Order)) (models.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.orders {
		if e.orders[i].ID == orderID {
			mutate(&e.orders[i])
			return e.orders[i].Clone(), nil
		}
	}
	return models.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
}

func (e *Engine) transitioned(ctx context.Context, orderID, axis, from, to, actor, note string) {
	e.record(ctx, orderID, axis, from, to, actor, note)
	e.metrics.Transition(axis, from, to)
	e.log.Info("order transition",
		zap.String("order_id", orderID),
		zap.String("axis", axis),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("actor", actor))
}

func (e *Engine) record(ctx context.Context, orderID, axis, from, to, actor, note string) {
	if e.journal == nil {
		return
	}
	change := models.StatusChange{
		OrderID:    orderID,
		Axis:       axis,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Note:       note,
	}
	if err := e.journal.Record(ctx, change); err != nil {
		e.log.Warn("failed to journal transition", zap.String("order_id", orderID), zap.Error(err))
	}
}

func (e *Engine) notify() {
	if len(e.listeners) == 0 {
		return
	}
	orders := e.Orders()
	for _, fn := range e.listeners {
		fn(orders)
	}
}

// Orders returns a copy of the order list
func (e *Engine) Orders() []models.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.Order, len(e.orders))
	for i, o := range e.orders {
		out[i] = o.Clone()
	}
	return out
}

func (e *Engine) Order(orderID string) (models.Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, o := range e.orders {
		if o.ID == orderID {
			return o.Clone(), true
		}
	}
	return models.Order{}, false
}

// CurrentOrder is the order last placed for tableID from this gateway, or
// failing that the newest open order for the table in the polled list.
func (e *Engine) CurrentOrder(tableID string) (models.Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if id, ok := e.current[tableID]; ok {
		for _, o := range e.orders {
			if o.ID == id {
				return o.Clone(), true
			}
		}
	}
	var latest *models.Order
	for i := range e.orders {
		o := &e.orders[i]
		if o.TableID != tableID || o.Status == models.StatusCompleted {
			continue
		}
		if latest == nil || o.Timestamp.After(latest.Timestamp) {
			latest = o
		}
	}
	if latest == nil {
		return models.Order{}, false
	}
	return latest.Clone(), true
}

// Filter returns orders matching f, newest first, capped at f.Limit when set
func (e *Engine) Filter(f models.OrderFilter) []models.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := []models.Order{}
	for _, o := range e.orders {
		if f.Match(o) {
			out = append(out, o.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}
