// Package handlers is the gateway's HTTP surface for table devices and staff.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"table-order/cart"
	"table-order/feed"
	"table-order/history"
	"table-order/lifecycle"
	"table-order/models"
	"table-order/report"
	"table-order/statemachine"
	"table-order/store"
	"table-order/tablecode"
)

// Deps wires the handlers to the rest of the gateway
type Deps struct {
	Store     *store.Store
	Journal   *history.Journal
	Directory *tablecode.Directory
	Signer    *tablecode.Signer
	Hub       *feed.Hub
	Logger    *zap.Logger
	// PublicURL is the customer-facing base used in QR links
	PublicURL string
}

type Handler struct {
	store     *store.Store
	engine    *lifecycle.Engine
	journal   *history.Journal
	dir       *tablecode.Directory
	signer    *tablecode.Signer
	hub       *feed.Hub
	log       *zap.Logger
	publicURL string
	now       func() time.Time
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:     d.Store,
		engine:    d.Store.Engine(),
		journal:   d.Journal,
		dir:       d.Directory,
		signer:    d.Signer,
		hub:       d.Hub,
		log:       log,
		publicURL: d.PublicURL,
		now:       time.Now,
	}
}

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, lifecycle.ErrEmptyCart),
		errors.Is(err, lifecycle.ErrInvalidPaymentChoice),
		errors.Is(err, lifecycle.ErrInvalidPayment),
		errors.Is(err, lifecycle.ErrSlipRequired),
		errors.Is(err, models.ErrInvalidPrice),
		errors.Is(err, models.ErrInvalidMenuItem),
		errors.Is(err, models.ErrPromotionPricing),
		errors.Is(err, models.ErrInvalidSettings),
		errors.Is(err, report.ErrUnknownRange),
		errors.Is(err, tablecode.ErrUnknownTable):
		status = http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrOrderNotFound),
		errors.Is(err, store.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrInFlight):
		status = http.StatusConflict
	case errors.Is(err, cart.ErrItemUnavailable),
		errors.Is(err, statemachine.ErrInvalidTransition),
		errors.Is(err, statemachine.ErrTerminalStatus),
		errors.Is(err, statemachine.ErrPaymentRequired):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, lifecycle.ErrBackend):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func isTransitionError(err error) bool {
	return errors.Is(err, statemachine.ErrInvalidTransition) ||
		errors.Is(err, statemachine.ErrTerminalStatus) ||
		errors.Is(err, statemachine.ErrPaymentRequired)
}

// respondStatusError reports a rejected fulfillment change together with
// the states the order could move to instead.
func respondStatusError(c *gin.Context, current models.Order, requested models.OrderStatus, err error) {
	if !isTransitionError(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":             "Invalid state transition",
		"current_status":    current.Status,
		"payment_status":    current.PaymentStatus,
		"requested":         requested,
		"reason":            err.Error(),
		"valid_next_states": statemachine.ValidTransitionsFrom(current.Status),
	})
}

func respondPaymentError(c *gin.Context, current models.Order, requested models.PaymentStatus, err error) {
	if !isTransitionError(err) {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":             "Invalid payment transition",
		"current_status":    current.PaymentStatus,
		"requested":         requested,
		"reason":            err.Error(),
		"valid_next_states": statemachine.ValidPaymentTransitionsFrom(current.PaymentStatus),
	})
}
