package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"table-order/models"
	"table-order/statemachine"
)

// GetRestaurantOrders lists orders for the staff dashboard, newest first.
// refresh=true polls the backend before answering.
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	var filter models.OrderFilter
	if status := c.Query("status"); status != "" {
		filter.Status = models.OrderStatus(status)
		if !filter.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + status})
			return
		}
	}
	if ps := c.Query("payment_status"); ps != "" {
		filter.PaymentStatus = models.PaymentStatus(ps)
		if !filter.PaymentStatus.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment status: " + ps})
			return
		}
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = n
	}

	if c.Query("refresh") == "true" {
		if err := h.store.RefreshOrders(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
	}

	orders := h.engine.Filter(filter)

	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

// GetRestaurantOrder returns one order with the moves staff can make next
func (h *Handler) GetRestaurantOrder(c *gin.Context) {
	order, ok := h.engine.Order(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"terminal":          statemachine.IsTerminal(order.Status),
		"valid_next_states": nextStates(order),
	})
}

// AdvanceOrder moves an order one step along the kitchen flow
func (h *Handler) AdvanceOrder(c *gin.Context) {
	orderID := c.Param("id")
	current, ok := h.engine.Order(orderID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	updated, err := h.engine.AdvanceStatus(c.Request.Context(), orderID, "staff")
	if err != nil {
		requested, _ := statemachine.NextStatus(current.Status)
		respondStatusError(c, current, requested, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Order status updated",
		"order_id":        updated.ID,
		"previous_status": current.Status,
		"current_status":  updated.Status,
		"order":           updated,
	})
}

// UpdateOrderPayment sets the payment status directly (staff verifying a slip, taking cash)
func (h *Handler) UpdateOrderPayment(c *gin.Context) {
	orderID := c.Param("id")
	current, ok := h.engine.Order(orderID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.engine.SetPaymentStatus(c.Request.Context(), orderID, req.update(), "staff")
	if err != nil {
		respondPaymentError(c, current, req.PaymentStatus, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":                 "Payment updated",
		"order_id":                updated.ID,
		"previous_payment_status": current.PaymentStatus,
		"payment_status":          updated.PaymentStatus,
		"order":                   updated,
	})
}

// CompleteOrder closes the bill of a served order
func (h *Handler) CompleteOrder(c *gin.Context) {
	orderID := c.Param("id")
	current, ok := h.engine.Order(orderID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	updated, err := h.engine.CompleteOrder(c.Request.Context(), orderID, "staff")
	if err != nil {
		respondStatusError(c, current, models.StatusCompleted, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Bill closed",
		"order_id":        updated.ID,
		"previous_status": current.Status,
		"current_status":  updated.Status,
		"payment_status":  updated.PaymentStatus,
		"order":           updated,
	})
}

// GetOrderHistory returns the status changes recorded for an order
func (h *Handler) GetOrderHistory(c *gin.Context) {
	orderID := c.Param("id")
	changes, err := h.journal.ForOrder(c.Request.Context(), orderID)
	if err != nil {
		h.log.Error("history lookup failed", zap.String("order_id", orderID), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "count": len(changes), "history": changes})
}

// OrderFeed upgrades to a WebSocket that receives the order list on every change
func (h *Handler) OrderFeed(c *gin.Context) {
	h.hub.ServeWS(c)
}
