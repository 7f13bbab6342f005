package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-order/middleware"
	"table-order/models"
	"table-order/statemachine"
)

// GetCart returns the table's cart with live totals
func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.CartView(middleware.GetTableID(c)))
}

type AddCartItemRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Notes    string `json:"notes"`
}

// AddCartItem adds a menu item, merging with an existing line
func (h *Handler) AddCartItem(c *gin.Context) {
	tableID := middleware.GetTableID(c)
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.AddToCart(tableID, req.ItemID, req.Quantity, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item added to cart", "cart": h.store.CartView(tableID)})
}

type UpdateCartItemRequest struct {
	Quantity *int    `json:"quantity" binding:"required"`
	Notes    *string `json:"notes"`
}

// UpdateCartItem sets a line's quantity; zero removes the line
func (h *Handler) UpdateCartItem(c *gin.Context) {
	tableID := middleware.GetTableID(c)
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.UpdateCartItem(tableID, c.Param("itemId"), *req.Quantity, req.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "cart": h.store.CartView(tableID)})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	tableID := middleware.GetTableID(c)
	h.store.RemoveFromCart(tableID, c.Param("itemId"))
	c.JSON(http.StatusOK, gin.H{"message": "Item removed", "cart": h.store.CartView(tableID)})
}

func (h *Handler) ClearCart(c *gin.Context) {
	tableID := middleware.GetTableID(c)
	h.store.ClearCart(tableID)
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "cart": h.store.CartView(tableID)})
}

type CheckoutRequest struct {
	PaymentChoice models.PaymentChoice `json:"payment_choice" binding:"required"`
	Notes         string               `json:"notes"`
}

// Checkout places the table's cart as an order. The cart survives a failed placement.
func (h *Handler) Checkout(c *gin.Context) {
	tableID := middleware.GetTableID(c)
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	order, err := h.store.Checkout(c.Request.Context(), tableID, req.PaymentChoice, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetCurrentOrder returns the table's active order for the tracking screen
func (h *Handler) GetCurrentOrder(c *gin.Context) {
	order, ok := h.engine.CurrentOrder(middleware.GetTableID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active order for this table"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":             order,
		"valid_next_states": nextStates(order),
	})
}

func nextStates(o models.Order) gin.H {
	return gin.H{
		"status":         statemachine.ValidTransitionsFrom(o.Status),
		"payment_status": statemachine.ValidPaymentTransitionsFrom(o.PaymentStatus),
	}
}

// GetTableOrders lists every order the table has placed
func (h *Handler) GetTableOrders(c *gin.Context) {
	orders, err := h.store.TableOrders(c.Request.Context(), middleware.GetTableID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

type PaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" binding:"required"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	PaymentSlip   string               `json:"payment_slip"`
}

func (r PaymentRequest) update() models.PaymentUpdate {
	return models.PaymentUpdate{Status: r.PaymentStatus, Method: r.PaymentMethod, Slip: r.PaymentSlip}
}

// SubmitPayment lets a table pay online for one of its own orders
func (h *Handler) SubmitPayment(c *gin.Context) {
	tableID := middleware.GetTableID(c)
	orderID := c.Param("id")

	order, ok := h.engine.Order(orderID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if order.TableID != tableID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This order does not belong to your table"})
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.engine.SetPaymentStatus(c.Request.Context(), orderID, req.update(), "customer")
	if err != nil {
		respondPaymentError(c, order, req.PaymentStatus, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":                 "Payment updated",
		"order_id":                updated.ID,
		"previous_payment_status": order.PaymentStatus,
		"payment_status":          updated.PaymentStatus,
		"order":                   updated,
	})
}
