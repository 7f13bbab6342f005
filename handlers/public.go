package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"table-order/models"
	"table-order/statemachine"
)

// Health reports liveness and how many dashboards are listening
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"service":      "Table Order Gateway",
		"feed_clients": h.hub.Clients(),
	})
}

// GetMenu returns the catalog. Supports ?category= and ?available=true.
func (h *Handler) GetMenu(c *gin.Context) {
	items := h.store.Menu()

	category := strings.TrimSpace(c.Query("category"))
	onlyAvailable := c.Query("available") == "true"
	filtered := make([]models.MenuItem, 0, len(items))
	for _, it := range items {
		if category != "" && !strings.EqualFold(it.Category, category) {
			continue
		}
		if onlyAvailable && !it.Available {
			continue
		}
		filtered = append(filtered, it)
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant": h.store.Settings().RestaurantName,
		"count":      len(filtered),
		"menu":       filtered,
	})
}

func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.store.Settings()})
}

// GetStateMachineInfo returns both state machines for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":         statemachine.GetAllTransitions(),
		"payment_state_machine": statemachine.GetAllPaymentTransitions(),
		"terminal_states":       []models.OrderStatus{models.StatusCompleted},
		"guard":                 "pending and confirmed orders advance only when payment is paid or pay_at_restaurant",
		"description":           "Table Order Lifecycle State Machine",
	})
}
