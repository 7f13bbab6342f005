package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"table-order/models"
)

// ── Menu Management ──────────────────────────────────────────────────────────

type MenuItemRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"original_price"`
	IsOnPromotion bool             `json:"is_on_promotion"`
	Image         string           `json:"image"`
	Category      string           `json:"category"`
	Available     *bool            `json:"available"`
}

func (r MenuItemRequest) item(id string) models.MenuItem {
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return models.MenuItem{
		ID:            id,
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		IsOnPromotion: r.IsOnPromotion,
		Image:         r.Image,
		Category:      r.Category,
		Available:     available,
	}
}

// AddMenuItem creates a menu item
func (h *Handler) AddMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.store.SaveMenuItem(c.Request.Context(), req.item(""))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem replaces an existing menu item
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	var req MenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.store.SaveMenuItem(c.Request.Context(), req.item(c.Param("itemId")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

type AvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetMenuItemAvailability hides or shows an item without deleting it
func (h *Handler) SetMenuItemAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.store.SetAvailability(c.Request.Context(), c.Param("itemId"), *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Menu item marked unavailable"
	if item.Available {
		msg = "Menu item marked available"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "item": item})
}

// ── Restaurant Settings ──────────────────────────────────────────────────────

// UpdateSettings replaces the brand settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req models.BrandSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved, err := h.store.SaveSettings(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated", "settings": saved})
}
