package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"table-order/handlers"
	"table-order/middleware"
	"table-order/tablecode"
)

// Setup registers every gateway route. metrics may be nil.
func Setup(r *gin.Engine, h *handlers.Handler, signer *tablecode.Signer, dir *tablecode.Directory, metrics http.Handler) {
	r.GET("/health", h.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.GET("/menu", h.GetMenu)
		public.GET("/settings", h.GetSettings)
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Table session routes (QR token) ────────────────────────────
	session := r.Group("/api/session")
	session.Use(middleware.TableSession(signer, dir))
	{
		session.GET("/cart", h.GetCart)
		session.POST("/cart/items", h.AddCartItem)
		session.PUT("/cart/items/:itemId", h.UpdateCartItem)
		session.DELETE("/cart/items/:itemId", h.RemoveCartItem)
		session.DELETE("/cart", h.ClearCart)

		session.POST("/orders", h.Checkout)
		session.GET("/orders", h.GetTableOrders)
		session.GET("/orders/current", h.GetCurrentOrder)
		session.PUT("/orders/:id/payment", h.SubmitPayment)
	}

	// ── Staff routes ───────────────────────────────────────────────
	staff := r.Group("/api/staff")
	{
		staff.GET("/orders", h.GetRestaurantOrders)
		staff.GET("/orders/feed", h.OrderFeed)
		staff.GET("/orders/:id", h.GetRestaurantOrder)
		staff.POST("/orders/:id/advance", h.AdvanceOrder)
		staff.PUT("/orders/:id/payment", h.UpdateOrderPayment)
		staff.POST("/orders/:id/complete", h.CompleteOrder)
		staff.GET("/orders/:id/history", h.GetOrderHistory)

		staff.POST("/menu", h.AddMenuItem)
		staff.PUT("/menu/:itemId", h.UpdateMenuItem)
		staff.PUT("/menu/:itemId/availability", h.SetMenuItemAvailability)
		staff.PUT("/settings", h.UpdateSettings)

		staff.GET("/tables", h.ListTables)
		staff.GET("/tables/:number/qr", h.GetTableQR)

		staff.GET("/reports/sales", h.GetSalesReport)
	}
}
