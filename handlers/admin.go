package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"table-order/report"
)

// GetSalesReport aggregates the known orders for a range.
// ?range=today|week|month|quarter, or ?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *Handler) GetSalesReport(c *gin.Context) {
	now := h.now()

	var (
		r   report.Range
		err error
	)
	if start, end := c.Query("start"), c.Query("end"); start != "" || end != "" {
		r, err = report.CustomRange(start, end, time.Local)
	} else {
		r, err = report.RangeFor(c.Query("range"), now)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report.Sales(h.engine.Orders(), r, now)})
}
