package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"table-order/models"
)

type tableQR struct {
	Table models.Table `json:"table"`
	Token string       `json:"token"`
	URL   string       `json:"url"`
}

// ListTables returns every table the gateway can serve
func (h *Handler) ListTables(c *gin.Context) {
	tables := h.dir.Tables()
	c.JSON(http.StatusOK, gin.H{"count": len(tables), "tables": tables})
}

// GetTableQR issues the signed token and link printed on a table's QR code
func (h *Handler) GetTableQR(c *gin.Context) {
	table, ok := h.dir.Lookup(c.Param("number"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
		return
	}
	token, err := h.signer.Issue(table)
	if err != nil {
		h.log.Error("table token signing failed", zap.String("table", table.Number), zap.Error(err))
		respondError(c, err)
		return
	}
	link := strings.TrimRight(h.publicURL, "/") + "/table/" + url.PathEscape(table.Number) + "?t=" + url.QueryEscape(token)
	c.JSON(http.StatusOK, tableQR{Table: table, Token: token, URL: link})
}
