package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"table-order/tablecode"
)

const (
	TableTokenHeader = "X-Table-Token"
	tableIDKey       = "tableID"
)

// TableSession binds the request to the table named in its QR token. The
// token comes from the X-Table-Token header, a Bearer header, or the t query
// parameter.
func TableSession(signer *tablecode.Signer, dir *tablecode.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tableToken(c)
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Table token required (scan the QR code on your table)"})
			c.Abort()
			return
		}
		claims, err := signer.Parse(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired table token"})
			c.Abort()
			return
		}
		if _, err := dir.Resolve(claims.Table); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Table " + claims.Table + " is not in service"})
			c.Abort()
			return
		}
		c.Set(tableIDKey, claims.Table)
		c.Next()
	}
}

func tableToken(c *gin.Context) string {
	if t := c.GetHeader(TableTokenHeader); t != "" {
		return t
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("t")
}

// GetTableID extracts the caller's table from context
func GetTableID(c *gin.Context) string {
	return c.GetString(tableIDKey)
}
