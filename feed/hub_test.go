package feed

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-order/models"
)

func TestHubBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	hub.Broadcast([]models.Order{{ID: "1", Status: models.StatusPending}})

	r := gin.New()
	r.GET("/feed", hub.ServeWS)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first Message
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "orders", first.Type)
	require.Len(t, first.Orders, 1)
	assert.Equal(t, "1", first.Orders[0].ID)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Broadcast([]models.Order{{ID: "1", Status: models.StatusConfirmed}, {ID: "2", Status: models.StatusPending}})

	var second Message
	require.NoError(t, conn.ReadJSON(&second))
	require.Len(t, second.Orders, 2)
	assert.Equal(t, models.StatusConfirmed, second.Orders[0].Status)

	hub.Close()
	assert.Equal(t, 0, hub.Clients())
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "connection should be closed by the hub")
}
