package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-order/models"
	"table-order/tablecode"
)

type recorded struct {
	method string
	path   string
	query  string
	body   map[string]any
	header http.Header
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone()}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			assert.NoError(t, json.Unmarshal(raw, &rec.body))
		}
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	dir := tablecode.NewDirectory([]models.Table{{ID: 1, Number: "A1", Capacity: 4}})
	return NewClient(srv.URL+"/api", 2*time.Second, dir, nil), &calls
}

const orderJSON = `{
	"id": 17,
	"tableId": 1,
	"status": "PENDING",
	"paymentStatus": "PAY_AT_RESTAURANT",
	"totalAmount": 178,
	"notes": "window",
	"createdAt": "2026-03-01T12:00:00Z",
	"table": {"id": 1, "number": "A1", "capacity": 4},
	"orderItems": [{
		"id": 1, "orderId": 17, "menuId": 5, "quantity": 2, "unitPrice": 89, "subtotal": 178, "notes": "no peanuts",
		"menu": {"id": 5, "name": "Pad Thai", "fullPrice": 120, "promotionPrice": 79, "isPromotion": true, "category": "main", "isAvailable": true}
	}]
}`

func TestFetchMenuDerivesPrice(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "data": [
			{"id": 1, "name": "Pad Thai", "description": null, "fullPrice": 120, "promotionPrice": 89, "isPromotion": true, "image": "pad.jpg", "category": "main", "isAvailable": true},
			{"id": 2, "name": "Tea", "fullPrice": 30, "promotionPrice": 20, "isPromotion": false, "category": "drink", "isAvailable": false}
		]}`)
	})

	items, err := c.FetchMenu(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "1", items[0].ID)
	assert.True(t, decimal.NewFromInt(89).Equal(items[0].Price))
	assert.True(t, decimal.NewFromInt(120).Equal(*items[0].OriginalPrice))
	assert.Equal(t, "", items[0].Description)
	assert.Equal(t, "pad.jpg", items[0].Image)

	assert.True(t, decimal.NewFromInt(30).Equal(items[1].Price), "promotion price ignored when not on promotion")
	assert.True(t, items[1].Price.Equal(*items[1].OriginalPrice))
	assert.False(t, items[1].Available)

	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/menu", (*calls)[0].path)
	assert.NotEmpty(t, (*calls)[0].header.Get("X-Request-ID"))
}

func TestCreateOrder(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"success": true, "data": `+orderJSON+`}`)
	})

	ctx := WithRequestID(context.Background(), "req-1")
	order, err := c.CreateOrder(ctx, models.PlaceOrderRequest{
		TableID:       "a1",
		Items:         []models.LineItem{{ItemID: "5", Quantity: 2, Notes: "no peanuts"}},
		Notes:         "window",
		PaymentStatus: models.PaymentAtRestaurant,
	})
	require.NoError(t, err)

	assert.Equal(t, "17", order.ID)
	assert.Equal(t, "A1", order.TableID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentAtRestaurant, order.PaymentStatus)
	assert.True(t, decimal.NewFromInt(178).Equal(order.Total))
	require.Len(t, order.Items, 1)
	assert.True(t, decimal.NewFromInt(89).Equal(order.Items[0].Price), "line price is the stored unit price")
	assert.Equal(t, "no peanuts", order.Items[0].Notes)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.method)
	assert.Equal(t, "/api/orders", call.path)
	assert.Equal(t, "req-1", call.header.Get("X-Request-ID"))
	assert.Equal(t, float64(1), call.body["tableId"])
	assert.Equal(t, "PAY_AT_RESTAURANT", call.body["paymentStatus"])
	items := call.body["items"].([]any)
	assert.Equal(t, float64(5), items[0].(map[string]any)["menuId"])
}

func TestCreateOrderUnknownTableNeverReachesBackend(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})
	_, err := c.CreateOrder(context.Background(), models.PlaceOrderRequest{
		TableID: "garden",
		Items:   []models.LineItem{{ItemID: "5", Quantity: 1}},
	})
	assert.ErrorIs(t, err, tablecode.ErrUnknownTable)
	assert.Empty(t, *calls)
}

func TestFetchOrdersFiltersAndSkipsUnknownStatus(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "data": [`+orderJSON+`,
			{"id": 18, "tableId": 9, "status": "CANCELLED", "paymentStatus": "CANCELLED", "totalAmount": 0, "createdAt": "2026-03-01T12:00:00Z", "orderItems": []},
			{"id": 19, "tableId": 9, "status": "SERVED", "paymentStatus": "CANCELLED", "paymentMethod": "BANK_TRANSFER", "paymentSlip": "s.jpg", "totalAmount": 50, "createdAt": "2026-03-01T13:00:00Z", "orderItems": []}
		]}`)
	})

	orders, err := c.FetchOrders(context.Background(), models.OrderFilter{Status: models.StatusServed, PaymentStatus: models.PaymentUnpaid, Limit: 20})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "17", orders[0].ID)
	o := orders[1]
	assert.Equal(t, "T009", o.TableID)
	assert.Equal(t, models.PaymentUnpaid, o.PaymentStatus, "CANCELLED payment reads as unpaid")
	assert.Equal(t, models.MethodBankTransfer, o.PaymentMethod)
	assert.Equal(t, "s.jpg", o.PaymentSlip)

	assert.Equal(t, "/api/admin/orders", (*calls)[0].path)
	assert.Equal(t, "limit=20&paymentStatus=UNPAID&status=SERVED", (*calls)[0].query)
}

func TestFetchTableOrders(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "data": [`+orderJSON+`]}`)
	})

	orders, err := c.FetchTableOrders(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "A1", orders[0].TableID)
	assert.Equal(t, "/api/orders/table/1", (*calls)[0].path)

	_, err = c.FetchTableOrders(context.Background(), "garden")
	assert.ErrorIs(t, err, tablecode.ErrUnknownTable)
	assert.Len(t, *calls, 1)
}

func TestUpdateCalls(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "message": "ok"}`)
	})
	ctx := context.Background()

	require.NoError(t, c.UpdateOrderStatus(ctx, "17", models.StatusConfirmed))
	require.NoError(t, c.UpdatePaymentStatus(ctx, "17", models.PaymentUpdate{
		Status: models.PaymentPendingVerification,
		Method: models.MethodBankTransfer,
		Slip:   "data:image/png;base64,AAAA",
	}))
	require.NoError(t, c.UpdatePaymentStatus(ctx, "17", models.PaymentUpdate{Status: models.PaymentPaid}))

	require.Len(t, *calls, 3)
	assert.Equal(t, "/api/admin/orders/17/status", (*calls)[0].path)
	assert.Equal(t, "CONFIRMED", (*calls)[0].body["status"])
	assert.Equal(t, "/api/admin/orders/17/payment", (*calls)[1].path)
	assert.Equal(t, "PENDING_VERIFICATION", (*calls)[1].body["paymentStatus"])
	assert.Equal(t, "BANK_TRANSFER", (*calls)[1].body["paymentMethod"])
	_, hasMethod := (*calls)[2].body["paymentMethod"]
	assert.False(t, hasMethod, "absent method is omitted")

	assert.ErrorIs(t, c.UpdateOrderStatus(ctx, "abc", models.StatusConfirmed), ErrInvalidID)
}

func TestBackendErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json error field", http.StatusBadRequest, `{"success": false, "error": "Menu item not found"}`, "Menu item not found"},
		{"html page", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP error! status: 502"},
		{"empty body", http.StatusInternalServerError, ``, "HTTP error! status: 500"},
		{"success false on 200", http.StatusOK, `{"success": false, "message": "closed"}`, "closed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})
			_, err := c.FetchSettings(context.Background())
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "data": {"id": 1, "name": "Baan Thai", "primaryColor": "#f00", "secondaryColor": "#0f0", "accentColor": "#00f", "bankName": "KBank", "bankAccountNumber": "123"}}`)
	})

	saved, err := c.UpdateSettings(context.Background(), models.BrandSettings{
		RestaurantName: "Baan Thai",
		PrimaryColor:   "#f00",
		BankAccount:    models.BankAccount{BankName: "KBank", AccountNumber: "123"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Baan Thai", saved.RestaurantName)
	assert.Equal(t, "KBank", saved.BankAccount.BankName)
	assert.Equal(t, "", saved.Logo)

	assert.Equal(t, http.MethodPut, (*calls)[0].method)
	assert.Equal(t, "/api/admin/restaurant/settings", (*calls)[0].path)
	assert.Equal(t, "Baan Thai", (*calls)[0].body["name"])
	assert.Nil(t, (*calls)[0].body["logo"])
}

func TestSaveMenuItem(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success": true, "data": {"id": 9, "name": "Som Tam", "fullPrice": 80, "promotionPrice": 60, "isPromotion": true, "category": "salad", "isAvailable": true}}`)
	})
	original := decimal.NewFromInt(80)
	item := models.MenuItem{Name: "Som Tam", Price: decimal.NewFromInt(60), OriginalPrice: &original, IsOnPromotion: true, Category: "salad", Available: true}

	saved, err := c.SaveMenuItem(context.Background(), item)
	require.NoError(t, err)
	assert.Equal(t, "9", saved.ID)

	item.ID = "9"
	_, err = c.SaveMenuItem(context.Background(), item)
	require.NoError(t, err)

	require.Len(t, *calls, 2)
	assert.Equal(t, http.MethodPost, (*calls)[0].method)
	assert.Equal(t, "/api/admin/menu", (*calls)[0].path)
	assert.Equal(t, float64(80), (*calls)[0].body["fullPrice"])
	assert.Equal(t, float64(60), (*calls)[0].body["promotionPrice"])
	assert.Equal(t, http.MethodPut, (*calls)[1].method)
	assert.Equal(t, "/api/admin/menu/9", (*calls)[1].path)
}

func TestEnumMapping(t *testing.T) {
	for _, s := range []models.OrderStatus{models.StatusPending, models.StatusConfirmed, models.StatusPreparing, models.StatusReady, models.StatusServed, models.StatusCompleted} {
		api, err := StatusToAPI(s)
		require.NoError(t, err)
		back, err := StatusFromAPI(api)
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}
	_, err := StatusFromAPI("CANCELLED")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Equal(t, models.PaymentUnpaid, PaymentFromAPI("CANCELLED"))
	assert.Equal(t, models.PaymentAtRestaurant, PaymentFromAPI("PAY_AT_RESTAURANT"))
	assert.Equal(t, models.MethodQRCode, MethodFromAPI("QR_CODE"))
	assert.Equal(t, models.PaymentMethod(""), MethodFromAPI(""))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "table closed", errorMessage(409, []byte(`{"success": false, "error": "table closed", "message": "ignored"}`)))
	assert.Equal(t, "Order not found", errorMessage(404, []byte(`{"success": false, "message": "Order not found"}`)))
	assert.Equal(t, "HTTP error! status: 500", errorMessage(500, []byte(`{"success": false}`)))
	assert.Equal(t, "HTTP error! status: 502", errorMessage(502, nil))
	assert.Equal(t, "HTTP error! status: 503", errorMessage(503, []byte("<html>")))
}

func TestAmountIsAlwaysANumber(t *testing.T) {
	require.False(t, decimal.MarshalJSONWithoutQuotes)
	raw, err := json.Marshal(menuItemToAPI(models.MenuItem{
		Name:          "Pad Thai",
		Price:         decimal.RequireFromString("79.50"),
		OriginalPrice: func() *decimal.Decimal { d := decimal.NewFromInt(120); return &d }(),
		IsOnPromotion: true,
	}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fullPrice":120`)
	assert.Contains(t, string(raw), `"promotionPrice":79.5`)
}
