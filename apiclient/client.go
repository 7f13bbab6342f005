// Package apiclient talks to the restaurant backend over HTTP/JSON and
// converts its payloads into the gateway's models.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"table-order/models"
	"table-order/tablecode"
)

const maxBody = 10 << 20

var ErrInvalidResponse = errors.New("invalid backend response")

// APIError is a non-success answer from the backend
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

type ctxKey struct{}

// WithRequestID makes outgoing calls reuse an inbound request id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	dir        *tablecode.Directory
	log        *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, dir *tablecode.Directory, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		dir:        dir,
		log:        log,
	}
}

// call performs one request and decodes the envelope's data into T
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return zero, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rid := requestID(ctx)
	req.Header.Set("X-Request-ID", rid)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return zero, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.log.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", rid),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		if msg == "" {
			msg = "request was not successful"
		}
		return zero, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return env.Data, nil
}

// errorMessage prefers the JSON "error" field of an error body, then "message"
func errorMessage(status int, raw []byte) string {
	fallback := fmt.Sprintf("HTTP error! status: %d", status)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return fallback
	}
	if trimmed[0] == '{' {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(trimmed, &body); err == nil {
			if body.Error != "" {
				return body.Error
			}
			if body.Message != "" {
				return body.Message
			}
			return fallback
		}
		return string(trimmed)
	}
	return fallback
}

func (c *Client) FetchMenu(ctx context.Context) ([]models.MenuItem, error) {
	items, err := call[[]apiMenuItem](ctx, c, http.MethodGet, "/menu", nil, nil)
	if err != nil {
		return nil, err
	}
	out := make([]models.MenuItem, len(items))
	for i, it := range items {
		out[i] = menuItemFromAPI(it)
	}
	return out, nil
}

// SaveMenuItem creates the item when its id is empty, otherwise updates it
func (c *Client) SaveMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	body := menuItemToAPI(item)
	var (
		saved apiMenuItem
		err   error
	)
	if item.ID == "" {
		saved, err = call[apiMenuItem](ctx, c, http.MethodPost, "/admin/menu", nil, body)
	} else {
		id, perr := parseID(item.ID)
		if perr != nil {
			return models.MenuItem{}, perr
		}
		saved, err = call[apiMenuItem](ctx, c, http.MethodPut, "/admin/menu/"+strconv.FormatInt(id, 10), nil, body)
	}
	if err != nil {
		return models.MenuItem{}, err
	}
	return menuItemFromAPI(saved), nil
}

func (c *Client) FetchSettings(ctx context.Context) (models.BrandSettings, error) {
	s, err := call[apiSettings](ctx, c, http.MethodGet, "/restaurant/settings", nil, nil)
	if err != nil {
		return models.BrandSettings{}, err
	}
	return settingsFromAPI(s), nil
}

func (c *Client) UpdateSettings(ctx context.Context, s models.BrandSettings) (models.BrandSettings, error) {
	saved, err := call[apiSettings](ctx, c, http.MethodPut, "/admin/restaurant/settings", nil, settingsToAPI(s))
	if err != nil {
		return models.BrandSettings{}, err
	}
	return settingsFromAPI(saved), nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.PlaceOrderRequest) (models.Order, error) {
	body, err := orderRequestToAPI(req, c.dir)
	if err != nil {
		return models.Order{}, err
	}
	created, err := call[apiOrder](ctx, c, http.MethodPost, "/orders", nil, body)
	if err != nil {
		return models.Order{}, err
	}
	return orderFromAPI(created, c.dir)
}

// FetchOrders lists orders for staff. Orders whose status the gateway does
// not model are skipped.
func (c *Client) FetchOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	q := url.Values{}
	if f.Status != "" {
		s, err := StatusToAPI(f.Status)
		if err != nil {
			return nil, err
		}
		q.Set("status", s)
	}
	if f.PaymentStatus != "" {
		s, err := PaymentToAPI(f.PaymentStatus)
		if err != nil {
			return nil, err
		}
		q.Set("paymentStatus", s)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	raw, err := call[[]apiOrder](ctx, c, http.MethodGet, "/admin/orders", q, nil)
	if err != nil {
		return nil, err
	}
	return c.convertOrders(raw), nil
}

// FetchTableOrders lists the orders of one table
func (c *Client) FetchTableOrders(ctx context.Context, tableCode string) ([]models.Order, error) {
	id, err := c.dir.Resolve(tableCode)
	if err != nil {
		return nil, err
	}
	raw, err := call[[]apiOrder](ctx, c, http.MethodGet, "/orders/table/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return nil, err
	}
	return c.convertOrders(raw), nil
}

func (c *Client) convertOrders(raw []apiOrder) []models.Order {
	out := make([]models.Order, 0, len(raw))
	for _, a := range raw {
		o, err := orderFromAPI(a, c.dir)
		if err != nil {
			c.log.Warn("skipping backend order", zap.Int64("order_id", a.ID), zap.Error(err))
			continue
		}
		out = append(out, o)
	}
	return out
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	id, err := parseID(orderID)
	if err != nil {
		return err
	}
	s, err := StatusToAPI(status)
	if err != nil {
		return err
	}
	_, err = call[json.RawMessage](ctx, c, http.MethodPut, fmt.Sprintf("/admin/orders/%d/status", id), nil, statusRequest{Status: s})
	return err
}

func (c *Client) UpdatePaymentStatus(ctx context.Context, orderID string, update models.PaymentUpdate) error {
	id, err := parseID(orderID)
	if err != nil {
		return err
	}
	status, err := PaymentToAPI(update.Status)
	if err != nil {
		return err
	}
	method, err := MethodToAPI(update.Method)
	if err != nil {
		return err
	}
	body := paymentRequest{PaymentStatus: status, PaymentMethod: method, PaymentSlip: update.Slip}
	_, err = call[json.RawMessage](ctx, c, http.MethodPut, fmt.Sprintf("/admin/orders/%d/payment", id), nil, body)
	return err
}
