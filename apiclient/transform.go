package apiclient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"table-order/models"
	"table-order/tablecode"
)

var (
	ErrUnknownStatus = errors.New("unknown status value")
	ErrInvalidID     = errors.New("invalid id")
)

var statusToAPI = map[models.OrderStatus]string{
	models.StatusPending:   "PENDING",
	models.StatusConfirmed: "CONFIRMED",
	models.StatusPreparing: "PREPARING",
	models.StatusReady:     "READY",
	models.StatusServed:    "SERVED",
	models.StatusCompleted: "COMPLETED",
}

var paymentToAPI = map[models.PaymentStatus]string{
	models.PaymentUnpaid:              "UNPAID",
	models.PaymentPendingVerification: "PENDING_VERIFICATION",
	models.PaymentPaid:                "PAID",
	models.PaymentAtRestaurant:        "PAY_AT_RESTAURANT",
}

var methodToAPI = map[models.PaymentMethod]string{
	models.MethodQRCode:       "QR_CODE",
	models.MethodBankTransfer: "BANK_TRANSFER",
}

func invert[K comparable, V comparable](m map[K]V) map[V]K {
	out := make(map[V]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

var (
	statusFromAPI  = invert(statusToAPI)
	paymentFromAPI = invert(paymentToAPI)
	methodFromAPI  = invert(methodToAPI)
)

func StatusToAPI(s models.OrderStatus) (string, error) {
	v, ok := statusToAPI[s]
	if !ok {
		return "", fmt.Errorf("%w: order status %q", ErrUnknownStatus, s)
	}
	return v, nil
}

func StatusFromAPI(s string) (models.OrderStatus, error) {
	v, ok := statusFromAPI[strings.ToUpper(s)]
	if !ok {
		return "", fmt.Errorf("%w: order status %q", ErrUnknownStatus, s)
	}
	return v, nil
}

func PaymentToAPI(s models.PaymentStatus) (string, error) {
	v, ok := paymentToAPI[s]
	if !ok {
		return "", fmt.Errorf("%w: payment status %q", ErrUnknownStatus, s)
	}
	return v, nil
}

// PaymentFromAPI maps backend payment states. CANCELLED and anything
// unrecognised read as unpaid.
func PaymentFromAPI(s string) models.PaymentStatus {
	if v, ok := paymentFromAPI[strings.ToUpper(s)]; ok {
		return v
	}
	return models.PaymentUnpaid
}

func MethodToAPI(m models.PaymentMethod) (string, error) {
	if m == "" {
		return "", nil
	}
	v, ok := methodToAPI[m]
	if !ok {
		return "", fmt.Errorf("%w: payment method %q", ErrUnknownStatus, m)
	}
	return v, nil
}

func MethodFromAPI(s string) models.PaymentMethod {
	return methodFromAPI[strings.ToUpper(s)]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return n, nil
}

// menuItemFromAPI derives the sale price from the promotion fields.
// OriginalPrice is always the full price.
func menuItemFromAPI(a apiMenuItem) models.MenuItem {
	price := a.FullPrice
	if a.IsPromotion && a.PromotionPrice != nil && !a.PromotionPrice.IsZero() {
		price = *a.PromotionPrice
	}
	original := a.FullPrice
	return models.MenuItem{
		ID:            strconv.FormatInt(a.ID, 10),
		Name:          a.Name,
		Description:   deref(a.Description),
		Price:         price,
		OriginalPrice: &original,
		IsOnPromotion: a.IsPromotion,
		Image:         deref(a.Image),
		Category:      a.Category,
		Available:     a.IsAvailable,
	}
}

func menuItemToAPI(m models.MenuItem) menuItemRequest {
	req := menuItemRequest{
		Name:        m.Name,
		Description: m.Description,
		FullPrice:   amount{m.ReferencePrice()},
		IsPromotion: m.IsOnPromotion,
		Image:       m.Image,
		Category:    m.Category,
		IsAvailable: m.Available,
	}
	if m.IsOnPromotion {
		req.PromotionPrice = &amount{m.Price}
	}
	return req
}

// orderFromAPI converts a backend order. Line prices come from the unit
// price stored at placement, not the current menu price.
func orderFromAPI(a apiOrder, dir *tablecode.Directory) (models.Order, error) {
	status, err := StatusFromAPI(a.Status)
	if err != nil {
		return models.Order{}, fmt.Errorf("order %d: %w", a.ID, err)
	}

	tableID := ""
	if a.Table != nil && a.Table.Number != "" {
		dir.Learn(models.Table{ID: a.Table.ID, Number: a.Table.Number, Capacity: a.Table.Capacity})
		tableID = a.Table.Number
	} else {
		tableID = dir.Number(a.TableID)
	}

	items := make([]models.CartItem, 0, len(a.OrderItems))
	for _, it := range a.OrderItems {
		mi := menuItemFromAPI(it.Menu)
		if it.Menu.ID == 0 {
			mi.ID = strconv.FormatInt(it.MenuID, 10)
		}
		if !it.UnitPrice.IsZero() {
			mi.Price = it.UnitPrice
		}
		items = append(items, models.CartItem{MenuItem: mi, Quantity: it.Quantity, Notes: deref(it.Notes)})
	}

	return models.Order{
		ID:            strconv.FormatInt(a.ID, 10),
		TableID:       tableID,
		Items:         items,
		Total:         a.TotalAmount,
		Status:        status,
		PaymentStatus: PaymentFromAPI(a.PaymentStatus),
		PaymentMethod: MethodFromAPI(deref(a.PaymentMethod)),
		PaymentSlip:   deref(a.PaymentSlip),
		Timestamp:     a.CreatedAt,
		Notes:         deref(a.Notes),
	}, nil
}

func orderRequestToAPI(req models.PlaceOrderRequest, dir *tablecode.Directory) (createOrderRequest, error) {
	tableID, err := dir.Resolve(req.TableID)
	if err != nil {
		return createOrderRequest{}, err
	}
	payment := ""
	if req.PaymentStatus != "" {
		if payment, err = PaymentToAPI(req.PaymentStatus); err != nil {
			return createOrderRequest{}, err
		}
	}

	out := createOrderRequest{
		TableID:       tableID,
		Items:         make([]createOrderItem, len(req.Items)),
		Notes:         req.Notes,
		PaymentStatus: payment,
	}
	for i, it := range req.Items {
		menuID, err := parseID(it.ItemID)
		if err != nil {
			return createOrderRequest{}, fmt.Errorf("menu item: %w", err)
		}
		out.Items[i] = createOrderItem{MenuID: menuID, Quantity: it.Quantity, Notes: it.Notes}
	}
	return out, nil
}

func settingsFromAPI(a apiSettings) models.BrandSettings {
	return models.BrandSettings{
		RestaurantName: a.Name,
		Description:    deref(a.Description),
		Logo:           deref(a.Logo),
		PrimaryColor:   a.PrimaryColor,
		SecondaryColor: a.SecondaryColor,
		AccentColor:    a.AccentColor,
		Phone:          deref(a.Phone),
		Address:        deref(a.Address),
		BankAccount: models.BankAccount{
			AccountName:   deref(a.BankAccountName),
			AccountNumber: deref(a.BankAccountNumber),
			BankName:      deref(a.BankName),
		},
	}
}

func settingsToAPI(s models.BrandSettings) apiSettings {
	return apiSettings{
		Name:              s.RestaurantName,
		Logo:              optional(s.Logo),
		PrimaryColor:      s.PrimaryColor,
		SecondaryColor:    s.SecondaryColor,
		AccentColor:       s.AccentColor,
		Address:           optional(s.Address),
		Phone:             optional(s.Phone),
		Description:       optional(s.Description),
		BankAccountName:   optional(s.BankAccount.AccountName),
		BankAccountNumber: optional(s.BankAccount.AccountNumber),
		BankName:          optional(s.BankAccount.BankName),
	}
}
