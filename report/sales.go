// Package report aggregates the order list into sales figures for staff.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"table-order/models"
)

var ErrUnknownRange = errors.New("unknown report range")

const (
	topItems  = 5
	dailyDays = 7
	dayLayout = "2006-01-02"
)

// Range is a half-open window [From, To). A zero To means open-ended.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to,omitempty"`
}

func (r Range) contains(t time.Time) bool {
	if t.Before(r.From) {
		return false
	}
	return r.To.IsZero() || t.Before(r.To)
}

// RangeFor maps a named range to its window ending now.
// "today" starts at local midnight; week, month and quarter go back 7, 30 and 90 days.
func RangeFor(id string, now time.Time) (Range, error) {
	switch id {
	case "today":
		y, m, d := now.Date()
		return Range{From: time.Date(y, m, d, 0, 0, 0, 0, now.Location())}, nil
	case "week", "":
		return Range{From: now.AddDate(0, 0, -7)}, nil
	case "month":
		return Range{From: now.AddDate(0, 0, -30)}, nil
	case "quarter":
		return Range{From: now.AddDate(0, 0, -90)}, nil
	}
	return Range{}, fmt.Errorf("%w: %q", ErrUnknownRange, id)
}

// CustomRange covers whole days from start through end, both YYYY-MM-DD
func CustomRange(start, end string, loc *time.Location) (Range, error) {
	from, err := time.ParseInLocation(dayLayout, start, loc)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start %q", ErrUnknownRange, start)
	}
	to, err := time.ParseInLocation(dayLayout, end, loc)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end %q", ErrUnknownRange, end)
	}
	if to.Before(from) {
		return Range{}, fmt.Errorf("%w: end before start", ErrUnknownRange)
	}
	return Range{From: from, To: to.AddDate(0, 0, 1)}, nil
}

type ItemSales struct {
	ItemID   string          `json:"item_id"`
	Name     string          `json:"name"`
	Image    string          `json:"image,omitempty"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type PaymentMethodCounts struct {
	QRCode          int `json:"qr_code"`
	BankTransfer    int `json:"bank_transfer"`
	PayAtRestaurant int `json:"pay_at_restaurant"`
}

type DailySales struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

type SalesReport struct {
	Range          Range               `json:"range"`
	TotalRevenue   decimal.Decimal     `json:"total_revenue"`
	TotalOrders    int                 `json:"total_orders"`
	AvgOrderValue  decimal.Decimal     `json:"avg_order_value"`
	BestSelling    []ItemSales         `json:"best_selling"`
	PaymentMethods PaymentMethodCounts `json:"payment_methods"`
	DailySales     []DailySales        `json:"daily_sales"`
}

// Sales aggregates the orders placed inside r. The daily series always
// covers the seven UTC days ending at now, restricted to orders inside r.
func Sales(orders []models.Order, r Range, now time.Time) SalesReport {
	rep := SalesReport{
		Range:         r,
		TotalRevenue:  decimal.Zero,
		AvgOrderValue: decimal.Zero,
		BestSelling:   []ItemSales{},
	}

	byItem := map[string]*ItemSales{}
	daily := map[string]decimal.Decimal{}
	days := make([]string, 0, dailyDays)
	for i := dailyDays - 1; i >= 0; i-- {
		day := now.UTC().AddDate(0, 0, -i).Format(dayLayout)
		days = append(days, day)
		daily[day] = decimal.Zero
	}

	for _, o := range orders {
		if !r.contains(o.Timestamp) {
			continue
		}
		rep.TotalOrders++
		rep.TotalRevenue = rep.TotalRevenue.Add(o.Total)

		for _, it := range o.Items {
			s, ok := byItem[it.ID]
			if !ok {
				s = &ItemSales{ItemID: it.ID, Name: it.Name, Image: it.Image, Revenue: decimal.Zero}
				byItem[it.ID] = s
			}
			s.Quantity += it.Quantity
			s.Revenue = s.Revenue.Add(it.LineTotal())
		}

		switch o.PaymentMethod {
		case models.MethodQRCode:
			rep.PaymentMethods.QRCode++
		case models.MethodBankTransfer:
			rep.PaymentMethods.BankTransfer++
		}
		if o.PaymentStatus == models.PaymentAtRestaurant {
			rep.PaymentMethods.PayAtRestaurant++
		}

		day := o.Timestamp.UTC().Format(dayLayout)
		if v, ok := daily[day]; ok {
			daily[day] = v.Add(o.Total)
		}
	}

	if rep.TotalOrders > 0 {
		rep.AvgOrderValue = rep.TotalRevenue.Div(decimal.NewFromInt(int64(rep.TotalOrders))).Round(2)
	}

	for _, s := range byItem {
		rep.BestSelling = append(rep.BestSelling, *s)
	}
	sort.SliceStable(rep.BestSelling, func(i, j int) bool {
		a, b := rep.BestSelling[i], rep.BestSelling[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.ItemID < b.ItemID
	})
	if len(rep.BestSelling) > topItems {
		rep.BestSelling = rep.BestSelling[:topItems]
	}

	rep.DailySales = make([]DailySales, len(days))
	for i, day := range days {
		rep.DailySales[i] = DailySales{Date: day, Revenue: daily[day]}
	}
	return rep
}
