// Package tablecode maps human table codes ("A1", "T004") to the backend's
// numeric table ids and signs the tokens printed in table QR codes.
package tablecode

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"table-order/models"
)

var ErrUnknownTable = errors.New("unknown table")

// Directory is the set of tables the gateway knows about. Entries come from
// configuration and from tables seen in backend order payloads.
type Directory struct {
	mu       sync.RWMutex
	byNumber map[string]models.Table
	byID     map[int64]models.Table
}

func NewDirectory(tables []models.Table) *Directory {
	d := &Directory{
		byNumber: make(map[string]models.Table),
		byID:     make(map[int64]models.Table),
	}
	for _, t := range tables {
		d.Learn(t)
	}
	return d
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Learn adds or replaces a table. Tables without an id or number are ignored.
func (d *Directory) Learn(t models.Table) {
	if t.ID <= 0 || strings.TrimSpace(t.Number) == "" {
		return
	}
	t.Number = strings.TrimSpace(t.Number)

	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.byID[t.ID]; ok && normalize(old.Number) != normalize(t.Number) {
		delete(d.byNumber, normalize(old.Number))
	}
	d.byNumber[normalize(t.Number)] = t
	d.byID[t.ID] = t
}

// Resolve turns a table code into the backend id. Known numbers match
// case-insensitively; otherwise only the canonical "T<digits>" form and bare
// digits are accepted. Anything else is ErrUnknownTable.
func (d *Directory) Resolve(code string) (int64, error) {
	key := normalize(code)
	if key == "" {
		return 0, fmt.Errorf("%w: empty code", ErrUnknownTable)
	}

	d.mu.RLock()
	t, ok := d.byNumber[key]
	d.mu.RUnlock()
	if ok {
		return t.ID, nil
	}

	digits := strings.TrimPrefix(key, "T")
	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTable, code)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrUnknownTable, code)
		}
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTable, code)
	}
	return id, nil
}

// Number is the inverse of Resolve. Unknown ids get the canonical T-code.
func (d *Directory) Number(id int64) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if t, ok := d.byID[id]; ok {
		return t.Number
	}
	return fmt.Sprintf("T%03d", id)
}

// Lookup finds a known table by code
func (d *Directory) Lookup(code string) (models.Table, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.byNumber[normalize(code)]
	return t, ok
}

// Tables lists known tables ordered by number
func (d *Directory) Tables() []models.Table {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.Table, 0, len(d.byID))
	for _, t := range d.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}
