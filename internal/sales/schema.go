package sales

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Canonical column names.
const (
	ColumnProductID    = "product_id"
	ColumnSaleDate     = "sale_date"
	ColumnQuantitySold = "quantity_sold"
)

// Source column names of the raw detail export.
const (
	DetailSKU      = "SKU"
	DetailSaleDate = "Sale Date"
	DetailQuantity = "Quantity"
)

type shape struct {
	product, date, quantity string
}

func (s shape) columns() []string {
	return []string{s.product, s.date, s.quantity}
}

var (
	canonicalShape = shape{ColumnProductID, ColumnSaleDate, ColumnQuantitySold}
	detailShape    = shape{DetailSKU, DetailSaleDate, DetailQuantity}
)

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02/01/2006 15:04:05",
}

// Validate checks raw against the canonical or raw-detail column set, keeps
// only the required columns, and coerces every row. Rows with an unparsable
// date, an empty product, or a quantity <= 0 are dropped. Unparsable
// quantities count as 0. Validate performs no I/O.
//
// It returns a *SchemaError when neither column set is fully present and
// ErrNoValidRows when every row is dropped.
func Validate(raw RawTable, source string) (*Batch, error) {
	idx, err := resolve(raw.Headers, source)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		Source:   source,
		Records:  make([]Record, 0, len(raw.Rows)),
		Received: len(raw.Rows),
	}

	for _, row := range raw.Rows {
		product := strings.TrimSpace(cell(row, idx[0]))
		date, ok := ParseDate(cell(row, idx[1]))
		quantity := ParseQuantity(cell(row, idx[2]))

		if product == "" || !ok || quantity <= 0 {
			batch.Dropped++
			continue
		}

		batch.Records = append(batch.Records, Record{
			ProductID:    product,
			SaleDate:     date,
			QuantitySold: quantity,
		})
	}

	if len(batch.Records) == 0 {
		return nil, ErrNoValidRows
	}

	return batch, nil
}

// resolve returns header positions for product, date and quantity.
func resolve(headers []string, source string) ([3]int, error) {
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	var best []string
	for _, s := range []shape{canonicalShape, detailShape} {
		var missing []string
		for _, col := range s.columns() {
			if _, ok := pos[col]; !ok {
				missing = append(missing, col)
			}
		}
		if len(missing) == 0 {
			return [3]int{pos[s.product], pos[s.date], pos[s.quantity]}, nil
		}
		if best == nil || len(missing) < len(best) {
			best = missing
		}
	}

	return [3]int{}, &SchemaError{Source: source, Missing: best}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// ParseDate coerces s to a UTC calendar date. It accepts ISO dates with or
// without a time part, day-first slash and dash dates, and spreadsheet
// serial day numbers.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncate(t), true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 2958466 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return truncate(t), true
		}
	}

	return time.Time{}, false
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseQuantity coerces s to an integer, truncating decimals toward zero.
// Values that are not numeric, not finite or outside the int32 range of the
// quantity column yield 0.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(n)
	} else if errors.Is(err, strconv.ErrRange) {
		return 0
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}
