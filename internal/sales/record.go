// Package sales implements the sales-history domain: validation of uploaded
// tabular files, append-only persistence of sales records, and the upload,
// history, and product endpoints.
package sales

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// Record is one observed sale line. SaleDate carries no time component.
type Record struct {
	ProductID    string    `json:"product_id"`
	SaleDate     time.Time `json:"sale_date"`
	QuantitySold int       `json:"quantity_sold"`
}

// HistoryPoint is one sale in a product's history, with the date as YYYY-MM-DD.
type HistoryPoint struct {
	Date     string `json:"date"`
	Quantity int    `json:"quantity"`
}

// RawTable is an untyped table as read from a delimited or spreadsheet file.
// Rows may be shorter than Headers; missing cells read as empty strings.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Batch is the cleaned output of Validate.
type Batch struct {
	Source   string
	Records  []Record
	Received int
	Dropped  int
}

// Message summarises the row counts of the batch.
func (b *Batch) Message() string {
	return fmt.Sprintf("%d valid rows, %d dropped", len(b.Records), b.Dropped)
}

// DateRange returns the earliest and latest sale dates in the batch.
func (b *Batch) DateRange() (time.Time, time.Time) {
	var first, last time.Time
	for i, r := range b.Records {
		if i == 0 || r.SaleDate.Before(first) {
			first = r.SaleDate
		}
		if i == 0 || r.SaleDate.After(last) {
			last = r.SaleDate
		}
	}
	return first, last
}

// IngestResult summarises a validated and persisted upload.
type IngestResult struct {
	Source       string `json:"source"`
	RowsReceived int    `json:"rows_received"`
	RowsSaved    int    `json:"rows_saved"`
	RowsDropped  int    `json:"rows_dropped"`
	FirstDate    string `json:"first_date,omitempty"`
	LastDate     string `json:"last_date,omitempty"`
	Message      string `json:"message"`
}
