package sales

import (
	"github.com/JaimeStill/stockcast/pkg/query"
	"github.com/JaimeStill/stockcast/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "sales_records", "s").
	Project("product_id", "ProductID").
	Project("sale_date", "SaleDate").
	Project("quantity_sold", "QuantitySold")

var historyProjection = query.
	NewProjectionMap("public", "sales_records", "s").
	Project("sale_date", "SaleDate").
	Project("quantity_sold", "QuantitySold")

var productProjection = query.
	NewProjectionMap("public", "sales_records", "s").
	Project("product_id", "ProductID")

var chronological = []query.SortField{
	{Field: "SaleDate"},
	{Field: "ProductID"},
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(&r.ProductID, &r.SaleDate, &r.QuantitySold)
	r.SaleDate = truncate(r.SaleDate)
	return r, err
}

func scanHistoryPoint(s repository.Scanner) (HistoryPoint, error) {
	var (
		p HistoryPoint
		r Record
	)
	err := s.Scan(&r.SaleDate, &p.Quantity)
	p.Date = r.SaleDate.Format(DateLayout)
	return p, err
}

func scanProduct(s repository.Scanner) (string, error) {
	var id string
	err := s.Scan(&id)
	return id, err
}

// insertArgs flattens records in projection column order.
func insertArgs(records []Record) []any {
	args := make([]any, 0, len(records)*3)
	for _, r := range records {
		args = append(args, r.ProductID, r.SaleDate, r.QuantitySold)
	}
	return args
}
