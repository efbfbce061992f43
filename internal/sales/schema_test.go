package sales_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/stockcast/internal/sales"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateCanonical(t *testing.T) {
	raw := sales.RawTable{
		Headers: []string{"product_id", "sale_date", "quantity_sold", "store"},
		Rows: [][]string{
			{"A1", "2024-01-01", "5", "north"},
			{"A1", "2024-01-02 13:45:00", "3", "north"},
			{"B2", "2024-01-03", "0", "south"},
			{"B2", "not a date", "4", "south"},
			{"B2", "2024-01-04", "-2", "south"},
			{"", "2024-01-04", "2", "south"},
			{"C3", "2024-01-05", "abc", "south"},
		},
	}

	batch, err := sales.Validate(raw, "sales.csv")
	require.NoError(t, err)

	want := []sales.Record{
		{ProductID: "A1", SaleDate: day(2024, 1, 1), QuantitySold: 5},
		{ProductID: "A1", SaleDate: day(2024, 1, 2), QuantitySold: 3},
	}

	if diff := cmp.Diff(want, batch.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 7, batch.Received)
	assert.Equal(t, 5, batch.Dropped)
	assert.Equal(t, "2 valid rows, 5 dropped", batch.Message())
}

func TestValidateDetailShape(t *testing.T) {
	raw := sales.RawTable{
		Headers: []string{" SKU ", "Sale Date", "Quantity", "Branch"},
		Rows: [][]string{
			{"P-9", "15/03/2024", "2.9", "x"},
			{"P-9", "45292", "1", "x"},
		},
	}

	batch, err := sales.Validate(raw, "Detalle")
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)

	assert.Equal(t, sales.Record{ProductID: "P-9", SaleDate: day(2024, 3, 15), QuantitySold: 2}, batch.Records[0])
	assert.Equal(t, day(2024, 1, 1), batch.Records[1].SaleDate)

	first, last := batch.DateRange()
	assert.Equal(t, day(2024, 1, 1), first)
	assert.Equal(t, day(2024, 3, 15), last)
}

func TestValidateMissingColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		missing []string
	}{
		{"canonical partial", []string{"product_id", "sale_date"}, []string{"quantity_sold"}},
		{"detail partial", []string{"SKU", "Quantity"}, []string{"Sale Date"}},
		{"nothing matches", []string{"a", "b"}, []string{"product_id", "sale_date", "quantity_sold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sales.Validate(sales.RawTable{Headers: tt.headers}, "upload.csv")

			var schemaErr *sales.SchemaError
			require.True(t, errors.As(err, &schemaErr), "error = %v", err)
			assert.Equal(t, tt.missing, schemaErr.Missing)
			assert.Equal(t, "upload.csv", schemaErr.Source)
		})
	}
}

func TestValidateNoValidRows(t *testing.T) {
	raw := sales.RawTable{
		Headers: []string{"product_id", "sale_date", "quantity_sold"},
		Rows: [][]string{
			{"A", "2024-01-01", "0"},
			{"A", "", "3"},
		},
	}

	_, err := sales.Validate(raw, "empty.csv")
	assert.ErrorIs(t, err, sales.ErrNoValidRows)

	_, err = sales.Validate(sales.RawTable{Headers: raw.Headers}, "header-only.csv")
	assert.ErrorIs(t, err, sales.ErrNoValidRows)
}

func TestValidateDropsQuantityOutsideColumnRange(t *testing.T) {
	raw := sales.RawTable{
		Headers: []string{"product_id", "sale_date", "quantity_sold"},
		Rows: [][]string{
			{"A1", "2024-01-01", "5"},
			{"A1", "2024-01-02", "3000000000"},
			{"A1", "2024-01-03", "3000000000.0"},
		},
	}

	batch, err := sales.Validate(raw, "sales.csv")
	require.NoError(t, err)

	require.Len(t, batch.Records, 1)
	assert.Equal(t, 5, batch.Records[0].QuantitySold)
	assert.Equal(t, 2, batch.Dropped)
}

func TestValidateShortRows(t *testing.T) {
	raw := sales.RawTable{
		Headers: []string{"product_id", "sale_date", "quantity_sold"},
		Rows: [][]string{
			{"A", "2024-01-01"},
			{"A", "2024-01-01", "4"},
		},
	}

	batch, err := sales.Validate(raw, "short.csv")
	require.NoError(t, err)
	assert.Len(t, batch.Records, 1)
	assert.Equal(t, 1, batch.Dropped)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-02-29", day(2024, 2, 29), true},
		{"2024-02-29T23:59:59Z", day(2024, 2, 29), true},
		{"2024/02/29", day(2024, 2, 29), true},
		{"01/02/2024", day(2024, 2, 1), true},
		{"01-02-2024", day(2024, 2, 1), true},
		{"45351", day(2024, 2, 29), true},
		{"2024-13-01", time.Time{}, false},
		{"", time.Time{}, false},
		{"-3", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := sales.ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int{
		"7":     7,
		" 12 ":  12,
		"3.99":  3,
		"-1.5":  -1,
		"x":     0,
		"":      0,
		"NaN":   0,
		"1e300": 0,

		"2147483647":   2147483647,
		"3000000000":   0,
		"3000000000.0": 0,
		"-3000000000":  0,
	}

	for in, want := range tests {
		assert.Equal(t, want, sales.ParseQuantity(in), "ParseQuantity(%q)", in)
	}
}
