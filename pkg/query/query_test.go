package query_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JaimeStill/stockcast/pkg/query"
)

func salesProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "sales", "s").
		Project("product_id", "ProductID").
		Project("sale_date", "Date").
		Project("quantity", "Quantity")
}

func ptr(s string) *string { return &s }

func TestProjectionMapTable(t *testing.T) {
	if got, want := salesProjection().Table(), "public.sales s"; got != want {
		t.Errorf("Table() = %q, want %q", got, want)
	}
}

func TestProjectionMapAlias(t *testing.T) {
	if got := salesProjection().Alias(); got != "s" {
		t.Errorf("Alias() = %q, want %q", got, "s")
	}
}

func TestProjectionMapColumns(t *testing.T) {
	got := salesProjection().Columns()
	want := "s.product_id, s.sale_date, s.quantity"
	if got != want {
		t.Errorf("Columns() = %q, want %q", got, want)
	}
}

func TestProjectionMapNames(t *testing.T) {
	p := salesProjection()

	if got := p.Name(); got != "public.sales" {
		t.Errorf("Name() = %q, want public.sales", got)
	}
	if diff := cmp.Diff([]string{"product_id", "sale_date", "quantity"}, p.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectionMapReproject(t *testing.T) {
	p := salesProjection().Project("units", "Quantity")

	if got := p.Columns(); got != "s.product_id, s.sale_date, s.units" {
		t.Errorf("Columns() = %q", got)
	}
	if got := p.Column("Quantity"); got != "s.units" {
		t.Errorf("Column(Quantity) = %q, want s.units", got)
	}
}

func TestProjectionMapColumnLookup(t *testing.T) {
	p := salesProjection()

	tests := []struct {
		name     string
		viewName string
		want     string
	}{
		{"mapped field", "ProductID", "s.product_id"},
		{"renamed column", "Date", "s.sale_date"},
		{"unmapped passthrough", "unknown", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Column(tt.viewName); got != tt.want {
				t.Errorf("Column(%q) = %q, want %q", tt.viewName, got, tt.want)
			}
		})
	}
}

func TestBuilderBuild(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *query.Builder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no conditions",
			build:   func() *query.Builder { return query.NewBuilder(salesProjection()) },
			wantSQL: "SELECT s.product_id, s.sale_date, s.quantity FROM public.sales s",
		},
		{
			name: "default sort",
			build: func() *query.Builder {
				return query.NewBuilder(salesProjection(), query.SortField{Field: "Date"})
			},
			wantSQL: "SELECT s.product_id, s.sale_date, s.quantity FROM public.sales s ORDER BY s.sale_date ASC",
		},
		{
			name: "explicit sort overrides default",
			build: func() *query.Builder {
				return query.NewBuilder(salesProjection(), query.SortField{Field: "Date"}).
					OrderByFields(
						query.SortField{Field: "ProductID"},
						query.SortField{Field: "Date", Descending: true},
					)
			},
			wantSQL: "SELECT s.product_id, s.sale_date, s.quantity FROM public.sales s ORDER BY s.product_id ASC, s.sale_date DESC",
		},
		{
			name: "equality conditions numbered in order",
			build: func() *query.Builder {
				return query.NewBuilder(salesProjection()).
					WhereEquals("ProductID", "SKU-1").
					WhereEquals("Quantity", 4)
			},
			wantSQL:  "SELECT s.product_id, s.sale_date, s.quantity FROM public.sales s WHERE s.product_id = $1 AND s.quantity = $2",
			wantArgs: []any{"SKU-1", 4},
		},
		{
			name: "nil values skipped",
			build: func() *query.Builder {
				var missing *string
				return query.NewBuilder(salesProjection()).
					WhereEquals("Date", missing).
					WhereEquals("ProductID", ptr("SKU-2")).
					WhereEquals("Quantity", nil)
			},
			wantSQL:  "SELECT s.product_id, s.sale_date, s.quantity FROM public.sales s WHERE s.product_id = $1",
			wantArgs: []any{ptr("SKU-2")},
		},
		{
			name: "distinct",
			build: func() *query.Builder {
				p := query.NewProjectionMap("public", "sales", "s").Project("product_id", "ProductID")
				return query.NewBuilder(p, query.SortField{Field: "ProductID"}).Distinct()
			},
			wantSQL: "SELECT DISTINCT s.product_id FROM public.sales s ORDER BY s.product_id ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build().Build()
			if sql != tt.wantSQL {
				t.Errorf("sql:\n got %s\nwant %s", sql, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name string
		rows int
		want string
	}{
		{"single row", 1, "INSERT INTO sales (product_id, sale_date, quantity) VALUES ($1, $2, $3)"},
		{"two rows", 2, "INSERT INTO sales (product_id, sale_date, quantity) VALUES ($1, $2, $3), ($4, $5, $6)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.Insert("sales", []string{"product_id", "sale_date", "quantity"}, tt.rows)
			if got != tt.want {
				t.Errorf("Insert() =\n %s\nwant\n %s", got, tt.want)
			}
		})
	}
}
