// Package query builds parameterised PostgreSQL statements from projection maps.
package query

import "strings"

type projected struct {
	column   string
	viewName string
}

// ProjectionMap binds view field names to the columns of one aliased table.
// Projection order is preserved for SELECT lists and INSERT column lists.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	fields  []projected
	byField map[string]int
}

// NewProjectionMap creates a ProjectionMap for schema.table referenced as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		byField: make(map[string]int),
	}
}

// Project maps column to viewName. Re-projecting a view name replaces its column in place.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	if i, ok := p.byField[viewName]; ok {
		p.fields[i].column = column
		return p
	}
	p.byField[viewName] = len(p.fields)
	p.fields = append(p.fields, projected{column: column, viewName: viewName})
	return p
}

// Alias returns the table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Name returns the unaliased schema.table reference used by INSERT.
func (p *ProjectionMap) Name() string {
	return p.schema + "." + p.table
}

// Table returns the aliased reference used by SELECT, e.g. "public.sales_records s".
func (p *ProjectionMap) Table() string {
	return p.Name() + " " + p.alias
}

// Column returns alias.column for viewName. Unmapped names pass through unchanged.
func (p *ProjectionMap) Column(viewName string) string {
	if i, ok := p.byField[viewName]; ok {
		return p.alias + "." + p.fields[i].column
	}
	return viewName
}

// Columns returns the qualified SELECT list in projection order.
func (p *ProjectionMap) Columns() string {
	cols := make([]string, len(p.fields))
	for i, f := range p.fields {
		cols[i] = p.alias + "." + f.column
	}
	return strings.Join(cols, ", ")
}

// Names returns the bare column names in projection order.
func (p *ProjectionMap) Names() []string {
	names := make([]string, len(p.fields))
	for i, f := range p.fields {
		names[i] = f.column
	}
	return names
}
