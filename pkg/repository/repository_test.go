package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/stockcast/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	other := errors.New("some other error")
	fk := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), errDuplicate},
		{"foreign key passthrough", fk, fk},
		{"other passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if got != tt.want {
				t.Errorf("MapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsUndefinedTable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, true},
		{"wrapped", fmt.Errorf("query evaluations: %w", &pgconn.PgError{Code: "42P01"}), true},
		{"other pg code", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", errors.New("42P01"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := repository.IsUndefinedTable(tt.err); got != tt.want {
				t.Errorf("IsUndefinedTable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type result struct {
	affected int64
	err      error
}

func (r result) LastInsertId() (int64, error) { return 0, nil }
func (r result) RowsAffected() (int64, error) { return r.affected, r.err }

type executor struct {
	res   sql.Result
	err   error
	query string
	args  []any
}

func (e *executor) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	e.query, e.args = query, args
	return e.res, e.err
}

func TestExecAffected(t *testing.T) {
	ctx := context.Background()

	t.Run("returns affected rows", func(t *testing.T) {
		e := &executor{res: result{affected: 3}}
		n, err := repository.ExecAffected(ctx, e, "DELETE FROM sales WHERE product_id = $1", "SKU-1")
		if err != nil {
			t.Fatalf("ExecAffected() error = %v", err)
		}
		if n != 3 {
			t.Errorf("affected = %d, want 3", n)
		}
		if len(e.args) != 1 || e.args[0] != "SKU-1" {
			t.Errorf("args = %v, want [SKU-1]", e.args)
		}
	})

	t.Run("exec error", func(t *testing.T) {
		boom := errors.New("boom")
		e := &executor{err: boom}
		if _, err := repository.ExecAffected(ctx, e, "SELECT 1"); !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
	})

	t.Run("rows affected error", func(t *testing.T) {
		unsupported := errors.New("unsupported")
		e := &executor{res: result{err: unsupported}}
		if _, err := repository.ExecAffected(ctx, e, "SELECT 1"); !errors.Is(err, unsupported) {
			t.Errorf("error = %v, want %v", err, unsupported)
		}
	})
}
