// Package databasetest opens transaction-scoped PostgreSQL connections for
// integration tests. Every connection runs inside a transaction that is rolled
// back when the test ends.
package databasetest

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-txdb"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/stockcast/pkg/database"
)

// EnvDSN names the variable holding the test database connection string.
const EnvDSN = "STOCKCAST_TEST_DSN"

const driver = "txdb-stockcast"

// Schema mirrors the service migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS sales_records (
    id BIGSERIAL PRIMARY KEY,
    product_id TEXT NOT NULL,
    sale_date DATE NOT NULL,
    quantity_sold INTEGER NOT NULL CHECK (quantity_sold > 0),
    ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'viewer'
);`

var register sync.Once

// Open returns a database system bound to a rolled-back transaction.
// The test is skipped when EnvDSN is unset. Statements in ddl run first.
// Nested transactions map to savepoints, so a failed statement inside
// repository.WithTx leaves the outer transaction usable.
func Open(t testing.TB, ddl ...string) database.System {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s not set", EnvDSN)
	}

	register.Do(func() {
		txdb.Register(driver, "pgx", dsn, txdb.SavePointOption(nil))
	})

	db, err := sql.Open(driver, t.Name())
	if err != nil {
		t.Fatalf("open txdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return database.FromDB(db, &database.Config{MaxOpenConns: 1, MaxIdleConns: 1}, logger)
}
