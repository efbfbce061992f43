// Package database provides PostgreSQL connection management with lifecycle coordination.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/stockcast/pkg/lifecycle"
)

// ErrNotReady is returned by Acquire while the database cannot be reached.
// Handlers map it to 503.
var ErrNotReady = errors.New("database not ready")

// System manages the process-wide connection pool and lifecycle coordination.
type System interface {
	// Connection returns the underlying pool without verifying liveness.
	Connection() *sql.DB
	// Acquire returns the pool once a liveness probe has succeeded.
	// The first successful probe is cached; until then each call probes again
	// and returns ErrNotReady on failure.
	Acquire(ctx context.Context) (*sql.DB, error)
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration

	mu    sync.Mutex
	alive bool
}

// New creates a database system with the given configuration.
// It calls sql.Open to validate the DSN and configure pool parameters,
// but does not establish a connection until Start or Acquire is called.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return FromDB(db, cfg, logger), nil
}

// FromDB wraps an already opened pool. The pool settings from cfg are applied.
func FromDB(db *sql.DB, cfg *Config, logger *slog.Logger) System {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database"),
		connTimeout: cfg.ConnTimeoutDuration(),
	}
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Acquire(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.alive {
		return d.conn, nil
	}

	if err := d.probe(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	d.alive = true
	return d.conn, nil
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database connection")

	lc.OnStartup(func() {
		if _, err := d.Acquire(lc.Context()); err != nil {
			d.logger.Error("database ping failed", "error", err)
			return
		}

		d.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.logger.Info("closing database connection")

		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}

		d.logger.Info("database connection closed")
	})

	return nil
}

func (d *database) probe(ctx context.Context) error {
	timeout := d.connTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return d.conn.PingContext(pingCtx)
}
