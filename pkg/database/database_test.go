package database_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/JaimeStill/stockcast/pkg/database"
	"github.com/JaimeStill/stockcast/pkg/lifecycle"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unreachable() database.Config {
	return database.Config{
		Host:            "127.0.0.1",
		Port:            1,
		Name:            "stockcast",
		User:            "stockcast",
		SSLMode:         "disable",
		MaxOpenConns:    42,
		MaxIdleConns:    7,
		ConnMaxLifetime: "10m",
		ConnTimeout:     "1s",
	}
}

func TestNewSetsPoolParams(t *testing.T) {
	cfg := unreachable()

	sys, err := database.New(&cfg, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	conn := sys.Connection()
	defer conn.Close()

	if stats := conn.Stats(); stats.MaxOpenConnections != 42 {
		t.Errorf("MaxOpenConnections = %d, want 42", stats.MaxOpenConnections)
	}
}

func TestAcquireUnreachable(t *testing.T) {
	cfg := unreachable()

	sys, err := database.New(&cfg, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer sys.Connection().Close()

	for range 2 {
		_, err := sys.Acquire(context.Background())
		if !errors.Is(err, database.ErrNotReady) {
			t.Fatalf("Acquire() error = %v, want ErrNotReady", err)
		}
	}
}

func TestStartRegistersHooks(t *testing.T) {
	cfg := unreachable()

	sys, err := database.New(&cfg, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	lc := lifecycle.New()
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	lc.WaitForStartup()
	if !lc.Ready() {
		t.Error("lifecycle not ready after a failed probe; startup should not block")
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
