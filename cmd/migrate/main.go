package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/stockcast/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "STOCKCAST_DB_DSN"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		dsn     = flag.String("dsn", "", "Database URL (default: $STOCKCAST_DB_DSN, then config.toml)")
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
		return 1
	}

	url, err := resolveDSN(*dsn)
	if err != nil {
		log.Printf("resolve database: %v", err)
		return 1
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Printf("create migration source: %v", err)
		return 1
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		log.Printf("create migrator: %v", err)
		return 1
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return 0
		}
		if err != nil {
			log.Printf("get version: %v", err)
			return 1
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Printf("force version: %v", err)
			return 1
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		return report(m.Up(), "migrations applied")
	case *down:
		return report(m.Down(), "migrations reverted")
	case *steps != 0:
		return report(m.Steps(*steps), fmt.Sprintf("applied %d migration steps", *steps))
	default:
		fmt.Println("usage: migrate [-dsn <url>] [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
		return 2
	}
	return 0
}

func report(err error, done string) int {
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("no change")
		return 0
	}
	if err != nil {
		log.Printf("migrate: %v", err)
		return 1
	}
	fmt.Println(done)
	return 0
}

// resolveDSN prefers the flag, then STOCKCAST_DB_DSN, then the database
// section of the service configuration.
func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("no -dsn or %s, and config failed: %w", envDSN, err)
	}
	return cfg.Database.ConnURL(), nil
}
