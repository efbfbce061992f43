// Command sweep ingests every sales workbook in an input directory and moves
// each file to the processed or failed directory. The per-file report is
// written to stdout as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JaimeStill/stockcast/internal/config"
	"github.com/JaimeStill/stockcast/internal/infrastructure"
	"github.com/JaimeStill/stockcast/internal/ingestion"
	"github.com/JaimeStill/stockcast/internal/sales"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("load .env failed:", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		log.Println("config load failed:", err)
		return 1
	}

	flag.StringVar(&cfg.Ingestion.InputDir, "input", cfg.Ingestion.InputDir, "Directory scanned for workbooks")
	flag.StringVar(&cfg.Ingestion.ProcessedDir, "processed", cfg.Ingestion.ProcessedDir, "Destination for ingested files")
	flag.StringVar(&cfg.Ingestion.FailedDir, "failed", cfg.Ingestion.FailedDir, "Destination for rejected files")
	flag.StringVar(&cfg.Ingestion.Sheet, "sheet", cfg.Ingestion.Sheet, "Workbook sheet to read")
	flag.IntVar(&cfg.Ingestion.Workers, "workers", cfg.Ingestion.Workers, "Files processed concurrently")
	flag.Parse()

	if err := cfg.Ingestion.Validate(); err != nil {
		log.Println("invalid ingestion flags:", err)
		return 1
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Println("infrastructure init failed:", err)
		return 1
	}
	if err := infra.Start(); err != nil {
		log.Println("infrastructure start failed:", err)
		return 1
	}
	infra.Lifecycle.WaitForStartup()
	defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := ingestion.New(
		sales.New(infra.Database, infra.Telemetry, infra.Logger),
		&cfg.Ingestion,
		infra.Logger,
	)

	report, err := sweeper.Run(ctx)
	if err != nil {
		infra.Logger.Error("sweep failed", "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		infra.Logger.Error("write report failed", "error", err)
		return 1
	}

	if report.Failed > 0 {
		return 2
	}
	return 0
}
