// Package ingestion sweeps a directory of sales workbooks into the store,
// moving each file to a processed or failed directory by outcome.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/stockcast/internal/config"
	"github.com/JaimeStill/stockcast/internal/sales"
)

// File outcomes.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Ingester validates and persists one table. sales.System satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, cmd sales.IngestCommand) (*sales.IngestResult, error)
	Reject(source string, err error)
}

// FileReport is the outcome for one input file.
type FileReport struct {
	File    string              `json:"file"`
	Status  string              `json:"status"`
	Result  *sales.IngestResult `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
	MovedTo string              `json:"moved_to,omitempty"`
}

// Report summarises a sweep. Files are ordered by name.
type Report struct {
	InputDir  string       `json:"input_dir"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	RowsSaved int          `json:"rows_saved"`
	Files     []FileReport `json:"files"`
}

// Sweeper runs batch ingestion over a directory.
type Sweeper struct {
	ingester Ingester
	cfg      config.IngestionConfig
	logger   *slog.Logger
}

// New creates a Sweeper. cfg must already be finalized.
func New(ingester Ingester, cfg *config.IngestionConfig, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		ingester: ingester,
		cfg:      *cfg,
		logger:   logger.With("system", "ingestion"),
	}
}

// Run ingests every supported file in the input directory. A failing file is
// recorded and moved to the failed directory; it never stops the sweep. Run
// only returns an error when the directories themselves are unusable.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	started := time.Now()

	files, err := s.scan()
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{s.cfg.ProcessedDir, s.cfg.FailedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	s.logger.Info("sweep started", "input_dir", s.cfg.InputDir, "files", len(files))

	reports := make([]FileReport, len(files))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)

	for i, name := range files {
		g.Go(func() error {
			reports[i] = s.process(ctx, name)
			return nil
		})
	}
	g.Wait()

	report := &Report{
		InputDir:  s.cfg.InputDir,
		StartedAt: started.UTC(),
		Duration:  time.Since(started).Round(time.Millisecond).String(),
		Files:     reports,
	}
	for _, f := range reports {
		switch f.Status {
		case StatusProcessed:
			report.Processed++
			report.RowsSaved += f.Result.RowsSaved
		case StatusFailed:
			report.Failed++
		default:
			report.Skipped++
		}
	}

	s.logger.Info(
		"sweep complete",
		"processed", report.Processed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"rows_saved", report.RowsSaved,
		"duration", report.Duration,
	)

	return report, nil
}

func (s *Sweeper) scan() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !Supported(e.Name()) {
			s.logger.Debug("ignoring unsupported file", "file", e.Name())
			continue
		}
		files = append(files, e.Name())
	}
	slices.Sort(files)
	return files, nil
}

func (s *Sweeper) process(ctx context.Context, name string) FileReport {
	fr := FileReport{File: name}

	if err := ctx.Err(); err != nil {
		fr.Status = StatusSkipped
		fr.Error = err.Error()
		return fr
	}

	result, err := s.ingest(ctx, name)
	dest := s.cfg.ProcessedDir
	if err != nil {
		fr.Status = StatusFailed
		fr.Error = err.Error()
		dest = s.cfg.FailedDir
		s.logger.Warn("file rejected", "file", name, "error", err)
	} else {
		fr.Status = StatusProcessed
		fr.Result = result
	}

	moved, err := move(filepath.Join(s.cfg.InputDir, name), dest)
	if err != nil {
		s.logger.Error("file move failed", "file", name, "error", err)
		fr.Error = strings.TrimPrefix(fr.Error+"; "+err.Error(), "; ")
		return fr
	}
	fr.MovedTo = moved
	return fr
}

func (s *Sweeper) ingest(ctx context.Context, name string) (*sales.IngestResult, error) {
	f, err := os.Open(filepath.Join(s.cfg.InputDir, name))
	if err != nil {
		err = fmt.Errorf("%w: %w", sales.ErrUnreadableFile, err)
		s.ingester.Reject(name, err)
		return nil, err
	}
	raw, err := sales.ReadFile(name, f, s.cfg.Sheet)
	f.Close()
	if err != nil {
		s.ingester.Reject(name, err)
		return nil, err
	}

	return s.ingester.Ingest(ctx, sales.IngestCommand{
		Table:   raw,
		Source:  name,
		Channel: sales.ChannelSweep,
	})
}

// Supported reports whether name has an extension the sweep reads.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	default:
		return false
	}
}

// move renames src into dir. An existing file of the same name is kept and
// the incoming one gets a timestamp suffix.
func move(src, dir string) (string, error) {
	dest := filepath.Join(dir, filepath.Base(src))
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(dest)
		stamp := time.Now().UTC().Format("20060102T150405.000000000")
		dest = strings.TrimSuffix(dest, ext) + "-" + stamp + ext
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("check %s: %w", dest, err)
	}

	if err := os.Rename(src, dest); err != nil {
		return "", fmt.Errorf("move %s: %w", filepath.Base(src), err)
	}
	return dest, nil
}
