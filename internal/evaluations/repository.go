package evaluations

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/stockcast/pkg/database"
	"github.com/JaimeStill/stockcast/pkg/query"
	"github.com/JaimeStill/stockcast/pkg/repository"
)

type repo struct {
	db     database.System
	logger *slog.Logger
	now    func() time.Time
}

// New creates an evaluation repository implementing the System interface.
func New(db database.System, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "evaluations"),
		now:    time.Now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Append(ctx context.Context, m Metric) (*Metric, error) {
	if m.ModelName == "" {
		return nil, ErrInvalidMetric
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = r.now().UTC()
	}

	db, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	saved, err := r.insert(ctx, db, m)
	if repository.IsUndefinedTable(err) {
		r.logger.Warn("model_metrics table missing, creating it")
		if _, cerr := db.ExecContext(ctx, createTable); cerr != nil {
			return nil, fmt.Errorf("create model_metrics: %w", cerr)
		}
		saved, err = r.insert(ctx, db, m)
	}
	if err != nil {
		return nil, fmt.Errorf("insert metric: %w", err)
	}

	r.logger.Info(
		"metric recorded",
		"model", saved.ModelName,
		"mae", saved.MAE,
		"rmse", saved.RMSE,
		"r2", saved.R2,
	)
	return &saved, nil
}

func (r *repo) History(ctx context.Context) ([]Metric, error) {
	db, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(projection, mostRecent...).Build()

	metrics, err := repository.QueryMany(ctx, db, q, args, scanMetric)
	if err != nil {
		if repository.IsUndefinedTable(err) {
			return []Metric{}, nil
		}
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	return metrics, nil
}

func (r *repo) insert(ctx context.Context, db *sql.DB, m Metric) (Metric, error) {
	args := []any{m.ID, m.ModelName, m.MAE, m.RMSE, m.R2, m.RecordedAt}
	return repository.WithTx(ctx, db, func(tx *sql.Tx) (Metric, error) {
		return repository.QueryOne(ctx, tx, insertMetric, args, scanMetric)
	})
}
