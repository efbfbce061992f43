package sales

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/stockcast/pkg/database"
	"github.com/JaimeStill/stockcast/pkg/query"
	"github.com/JaimeStill/stockcast/pkg/repository"
	"github.com/JaimeStill/stockcast/pkg/telemetry"
)

// insertChunk bounds rows per INSERT so parameter counts stay under the
// PostgreSQL limit of 65535.
const insertChunk = 1000

type repo struct {
	db      database.System
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// New creates a sales repository implementing the System interface.
func New(db database.System, metrics *telemetry.Metrics, logger *slog.Logger) System {
	return &repo{
		db:      db,
		logger:  logger.With("system", "sales"),
		metrics: metrics,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, maxUploadSize)
}

func (r *repo) Append(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	db, err := r.db.Acquire(ctx)
	if err != nil {
		return 0, err
	}

	saved, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (int, error) {
		var n int
		for start := 0; start < len(records); start += insertChunk {
			chunk := records[start:min(start+insertChunk, len(records))]
			q := query.Insert(projection.Name(), projection.Names(), len(chunk))

			affected, err := repository.ExecAffected(ctx, tx, q, insertArgs(chunk)...)
			if err != nil {
				return 0, err
			}
			n += int(affected)
		}
		return n, nil
	})

	if err != nil {
		return 0, fmt.Errorf("append sales records: %w", err)
	}

	return saved, nil
}

func (r *repo) FetchAll(ctx context.Context) ([]Record, error) {
	db, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(projection, chronological...).Build()

	records, err := repository.QueryMany(ctx, db, q, args, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query sales records: %w", err)
	}
	return records, nil
}

func (r *repo) History(ctx context.Context, productID string) ([]HistoryPoint, error) {
	if productID == "" {
		return nil, ErrMissingProduct
	}

	db, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	q, args := query.
		NewBuilder(historyProjection, query.SortField{Field: "SaleDate"}).
		WhereEquals("s.product_id", productID).
		Build()

	points, err := repository.QueryMany(ctx, db, q, args, scanHistoryPoint)
	if err != nil {
		return nil, fmt.Errorf("query sales history: %w", err)
	}
	return points, nil
}

func (r *repo) Products(ctx context.Context) ([]string, error) {
	db, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	q, args := query.
		NewBuilder(productProjection, query.SortField{Field: "ProductID"}).
		Distinct().
		Build()

	products, err := repository.QueryMany(ctx, db, q, args, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

func (r *repo) Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error) {
	channel := cmd.Channel
	if channel == "" {
		channel = ChannelUpload
	}

	batch, err := Validate(cmd.Table, cmd.Source)
	if err != nil {
		r.Reject(cmd.Source, err)
		return nil, err
	}

	saved, err := r.Append(ctx, batch.Records)
	if err != nil {
		r.Reject(cmd.Source, err)
		return nil, err
	}

	r.metrics.IngestedRows.WithLabelValues(channel).Add(float64(saved))

	first, last := batch.DateRange()
	result := &IngestResult{
		Source:       cmd.Source,
		RowsReceived: batch.Received,
		RowsSaved:    saved,
		RowsDropped:  batch.Dropped,
		FirstDate:    first.Format(DateLayout),
		LastDate:     last.Format(DateLayout),
		Message:      batch.Message(),
	}

	r.logger.Info(
		"sales ingested",
		"source", cmd.Source,
		"channel", channel,
		"received", result.RowsReceived,
		"saved", result.RowsSaved,
		"dropped", result.RowsDropped,
	)
	return result, nil
}

// Reject counts a failed ingestion by reason. Storage failures log at Error.
func (r *repo) Reject(source string, err error) {
	reason := RejectionReason(err)
	r.metrics.RejectedUploads.WithLabelValues(reason).Inc()

	if reason == "storage" {
		r.logger.Error("sales ingestion failed", "source", source, "error", err)
		return
	}
	r.logger.Warn("sales upload rejected", "source", source, "reason", reason, "error", err)
}
