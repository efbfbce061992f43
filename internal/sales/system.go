package sales

import "context"

// Ingestion channels used as metric labels.
const (
	ChannelUpload = "upload"
	ChannelSweep  = "sweep"
)

// IngestCommand carries a raw table through validation and persistence.
type IngestCommand struct {
	Table   RawTable
	Source  string
	Channel string
}

// System defines the public contract for sales-history operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// Append persists records in a single transaction. Existing rows are
	// never updated and duplicates are stored as given.
	Append(ctx context.Context, records []Record) (int, error)

	// FetchAll returns every stored record in chronological order.
	FetchAll(ctx context.Context) ([]Record, error)

	// History returns one product's sales ordered by date ascending.
	History(ctx context.Context, productID string) ([]HistoryPoint, error)

	// Products returns the distinct product ids with stored sales.
	Products(ctx context.Context) ([]string, error)

	// Ingest validates cmd.Table and appends the surviving rows.
	Ingest(ctx context.Context, cmd IngestCommand) (*IngestResult, error)

	// Reject records a file that could not be read into a table.
	Reject(source string, err error)
}
