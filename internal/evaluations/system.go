package evaluations

import "context"

// System defines the public contract for evaluation metric operations.
type System interface {
	Handler() *Handler

	// Append records m. A zero ID or RecordedAt is filled in.
	Append(ctx context.Context, m Metric) (*Metric, error)

	// History returns every metric, most recent first. A missing table
	// yields an empty history.
	History(ctx context.Context) ([]Metric, error)
}
