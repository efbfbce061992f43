package evaluations

import (
	"github.com/JaimeStill/stockcast/pkg/query"
	"github.com/JaimeStill/stockcast/pkg/repository"
)

// createTable backs the schema-on-write path for deployments that never ran migrations.
const createTable = `
	CREATE TABLE IF NOT EXISTS model_metrics (
		id UUID PRIMARY KEY,
		model_name TEXT NOT NULL,
		mae DOUBLE PRECISION NOT NULL,
		rmse DOUBLE PRECISION NOT NULL,
		r2 DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

const insertMetric = `
	INSERT INTO model_metrics(id, model_name, mae, rmse, r2, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, model_name, mae, rmse, r2, recorded_at`

var projection = query.
	NewProjectionMap("public", "model_metrics", "m").
	Project("id", "ID").
	Project("model_name", "ModelName").
	Project("mae", "MAE").
	Project("rmse", "RMSE").
	Project("r2", "R2").
	Project("recorded_at", "RecordedAt")

var mostRecent = []query.SortField{
	{Field: "RecordedAt", Descending: true},
	{Field: "ID"},
}

func scanMetric(s repository.Scanner) (Metric, error) {
	var m Metric
	err := s.Scan(&m.ID, &m.ModelName, &m.MAE, &m.RMSE, &m.R2, &m.RecordedAt)
	return m, err
}
