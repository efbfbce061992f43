package telemetry_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/stockcast/pkg/telemetry"
)

func TestCounters(t *testing.T) {
	m := telemetry.New()

	m.IngestedRows.WithLabelValues("upload").Add(3)
	m.RejectedUploads.WithLabelValues("schema").Inc()
	m.Predictions.WithLabelValues("ok").Inc()
	m.Predictions.WithLabelValues("ok").Inc()

	if got := testutil.ToFloat64(m.IngestedRows.WithLabelValues("upload")); got != 3 {
		t.Errorf("ingested rows: got %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.RejectedUploads.WithLabelValues("schema")); got != 1 {
		t.Errorf("rejected uploads: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Predictions.WithLabelValues("ok")); got != 2 {
		t.Errorf("predictions: got %v, want 2", got)
	}
}

func TestObserveRequest(t *testing.T) {
	m := telemetry.New()

	m.ObserveRequest("POST", "POST /predict", 200, 5*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	if got := testutil.CollectAndCount(m.HTTPRequests); got != 2 {
		t.Errorf("series: got %d, want 2", got)
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	a := telemetry.New()
	b := telemetry.New()

	a.TrainingRuns.WithLabelValues("completed").Inc()

	if got := testutil.ToFloat64(b.TrainingRuns.WithLabelValues("completed")); got != 0 {
		t.Errorf("second registry: got %v, want 0", got)
	}
}

func TestHandler(t *testing.T) {
	m := telemetry.New()
	m.ModelReloads.WithLabelValues("success").Inc()
	m.ModelQuality.WithLabelValues("gbt", "rmse").Set(1.5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`stockcast_model_reloads_total{status="success"} 1`,
		`stockcast_model_quality{metric="rmse",model="gbt"} 1.5`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("scrape missing %q", want)
		}
	}
}
