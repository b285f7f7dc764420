package metric

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_Counters(t *testing.T) {
	reg := NewRegistry()

	reg.SessionsCreated.Inc()
	reg.SessionsCreated.Inc()
	reg.SessionsActive.Set(2)
	reg.SyncResults.WithLabelValues("delta").Inc()
	reg.ConflictsDetected.WithLabelValues("duplicate_action").Inc()

	if got := testutil.ToFloat64(reg.SessionsCreated); got != 2 {
		t.Errorf("sessions_created_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(reg.SessionsActive); got != 2 {
		t.Errorf("sessions_active = %v, want 2", got)
	}
	if got := testutil.ToFloat64(reg.SyncResults.WithLabelValues("delta")); got != 1 {
		t.Errorf("sync_results_total{type=delta} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(reg.SyncResults.WithLabelValues("snapshot")); got != 0 {
		t.Errorf("sync_results_total{type=snapshot} = %v, want 0", got)
	}
}

func TestRegistry_Handler(t *testing.T) {
	reg := NewRegistry()
	reg.SnapshotsCreated.Inc()
	reg.DeltaBytes.Observe(512)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{
		"tablesync_snapshots_created_total 1",
		"tablesync_delta_bytes_bucket",
		"go_goroutines",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %q", metric)
		}
	}
}

func TestRegistry_Isolated(t *testing.T) {
	// Two registries must not share state or collide on registration.
	a := NewRegistry()
	b := NewRegistry()

	a.SessionsCreated.Inc()
	if got := testutil.ToFloat64(b.SessionsCreated); got != 0 {
		t.Errorf("second registry counter = %v, want 0", got)
	}
}
