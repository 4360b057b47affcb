package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMatchingMetricsRecordAndExpose(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMatchingMetrics(reg)

	m.RecordIngestion("accepted", 0.01)
	m.RecordIngestion("duplicate", 0.002)
	m.RecordMatch(true)
	m.RecordMatch(false)
	m.RecordMatch(true)
	m.RecordSwept("reservations", 3)
	m.RecordSwept("reservations", 0)

	if got := testutil.ToFloat64(m.IngestionRequestsTotal.WithLabelValues("accepted")); got != 1 {
		t.Fatalf("expected 1 accepted ingestion, got %v", got)
	}
	if got := testutil.ToFloat64(m.ReservationMatchTotal.WithLabelValues("matched")); got != 2 {
		t.Fatalf("expected 2 matches, got %v", got)
	}
	if got := testutil.ToFloat64(m.SweptRowsTotal.WithLabelValues("reservations")); got != 3 {
		t.Fatalf("expected 3 swept rows, got %v", got)
	}

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sms_ingestion_requests_total") {
		t.Fatal("expected ingestion counter in exposition")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *MatchingMetrics
	m.RecordIngestion("accepted", 1)
	m.RecordReservation("granted")
	m.RecordApprovalTransition("auto_approved")
	m.RecordHookError("confirm")
}
