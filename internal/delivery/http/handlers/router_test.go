package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/middleware"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/metrics"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/repository"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/sqlitetest"
	"github.com/xjanova/smschecker-sub001/internal/security"
	"github.com/xjanova/smschecker-sub001/internal/usecase"
)

const testAdminToken = "let-me-in"

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type testServer struct {
	t        *testing.T
	handler  http.Handler
	protocol *security.Protocol
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := usecase.Clock(func() time.Time { return testNow })
	store := repository.NewGormStore(sqlitetest.NewDB(t))
	protocol := security.NewProtocolWithIterations(1000)
	registry := prometheus.NewRegistry()
	matchingMetrics := metrics.NewMatchingMetrics(registry)

	devices := usecase.NewDefaultDeviceUsecase(store, domain.ApprovalModeAuto, clock)
	reservations := usecase.NewDefaultReservationUsecase(store, 30*time.Minute, nil, matchingMetrics, clock, logger)
	approvals := usecase.NewDefaultApprovalUsecase(store, nil, nil, nil, matchingMetrics, time.Hour, clock, logger)
	ingestion := usecase.NewDefaultIngestionUsecase(usecase.IngestionDeps{
		Store:        store,
		Protocol:     protocol,
		Devices:      devices,
		Replay:       usecase.NewReplayGuard(nil, time.Hour, clock, logger),
		Reservations: reservations,
		Approvals:    approvals,
		Metrics:      matchingMetrics,
		Clock:        clock,
		Logger:       logger,
	})

	return &testServer{
		t:        t,
		protocol: protocol,
		handler: NewRouter(RouterDeps{
			Ingestion:    ingestion,
			Reservations: reservations,
			Approvals:    approvals,
			Devices:      devices,
			AdminToken:   testAdminToken,
			Metrics:      metrics.Handler(registry),
			Health:       func(context.Context) error { return nil },
			Logger:       logger,
		}),
	}
}

func (s *testServer) do(method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			s.t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func (s *testServer) admin(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	return s.do(method, path, body, map[string]string{middleware.AdminTokenHeader: testAdminToken})
}

type credentials struct {
	DeviceID  string `json:"device_id"`
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
}

func (s *testServer) provision(mode string) credentials {
	s.t.Helper()
	rec, env := s.admin(http.MethodPost, "/api/v1/devices", map[string]string{"device_name": "till", "approval_mode": mode})
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("provision device: %d %s", rec.Code, rec.Body.String())
	}
	var creds credentials
	if err := json.Unmarshal(env.Data, &creds); err != nil {
		s.t.Fatalf("decode credentials: %v", err)
	}
	return creds
}

func (s *testServer) notify(creds credentials, amount, nonce string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	payload, _ := json.Marshal(map[string]interface{}{
		"bank":          "SCB",
		"type":          "credit",
		"amount":        amount,
		"sms_timestamp": testNow.UnixMilli(),
		"device_id":     creds.DeviceID,
		"nonce":         nonce,
	})
	data, err := s.protocol.Encrypt(payload, creds.SecretKey)
	if err != nil {
		s.t.Fatalf("encrypt: %v", err)
	}
	timestamp := strconv.FormatInt(testNow.UnixMilli(), 10)
	return s.do(http.MethodPost, "/api/v1/notifications", map[string]string{"data": data}, map[string]string{
		HeaderAPIKey:    creds.APIKey,
		HeaderSignature: s.protocol.Sign(security.SignatureInput(data, nonce, timestamp), creds.SecretKey),
		HeaderNonce:     nonce,
		HeaderTimestamp: timestamp,
		HeaderDeviceID:  creds.DeviceID,
	})
}

func TestReserveNotifyApproveFlow(t *testing.T) {
	s := newTestServer(t)
	creds := s.provision("manual")

	rec, env := s.admin(http.MethodPost, "/api/v1/reservations", map[string]interface{}{"base_amount": "500", "transaction_id": "order-42"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reserve: %d %s", rec.Code, rec.Body.String())
	}
	var reservation struct {
		UniqueAmount string `json:"unique_amount"`
	}
	_ = json.Unmarshal(env.Data, &reservation)
	if reservation.UniqueAmount != "500.01" {
		t.Fatalf("expected unique amount 500.01, got %q", reservation.UniqueAmount)
	}

	rec, env = s.notify(creds, reservation.UniqueAmount, "nonce-1")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("notify: %d %s", rec.Code, rec.Body.String())
	}
	var notification struct {
		Matched        bool   `json:"matched"`
		ApprovalID     string `json:"approval_id"`
		ApprovalStatus string `json:"approval_status"`
	}
	_ = json.Unmarshal(env.Data, &notification)
	if !notification.Matched || notification.ApprovalStatus != "pending_review" {
		t.Fatalf("expected matched notification awaiting review, got %+v", notification)
	}

	rec, _ = s.notify(creds, reservation.UniqueAmount, "nonce-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a replayed nonce, got %d", rec.Code)
	}

	rec, env = s.admin(http.MethodGet, "/api/v1/approvals?status=pending_review", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list approvals: %d %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(env.Data, &list)
	if list.Count != 1 {
		t.Fatalf("expected one pending approval, got %d", list.Count)
	}

	approvePath := "/api/v1/approvals/" + notification.ApprovalID + "/approve"
	rec, env = s.admin(http.MethodPost, approvePath, map[string]string{"approved_by": "carol"})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body.String())
	}
	var approval struct {
		Status        string `json:"status"`
		SyncedVersion int64  `json:"synced_version"`
	}
	_ = json.Unmarshal(env.Data, &approval)
	if approval.Status != "manually_approved" || approval.SyncedVersion != 2 {
		t.Fatalf("unexpected approval %+v", approval)
	}

	rec, _ = s.admin(http.MethodPost, approvePath, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 approving twice, got %d", rec.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(http.MethodPost, "/api/v1/devices", map[string]string{"device_name": "x"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	rec, _ = s.do(http.MethodGet, "/api/v1/approvals", nil, map[string]string{middleware.AdminTokenHeader: "guess"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)
	creds := s.provision("auto")

	rec, env := s.admin(http.MethodPost, "/api/v1/reservations", map[string]interface{}{"base_amount": "100.50", "transaction_id": "order-1"})
	if rec.Code != http.StatusUnprocessableEntity || env.Errors["base_amount"] == "" {
		t.Fatalf("expected 422 with base_amount detail, got %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = s.admin(http.MethodGet, "/api/v1/reservations/order-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown reservation, got %d", rec.Code)
	}

	rec, _ = s.admin(http.MethodGet, "/api/v1/approvals?updated_since=yesterday", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a bad cursor, got %d", rec.Code)
	}

	rec, _ = s.do(http.MethodGet, "/api/v1/device/status", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without api key, got %d", rec.Code)
	}

	rec, env = s.do(http.MethodGet, "/api/v1/device/status", nil, map[string]string{HeaderAPIKey: creds.APIKey})
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected device status, got %d %s", rec.Code, rec.Body.String())
	}

	blocked := "blocked"
	rec, _ = s.admin(http.MethodPatch, "/api/v1/devices/"+creds.DeviceID, map[string]*string{"status": &blocked})
	if rec.Code != http.StatusOK {
		t.Fatalf("block device: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = s.notify(creds, "10.00", "nonce-blocked")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for blocked device, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader("{not json"))
	raw := httptest.NewRecorder()
	s.handler.ServeHTTP(raw, req)
	if raw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed body, got %d", raw.Code)
	}
}

func TestExhaustedSuffixIsConflict(t *testing.T) {
	s := newTestServer(t)
	for i := 1; i <= domain.MaxSuffixesPerBaseAmount; i++ {
		rec, _ := s.admin(http.MethodPost, "/api/v1/reservations", map[string]interface{}{
			"base_amount":    7,
			"transaction_id": "order-" + strconv.Itoa(i),
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("reserve %d: %d", i, rec.Code)
		}
	}
	rec, _ := s.admin(http.MethodPost, "/api/v1/reservations", map[string]interface{}{"base_amount": 7, "transaction_id": "order-100"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 when suffixes run out, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	creds := s.provision("auto")
	s.notify(creds, "12.00", "nonce-1")

	rec, _ := s.do(http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}

	rec, _ = s.do(http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sms_ingestion_requests_total") {
		t.Fatalf("expected ingestion counter in metrics output, got %d", rec.Code)
	}
}

func TestDeviceApprovalFeedIsScopedToCaller(t *testing.T) {
	s := newTestServer(t)
	mine := s.provision("manual")
	other := s.provision("manual")

	for i := range []credentials{mine, other} {
		txID := "order-" + strconv.Itoa(i)
		if rec, _ := s.admin(http.MethodPost, "/api/v1/reservations", map[string]interface{}{"base_amount": "90", "transaction_id": txID}); rec.Code != http.StatusOK {
			t.Fatalf("reserve %s: %d %s", txID, rec.Code, rec.Body.String())
		}
	}
	if rec, _ := s.notify(mine, "90.01", "feed-nonce-1"); rec.Code != http.StatusOK {
		t.Fatalf("notify mine: %d %s", rec.Code, rec.Body.String())
	}
	if rec, _ := s.notify(other, "90.02", "feed-nonce-2"); rec.Code != http.StatusOK {
		t.Fatalf("notify other: %d %s", rec.Code, rec.Body.String())
	}

	headers := map[string]string{HeaderAPIKey: mine.APIKey, HeaderDeviceID: mine.DeviceID}
	rec, env := s.do(http.MethodGet, "/api/v1/device/approvals", nil, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("device feed: %d %s", rec.Code, rec.Body.String())
	}
	var list struct {
		Approvals []struct {
			DeviceID string `json:"device_id"`
		} `json:"approvals"`
		Count int `json:"count"`
	}
	_ = json.Unmarshal(env.Data, &list)
	if list.Count != 1 || list.Approvals[0].DeviceID != mine.DeviceID {
		t.Fatalf("expected only the caller's approval, got %+v", list)
	}

	rec, _ = s.do(http.MethodGet, "/api/v1/device/approvals?updated_since=yesterday", nil, headers)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a bad cursor, got %d", rec.Code)
	}
	rec, _ = s.do(http.MethodGet, "/api/v1/device/approvals", nil, map[string]string{HeaderAPIKey: "nope", HeaderDeviceID: mine.DeviceID})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad key, got %d", rec.Code)
	}
}
