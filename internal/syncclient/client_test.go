package syncclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/config"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/handlers"
	"github.com/xjanova/smschecker-sub001/internal/security"
)

const testIterations = 1000

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// deviceServer is a stand-in server that checks signatures the same way the
// real ingestion endpoint does.
type deviceServer struct {
	target   config.ServerTarget
	protocol *security.Protocol

	mu         sync.Mutex
	failFirst  int
	nonces     []string
	payloads   []map[string]interface{}
	lastCursor string
}

func newDeviceServer(t *testing.T, id string) (*deviceServer, *httptest.Server) {
	s := &deviceServer{
		protocol: security.NewProtocolWithIterations(testIterations),
		target: config.ServerTarget{
			ID:        id,
			Name:      id,
			APIKey:    "key-" + id,
			SecretKey: "secret-" + id,
			DeviceID:  "phone-" + id,
		},
	}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	s.target.URL = srv.URL
	return s, srv
}

func (s *deviceServer) reply(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *deviceServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(handlers.HeaderAPIKey) != s.target.APIKey || r.Header.Get(handlers.HeaderDeviceID) != s.target.DeviceID {
		s.reply(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "invalid api key"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFirst > 0 {
		s.failFirst--
		s.reply(w, http.StatusServiceUnavailable, map[string]interface{}{"success": false, "message": "try later"})
		return
	}

	switch r.URL.Path {
	case notificationsPath:
		var body struct {
			Data string `json:"data"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		nonce := r.Header.Get(handlers.HeaderNonce)
		signed := security.SignatureInput(body.Data, nonce, r.Header.Get(handlers.HeaderTimestamp))
		if !s.protocol.Verify(signed, r.Header.Get(handlers.HeaderSignature), s.target.SecretKey) {
			s.reply(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "invalid signature"})
			return
		}
		for _, seen := range s.nonces {
			if seen == nonce {
				s.reply(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "duplicate nonce"})
				return
			}
		}
		plaintext, err := s.protocol.Decrypt(body.Data, s.target.SecretKey)
		if err != nil {
			s.reply(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "invalid signature"})
			return
		}
		var payload map[string]interface{}
		_ = json.Unmarshal(plaintext, &payload)
		s.nonces = append(s.nonces, nonce)
		s.payloads = append(s.payloads, payload)
		s.reply(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "notification matched",
			"data": map[string]interface{}{
				"notification_id":        "n-1",
				"status":                 "matched",
				"matched":                true,
				"matched_transaction_id": "order-1",
			},
		})
	case deviceStatusPath:
		s.reply(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"device_id":             s.target.DeviceID,
				"status":                "active",
				"approval_mode":         "smart",
				"pending_notifications": 2,
			},
		})
	case deviceApprovalsPath:
		s.lastCursor = r.URL.Query().Get("updated_since")
		s.reply(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"approvals": []map[string]interface{}{{"id": "ap-1", "status": "auto_approved", "synced_version": 2}},
				"count":     1,
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func (s *deviceServer) accepted() ([]string, []map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.nonces...), append([]map[string]interface{}(nil), s.payloads...)
}

func (s *deviceServer) cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCursor
}

func sampleNotification() Notification {
	return Notification{
		Bank:          "KBANK",
		Type:          "credit",
		Amount:        decimal.RequireFromString("500.37"),
		AccountNumber: "xxx-1234",
		SMSTimestamp:  time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestServerClientPushSealsPayload(t *testing.T) {
	server, _ := newDeviceServer(t, "primary")
	client := NewServerClient(server.target, security.NewProtocolWithIterations(testIterations), nil, quietLogger)

	sealed, err := client.Seal(sampleNotification())
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	out, err := client.Send(context.Background(), sealed)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !out.Matched || out.MatchedTransactionID != "order-1" {
		t.Fatalf("unexpected response %+v", out)
	}

	_, payloads := server.accepted()
	payload := payloads[0]
	if payload["amount"] != "500.37" || payload["device_id"] != "phone-primary" || payload["nonce"] != sealed.Nonce {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["sender_or_receiver"]; ok {
		t.Fatalf("empty optional fields should be omitted: %v", payload)
	}

	_, err = client.Send(context.Background(), sealed)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest || IsNetworkError(err) {
		t.Fatalf("expected a non-retryable 400 on resend, got %v", err)
	}
}

func TestServerClientRejectsWrongSecret(t *testing.T) {
	server, _ := newDeviceServer(t, "primary")
	target := server.target
	target.SecretKey = "not-the-secret"
	client := NewServerClient(target, security.NewProtocolWithIterations(testIterations), nil, quietLogger)

	sealed, err := client.Seal(sampleNotification())
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	_, err = client.Send(context.Background(), sealed)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "invalid signature" {
		t.Fatalf("expected invalid signature, got %v", err)
	}
}

func testClientConfig(servers ...config.ServerTarget) *config.ClientConfig {
	return &config.ClientConfig{
		Servers: servers,
		Sync: config.SyncSettings{
			ConcurrencyLimit:  2,
			OperationTimeout:  2 * time.Second,
			MaxAttempts:       3,
			InitialDelay:      time.Millisecond,
			MaxDelay:          5 * time.Millisecond,
			BackoffMultiplier: 2,
			KeyIterations:     testIterations,
		},
	}
}

func TestFleetPushRetriesAndReports(t *testing.T) {
	flaky, _ := newDeviceServer(t, "flaky")
	flaky.failFirst = 2
	steady, _ := newDeviceServer(t, "steady")
	down, downSrv := newDeviceServer(t, "down")
	downSrv.Close()

	fleet, err := NewFleet(testClientConfig(flaky.target, steady.target, down.target), nil, quietLogger)
	if err != nil {
		t.Fatalf("new fleet: %v", err)
	}
	report := fleet.Push(context.Background(), sampleNotification())

	if report.SuccessCount != 2 || report.FailureCount != 1 {
		t.Fatalf("expected 2/1, got %d/%d", report.SuccessCount, report.FailureCount)
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].TargetID != "down" || !errors.Is(failed[0].Err, ErrRetryExhausted) {
		t.Fatalf("expected the closed server to exhaust retries, got %+v", failed)
	}
	flakyNonces, _ := flaky.accepted()
	steadyNonces, _ := steady.accepted()
	if len(flakyNonces) != 1 || len(steadyNonces) != 1 {
		t.Fatalf("expected one accepted push per live server, got %d and %d", len(flakyNonces), len(steadyNonces))
	}
	if flakyNonces[0] == steadyNonces[0] {
		t.Fatal("each server should get its own nonce")
	}
}

func TestFleetStatusAndApprovals(t *testing.T) {
	primary, _ := newDeviceServer(t, "primary")
	fleet, err := NewFleet(testClientConfig(primary.target), nil, quietLogger)
	if err != nil {
		t.Fatalf("new fleet: %v", err)
	}

	status, err := fleet.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.TargetID != "primary" || status.Data.ApprovalMode != "smart" || status.Data.PendingNotifications != 2 {
		t.Fatalf("unexpected status %+v", status)
	}

	since := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	approvals, err := fleet.Approvals(context.Background(), since)
	if err != nil {
		t.Fatalf("approvals: %v", err)
	}
	if len(approvals) != 1 || approvals[0].SyncedVersion != 2 {
		t.Fatalf("unexpected approvals %+v", approvals)
	}
	if got := primary.cursor(); got != "2025-03-14T08:00:00Z" {
		t.Fatalf("expected RFC 3339 cursor, got %q", got)
	}

	report := fleet.ApprovalsEverywhere(context.Background(), time.Time{})
	if report.SuccessCount != 1 || primary.cursor() != "" {
		t.Fatalf("expected an uncursored full read, got %+v cursor %q", report, primary.cursor())
	}
}

func TestFleetNeedsEnabledServers(t *testing.T) {
	cfg := testClientConfig(config.ServerTarget{ID: "off", URL: "http://127.0.0.1:1", Disabled: true})
	if _, err := NewFleet(cfg, nil, quietLogger); !errors.Is(err, ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
}
