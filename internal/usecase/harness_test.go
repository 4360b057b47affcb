package usecase

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/repository"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/postgres/sqlitetest"
	"github.com/xjanova/smschecker-sub001/internal/security"
	devicedto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/device"
	ingestiondto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/ingestion"
)

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []domain.OrderConfirmation
}

func (n *recordingNotifier) ConfirmOrder(_ context.Context, c domain.OrderConfirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, c)
	return nil
}

func (n *recordingNotifier) Calls() []domain.OrderConfirmation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.OrderConfirmation(nil), n.calls...)
}

type recordingAuditLog struct {
	mu      sync.Mutex
	entries []*domain.IngestionLog
}

func (l *recordingAuditLog) SaveIngestionLog(_ context.Context, entry *domain.IngestionLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *recordingAuditLog) GetIngestionLogs(context.Context, *domain.IngestionLogFilter) ([]*domain.IngestionLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*domain.IngestionLog(nil), l.entries...), nil
}

// harness wires every usecase against a private sqlite database.
type harness struct {
	t            *testing.T
	clock        *manualClock
	store        *repository.GormStore
	protocol     *security.Protocol
	notifier     *recordingNotifier
	auditLog     *recordingAuditLog
	devices      *DefaultDeviceUsecase
	reservations *DefaultReservationUsecase
	approvals    *DefaultApprovalUsecase
	ingestion    *DefaultIngestionUsecase
	replay       *ReplayGuard
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		clock:    &manualClock{now: testNow},
		store:    repository.NewGormStore(sqlitetest.NewDB(t)),
		protocol: security.NewProtocolWithIterations(1000),
		notifier: &recordingNotifier{},
		auditLog: &recordingAuditLog{},
	}
	clock := Clock(h.clock.Now)
	logger := discardLogger()

	h.devices = NewDefaultDeviceUsecase(h.store, domain.ApprovalModeAuto, clock)
	h.reservations = NewDefaultReservationUsecase(h.store, 30*time.Minute, nil, nil, clock, logger)
	h.approvals = NewDefaultApprovalUsecase(h.store, nil, h.notifier, nil, nil, time.Hour, clock, logger)
	h.replay = NewReplayGuard(nil, 24*time.Hour, clock, logger)
	h.ingestion = NewDefaultIngestionUsecase(IngestionDeps{
		Store:        h.store,
		Protocol:     h.protocol,
		Devices:      h.devices,
		Replay:       h.replay,
		Reservations: h.reservations,
		Approvals:    h.approvals,
		AuditLog:     h.auditLog,
		Tolerance:    300 * time.Second,
		Clock:        clock,
		Logger:       logger,
	})
	return h
}

func (h *harness) newDevice(mode domain.ApprovalMode) *devicedto.DeviceCredentialsOutput {
	h.t.Helper()
	creds, err := h.devices.CreateDevice(context.Background(), &devicedto.CreateDeviceInput{
		DeviceName:   "till " + string(mode),
		ApprovalMode: string(mode),
	})
	if err != nil {
		h.t.Fatalf("create device: %v", err)
	}
	return creds
}

type smsPayload struct {
	Bank         string `json:"bank"`
	Type         string `json:"type"`
	Amount       string `json:"amount"`
	SMSTimestamp int64  `json:"sms_timestamp"`
	DeviceID     string `json:"device_id"`
	Nonce        string `json:"nonce"`
}

// request builds a signed, encrypted ingestion request the way a device would.
func (h *harness) request(creds *devicedto.DeviceCredentialsOutput, txType, amount, nonce string, sentAt time.Time) *ingestiondto.IngestInput {
	h.t.Helper()
	body, err := json.Marshal(smsPayload{
		Bank:         "KBANK",
		Type:         txType,
		Amount:       amount,
		SMSTimestamp: sentAt.UnixMilli(),
		DeviceID:     creds.DeviceID,
		Nonce:        nonce,
	})
	if err != nil {
		h.t.Fatalf("marshal payload: %v", err)
	}
	return h.sealed(creds, body, nonce, sentAt)
}

func (h *harness) sealed(creds *devicedto.DeviceCredentialsOutput, body []byte, nonce string, sentAt time.Time) *ingestiondto.IngestInput {
	h.t.Helper()
	data, err := h.protocol.Encrypt(body, creds.SecretKey)
	if err != nil {
		h.t.Fatalf("encrypt payload: %v", err)
	}
	timestamp := strconv.FormatInt(sentAt.UnixMilli(), 10)
	return &ingestiondto.IngestInput{
		APIKey:    creds.APIKey,
		Signature: h.protocol.Sign(security.SignatureInput(data, nonce, timestamp), creds.SecretKey),
		Nonce:     nonce,
		Timestamp: timestamp,
		DeviceID:  creds.DeviceID,
		Data:      data,
	}
}
