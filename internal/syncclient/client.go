package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/config"
	approvalResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/approval/response"
	ingestionRequest "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/ingestion/request"
	ingestionResponse "github.com/xjanova/smschecker-sub001/internal/delivery/http/dto/ingestion/response"
	"github.com/xjanova/smschecker-sub001/internal/delivery/http/handlers"
	"github.com/xjanova/smschecker-sub001/internal/security"
)

const (
	notificationsPath   = "/api/v1/notifications"
	deviceStatusPath    = "/api/v1/device/status"
	deviceApprovalsPath = "/api/v1/device/approvals"

	maxResponseBody = 1 << 20
)

// Notification is a parsed bank SMS ready to be pushed.
type Notification struct {
	Bank             string
	Type             string
	Amount           decimal.Decimal
	AccountNumber    string
	SenderOrReceiver string
	ReferenceNumber  string
	SMSTimestamp     time.Time
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// ServerClient talks to one server as one provisioned device.
type ServerClient struct {
	target   config.ServerTarget
	baseURL  string
	protocol *security.Protocol
	http     *http.Client
	now      func() time.Time
	logger   *slog.Logger
}

func NewServerClient(target config.ServerTarget, protocol *security.Protocol, httpClient *http.Client, logger *slog.Logger) *ServerClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if protocol == nil {
		protocol = security.NewProtocol()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ServerClient{
		target:   target,
		baseURL:  strings.TrimRight(target.URL, "/"),
		protocol: protocol,
		http:     httpClient,
		now:      time.Now,
		logger:   logger.With("server", target.ID),
	}
}

func (c *ServerClient) Target() Target {
	return Target{ID: c.target.ID, Name: c.target.Name}
}

// SealedRequest is an encrypted and signed notification. It is built once
// so retries resend the same nonce and the server can reject duplicates.
type SealedRequest struct {
	Data      string
	Nonce     string
	Timestamp string
	Signature string
}

func (c *ServerClient) Seal(n Notification) (*SealedRequest, error) {
	nonce, err := c.protocol.Nonce()
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"bank":          n.Bank,
		"type":          n.Type,
		"amount":        n.Amount.StringFixed(2),
		"sms_timestamp": n.SMSTimestamp.UnixMilli(),
		"device_id":     c.target.DeviceID,
		"nonce":         nonce,
	}
	if n.AccountNumber != "" {
		payload["account_number"] = n.AccountNumber
	}
	if n.SenderOrReceiver != "" {
		payload["sender_or_receiver"] = n.SenderOrReceiver
	}
	if n.ReferenceNumber != "" {
		payload["reference_number"] = n.ReferenceNumber
	}
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	data, err := c.protocol.Encrypt(plaintext, c.target.SecretKey)
	if err != nil {
		return nil, err
	}
	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	return &SealedRequest{
		Data:      data,
		Nonce:     nonce,
		Timestamp: timestamp,
		Signature: c.protocol.Sign(security.SignatureInput(data, nonce, timestamp), c.target.SecretKey),
	}, nil
}

func (c *ServerClient) Send(ctx context.Context, sealed *SealedRequest) (*ingestionResponse.NotificationResponse, error) {
	body, err := json.Marshal(ingestionRequest.NotificationRequest{Data: sealed.Data})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+notificationsPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)
	req.Header.Set(handlers.HeaderSignature, sealed.Signature)
	req.Header.Set(handlers.HeaderNonce, sealed.Nonce)
	req.Header.Set(handlers.HeaderTimestamp, sealed.Timestamp)

	var out ingestionResponse.NotificationResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *ServerClient) DeviceStatus(ctx context.Context) (*ingestionResponse.DeviceStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+deviceStatusPath, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var out ingestionResponse.DeviceStatusResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Approvals pulls this device's approvals changed at or after since. A zero
// since returns the whole feed.
func (c *ServerClient) Approvals(ctx context.Context, since time.Time) ([]approvalResponse.ApprovalResponse, error) {
	endpoint := c.baseURL + deviceApprovalsPath
	if !since.IsZero() {
		endpoint += "?" + url.Values{"updated_since": {since.UTC().Format(time.RFC3339)}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	var out approvalResponse.ApprovalListResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Approvals, nil
}

func (c *ServerClient) authorize(req *http.Request) {
	req.Header.Set(handlers.HeaderAPIKey, c.target.APIKey)
	req.Header.Set(handlers.HeaderDeviceID, c.target.DeviceID)
	req.Header.Set("Accept", "application/json")
}

func (c *ServerClient) do(req *http.Request, dst interface{}) error {
	started := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("server replied",
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", c.now().Sub(started).Milliseconds(),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			statusErr.Message = describe(env)
		}
		return statusErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if dst == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func describe(env envelope) string {
	if len(env.Errors) == 0 {
		return env.Message
	}
	fields := make([]string, 0, len(env.Errors))
	for field, msg := range env.Errors {
		fields = append(fields, field+" "+msg)
	}
	sort.Strings(fields)
	return env.Message + " (" + strings.Join(fields, "; ") + ")"
}
