package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/domain"
)

const SignatureHeader = "X-Callback-Signature"

// HTTPConfirmationNotifier posts a signed JSON callback to the order service.
type HTTPConfirmationNotifier struct {
	callbackURL string
	secret      []byte
	client      *http.Client
}

func NewHTTPConfirmationNotifier(callbackURL, secret string, timeout time.Duration) *HTTPConfirmationNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPConfirmationNotifier{
		callbackURL: callbackURL,
		secret:      []byte(secret),
		client:      &http.Client{Timeout: timeout},
	}
}

// SignBody returns the hex HMAC-SHA256 of body under secret.
func SignBody(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (n *HTTPConfirmationNotifier) ConfirmOrder(ctx context.Context, c domain.OrderConfirmation) error {
	body, err := json.Marshal(CallbackPayload{
		TransactionID:  c.TransactionID,
		ApprovalID:     c.ApprovalID,
		NotificationID: c.NotificationID,
		DeviceID:       c.DeviceID,
		Status:         "paid",
		Amount:         c.Amount.StringFixed(domain.MinorUnitExp),
		ApprovedBy:     c.ApprovedBy,
		ConfirmedAt:    c.ApprovedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal callback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if len(n.secret) > 0 {
		req.Header.Set(SignatureHeader, SignBody(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}
