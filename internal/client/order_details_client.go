package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type orderDetailsResponse struct {
	TransactionID string            `json:"transaction_id"`
	Reference     string            `json:"reference"`
	CustomerName  string            `json:"customer_name"`
	Amount        decimal.Decimal   `json:"amount"`
	Metadata      map[string]string `json:"metadata"`
}

// HTTPOrderDetailsResolver looks orders up at {baseURL}/orders/{transaction_id}.
type HTTPOrderDetailsResolver struct {
	baseURL string
	client  *http.Client
}

func NewHTTPOrderDetailsResolver(baseURL string, timeout time.Duration) *HTTPOrderDetailsResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPOrderDetailsResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *HTTPOrderDetailsResolver) ResolveOrder(ctx context.Context, transactionID string) (*domain.OrderDetails, error) {
	endpoint := fmt.Sprintf("%s/orders/%s", r.baseURL, url.PathEscape(transactionID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("order details request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrOrderNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("order details returned status %d", resp.StatusCode)
	}

	var body orderDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode order details: %w", err)
	}
	if body.TransactionID == "" {
		body.TransactionID = transactionID
	}
	return &domain.OrderDetails{
		TransactionID: body.TransactionID,
		Reference:     body.Reference,
		CustomerName:  body.CustomerName,
		Amount:        body.Amount,
		Metadata:      body.Metadata,
	}, nil
}
