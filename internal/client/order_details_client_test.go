package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPOrderDetailsResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/orders/order-1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"reference":"INV-7","customer_name":"Somchai","amount":"100.37"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	r := NewHTTPOrderDetailsResolver(srv.URL+"/", time.Second)
	details, err := r.ResolveOrder(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if details.TransactionID != "order-1" || details.Reference != "INV-7" || details.Amount.String() != "100.37" {
		t.Fatalf("unexpected details %+v", details)
	}

	if _, err := r.ResolveOrder(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
