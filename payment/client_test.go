package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrunmayeeCom/Tally-Connector/external"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(ClientOptions{
		Client: external.NewClient(srv.URL, "test-key"),
		Logger: zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	return client
}

func TestCreateOrder(t *testing.T) {
	t.Run("returns the gateway order", func(t *testing.T) {
		var received OrderRequest
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/payment/order" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("cannot decode request: %v", err)
			}
			fmt.Fprint(w, `{"orderId": "order-1", "key": "rzp-key", "amount": 1132800, "currency": "INR"}`)
		}))

		order, err := client.CreateOrder(context.Background(), OrderRequest{
			UserID:       "user-1",
			LicenseID:    "lic-business",
			BillingCycle: "yearly",
			Amount:       1132800,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.OrderID != "order-1" {
			t.Errorf("expected order id order-1, got %s", order.OrderID)
		}
		if order.Key != "rzp-key" {
			t.Errorf("expected checkout key, got %s", order.Key)
		}
		if received.Amount != 1132800 {
			t.Errorf("expected amount in minor units, got %d", received.Amount)
		}
	})

	t.Run("missing order id is a hard error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}))

		_, err := client.CreateOrder(context.Background(), OrderRequest{})
		if !errors.Is(err, ErrOrderDataMissing) {
			t.Fatalf("expected ErrOrderDataMissing, got %v", err)
		}
	})

	t.Run("upstream error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		if _, err := client.CreateOrder(context.Background(), OrderRequest{}); err == nil {
			t.Fatalf("expected error on HTTP 502")
		}
	})
}

func TestVerify(t *testing.T) {
	t.Run("verified payment", func(t *testing.T) {
		var received VerifyRequest
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/payment/verify" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Errorf("cannot decode request: %v", err)
			}
			fmt.Fprint(w, `{"success": true}`)
		}))

		err := client.Verify(context.Background(), VerifyRequest{
			TransactionID: "txn-1",
			PaymentID:     "pay-1",
			OrderID:       "order-1",
			Signature:     "sig",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if received.TransactionID != "txn-1" {
			t.Errorf("expected transaction id forwarded, got %s", received.TransactionID)
		}
	})

	t.Run("gateway rejects the signature", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"success": false}`)
		}))

		err := client.Verify(context.Background(), VerifyRequest{})
		if !errors.Is(err, ErrVerificationFailed) {
			t.Fatalf("expected ErrVerificationFailed, got %v", err)
		}
	})

	t.Run("non-200 is a verification failure", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))

		err := client.Verify(context.Background(), VerifyRequest{})
		if !errors.Is(err, ErrVerificationFailed) {
			t.Fatalf("expected ErrVerificationFailed, got %v", err)
		}
	})
}
