package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrunmayeeCom/Tally-Connector/license"
	"github.com/MrunmayeeCom/Tally-Connector/payment"

	"go.uber.org/zap"
)

func newServiceFixture(t *testing.T) (*Service, *managerFixture) {
	t.Helper()
	f := newTestManager(t)
	service, err := NewService(ServiceOptions{
		Manager: f.manager,
		Logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("unexpected error creating service: %v", err)
	}
	return service, f
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestBeginHTTP(t *testing.T) {
	service, f := newServiceFixture(t)

	w := doJSON(t, service.Router(), http.MethodPost, "/", `{
		"planId": "plan-business",
		"companyName": "Acme Traders",
		"email": "acme@example.com",
		"phone": "+911234567890",
		"billingCycle": "yearly"
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var env struct {
		Result BeginResult `json:"result"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if env.Result.Order == nil || env.Result.Order.OrderID != "order-1" {
		t.Errorf("expected the gateway order in the envelope, got %+v", env.Result.Order)
	}
	if env.Result.Attempt == nil || env.Result.Attempt.State != StatePending {
		t.Errorf("expected a pending attempt in the envelope, got %+v", env.Result.Attempt)
	}
	if f.gateway.orderCalls != 1 {
		t.Errorf("expected one order call, got %d", f.gateway.orderCalls)
	}
}

func TestBeginHTTPValidation(t *testing.T) {
	service, _ := newServiceFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `nope`},
		{name: "missing plan", body: `{"companyName": "Acme", "email": "acme@example.com", "billingCycle": "yearly"}`},
		{name: "bad email", body: `{"planId": "plan-business", "companyName": "Acme", "email": "nope", "billingCycle": "yearly"}`},
		{name: "bad cycle", body: `{"planId": "plan-business", "companyName": "Acme", "email": "acme@example.com", "billingCycle": "weekly"}`},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, service.Router(), http.MethodPost, "/", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestBeginHTTPUnknownPlan(t *testing.T) {
	service, _ := newServiceFixture(t)

	w := doJSON(t, service.Router(), http.MethodPost, "/", `{
		"planId": "plan-nonexistent",
		"companyName": "Acme Traders",
		"email": "acme@example.com",
		"billingCycle": "monthly"
	}`)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestBeginHTTPTransactionDataMissing(t *testing.T) {
	service, f := newServiceFixture(t)
	f.licenses.purchaseErr = license.ErrTransactionDataMissing

	w := doJSON(t, service.Router(), http.MethodPost, "/", `{
		"planId": "plan-business",
		"companyName": "Acme Traders",
		"email": "acme@example.com",
		"billingCycle": "monthly"
	}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestVerifyHTTP(t *testing.T) {
	service, f := newServiceFixture(t)

	begin, err := f.manager.Begin(context.Background(), beginRequest("plan-business", license.CycleYearly))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := doJSON(t, service.Router(), http.MethodPost, "/"+begin.Attempt.ID+"/verify", `{
		"paymentId": "pay-1",
		"orderId": "order-1",
		"signature": "sig"
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var env struct {
		Result Attempt `json:"result"`
	}
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if env.Result.State != StatePaid {
		t.Errorf("expected Paid attempt in the envelope, got %s", env.Result.State)
	}

	// a second verification hits the settled attempt
	w = doJSON(t, service.Router(), http.MethodPost, "/"+begin.Attempt.ID+"/verify", `{
		"paymentId": "pay-1",
		"orderId": "order-1",
		"signature": "sig"
	}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on the second verification, got %d", w.Code)
	}
}

func TestVerifyHTTPUnknownAttempt(t *testing.T) {
	service, _ := newServiceFixture(t)

	w := doJSON(t, service.Router(), http.MethodPost, "/nonexistent/verify", `{
		"paymentId": "pay-1",
		"orderId": "order-1",
		"signature": "sig"
	}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestVerifyHTTPRejectedSignature(t *testing.T) {
	service, f := newServiceFixture(t)

	begin, err := f.manager.Begin(context.Background(), beginRequest("plan-business", license.CycleYearly))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.gateway.verifyErr = payment.ErrVerificationFailed

	w := doJSON(t, service.Router(), http.MethodPost, "/"+begin.Attempt.ID+"/verify", `{
		"paymentId": "pay-1",
		"orderId": "order-1",
		"signature": "bad-sig"
	}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetAttemptHTTP(t *testing.T) {
	service, f := newServiceFixture(t)

	begin, err := f.manager.Begin(context.Background(), beginRequest("plan-business", license.CycleYearly))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := doJSON(t, service.Router(), http.MethodGet, "/"+begin.Attempt.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doJSON(t, service.Router(), http.MethodGet, "/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
