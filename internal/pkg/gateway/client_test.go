package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer merchant-1" {
			t.Errorf("unexpected auth header: %s", got)
		}

		var req CreateSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.OrderID != "order-42" || req.Amount != 990 {
			t.Errorf("unexpected payload: %+v", req)
		}

		json.NewEncoder(w).Encode(CreateSessionResponse{
			SessionID:   "cs_test_1",
			CheckoutURL: "https://pay.example.com/cs_test_1",
			Status:      SessionPending,
		})
	}))
	defer srv.Close()

	client := NewClient(Config{
		BaseURL:    srv.URL,
		MerchantID: "merchant-1",
		SecretKey:  "secret",
		Timeout:    2 * time.Second,
	})

	out, err := client.CreateSession(context.Background(), CreateSessionRequest{
		Amount:   990,
		Currency: "USD",
		OrderID:  "order-42",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.SessionID != "cs_test_1" || out.Status != SessionPending {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestCreateSession_Validation(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost", MerchantID: "m"})

	if _, err := client.CreateSession(context.Background(), CreateSessionRequest{Amount: 0, OrderID: "x"}); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if _, err := client.CreateSession(context.Background(), CreateSessionRequest{Amount: 10, OrderID: " "}); err == nil {
		t.Fatal("expected error for empty order id")
	}
}

func TestGetSession(t *testing.T) {
	paidAt := time.Now().UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sessions/cs_test_1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(SessionStatus{
			SessionID: "cs_test_1",
			Status:    SessionPaid,
			PaidAt:    &paidAt,
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, MerchantID: "merchant-1"})

	out, err := client.GetSession(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != SessionPaid {
		t.Fatalf("expected paid status, got %s", out.Status)
	}
}

func TestGetSession_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, MerchantID: "merchant-1"})

	if _, err := client.GetSession(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
