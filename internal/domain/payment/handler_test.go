package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/numcheck/numcheck-api/internal/domain/payment"
	"github.com/numcheck/numcheck-api/internal/middleware"
)

type stepChecker struct {
	statuses []payment.Status
	calls    int
}

func (c *stepChecker) CheckOnce(ctx context.Context, externalID string) (payment.Status, error) {
	status := c.statuses[len(c.statuses)-1]
	if c.calls < len(c.statuses) {
		status = c.statuses[c.calls]
	}
	c.calls++
	return status, nil
}

func awaitRouter(h *payment.Handler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/payments/await/{session_id}", h.Await)
	return r
}

func TestAwaitEndpointReportsPaidOutcome(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	userID := createTestUser(t, db, 0)
	svc, _ := newTestService(db)
	createPendingSession(t, db, userID, "cs_await", 100)

	checker := &stepChecker{statuses: []payment.Status{payment.StatusPending, payment.StatusPaid}}
	handler := payment.NewHandler(svc, payment.NewWatcher(checker, time.Millisecond, 5))

	req := httptest.NewRequest(http.MethodGet, "/payments/await/cs_await", nil)
	w := httptest.NewRecorder()
	awaitRouter(handler, userID).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"outcome":"paid"`) {
		t.Fatalf("expected paid outcome, got %s", body)
	}
	if checker.calls != 2 {
		t.Fatalf("expected 2 checks, got %d", checker.calls)
	}
}

func TestAwaitEndpointHidesForeignSession(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	ownerID := createTestUser(t, db, 0)
	otherID := createTestUser(t, db, 0)
	svc, _ := newTestService(db)
	createPendingSession(t, db, ownerID, "cs_foreign", 100)

	checker := &stepChecker{statuses: []payment.Status{payment.StatusPaid}}
	handler := payment.NewHandler(svc, payment.NewWatcher(checker, time.Millisecond, 5))

	req := httptest.NewRequest(http.MethodGet, "/payments/await/cs_foreign", nil)
	w := httptest.NewRecorder()
	awaitRouter(handler, otherID).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's session, got %d", w.Code)
	}
	if checker.calls != 0 {
		t.Fatalf("expected no provider checks, got %d", checker.calls)
	}
}
