package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeRepo struct {
	admins map[uuid.UUID]*AdminUser
	audits []*AuditLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{admins: make(map[uuid.UUID]*AdminUser)}
}

func (f *fakeRepo) CreateAdmin(_ context.Context, a *AdminUser) error {
	f.admins[a.ID] = a
	return nil
}

func (f *fakeRepo) GetAdminByID(_ context.Context, id uuid.UUID) (*AdminUser, error) {
	return f.admins[id], nil
}

func (f *fakeRepo) GetAdminByEmail(_ context.Context, email string) (*AdminUser, error) {
	for _, a := range f.admins {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListAdmins(_ context.Context) ([]*AdminUser, error) {
	out := make([]*AdminUser, 0, len(f.admins))
	for _, a := range f.admins {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeRepo) UpdateAdmin(_ context.Context, a *AdminUser) error {
	f.admins[a.ID] = a
	return nil
}

func (f *fakeRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

func (f *fakeRepo) CreateAuditLog(_ context.Context, entry *AuditLog) error {
	f.audits = append(f.audits, entry)
	return nil
}

func (f *fakeRepo) ListAuditLogs(_ context.Context, _ AuditFilter) ([]*AuditLog, int, error) {
	return f.audits, len(f.audits), nil
}

func (f *fakeRepo) GetDashboardStats(_ context.Context) (*DashboardStats, error) {
	return &DashboardStats{}, nil
}

func seedAdmin(repo *fakeRepo, role Role, active bool) *AdminUser {
	a := &AdminUser{
		ID:        uuid.New(),
		Email:     string(role) + "@numcheck.test",
		Role:      role,
		Name:      "Test Admin",
		IsActive:  active,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	repo.admins[a.ID] = a
	return a
}

func TestAuthMiddlewareAllowsActiveAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	jwtSvc := NewJWTService("test-secret", time.Hour)

	adm := seedAdmin(repo, RoleAdmin, true)
	token, err := jwtSvc.GenerateToken(adm)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var gotID uuid.UUID
	var gotRole Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetAdminID(r.Context())
		gotRole = GetAdminRole(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtSvc, svc)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != adm.ID {
		t.Errorf("expected admin ID %s in context, got %s", adm.ID, gotID)
	}
	if gotRole != RoleAdmin {
		t.Errorf("expected role admin in context, got %q", gotRole)
	}
}

func TestAuthMiddlewareBlocksInactiveAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	jwtSvc := NewJWTService("test-secret", time.Hour)

	adm := seedAdmin(repo, RoleAdmin, false)
	token, _ := jwtSvc.GenerateToken(adm)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtSvc, svc)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	jwtSvc := NewJWTService("test-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtSvc, svc)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequirePermissionDeniesSupportRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		role Role
		want int
	}{
		{RoleSuperAdmin, http.StatusOK},
		{RoleAdmin, http.StatusOK},
		{RoleSupport, http.StatusForbidden},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/admin/bulk-credit-management", nil)
		ctx := context.WithValue(req.Context(), ContextAdminRole, tc.role)
		rec := httptest.NewRecorder()

		RequirePermission(PermBulkCredits)(next).ServeHTTP(rec, req.WithContext(ctx))

		if rec.Code != tc.want {
			t.Errorf("role %s: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
	}
}
