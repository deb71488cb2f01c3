package admin

import (
	"context"
	"testing"

	"github.com/numcheck/numcheck-api/internal/pkg/password"
)

func TestLoginRecordsLastLoginAndRejectsBadPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	adm := seedAdmin(repo, RoleAdmin, true)
	hash, err := password.Hash("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	adm.PasswordHash = hash

	if _, err := svc.Login(context.Background(), adm.Email, "correct-horse", "127.0.0.1"); err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}

	if _, err := svc.Login(context.Background(), adm.Email, "wrong", "127.0.0.1"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}

	if _, err := svc.Login(context.Background(), "nobody@numcheck.test", "whatever", "127.0.0.1"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLoginRejectsInactiveAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	adm := seedAdmin(repo, RoleSupport, false)
	hash, _ := password.Hash("correct-horse")
	adm.PasswordHash = hash

	if _, err := svc.Login(context.Background(), adm.Email, "correct-horse", "127.0.0.1"); err != ErrAdminInactive {
		t.Fatalf("expected ErrAdminInactive, got %v", err)
	}
}

func TestUpdateAdminEnforcesRoleHierarchy(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	super := seedAdmin(repo, RoleSuperAdmin, true)
	regular := seedAdmin(repo, RoleAdmin, true)
	support := seedAdmin(repo, RoleSupport, true)

	// admin cannot manage another admin (equal rank)
	name := "renamed"
	if _, err := svc.UpdateAdmin(context.Background(), regular.ID, regular.ID, &UpdateAdminRequest{Name: &name}); err != ErrCannotManageRole {
		t.Errorf("expected ErrCannotManageRole for equal rank, got %v", err)
	}

	// admin can manage support
	if _, err := svc.UpdateAdmin(context.Background(), regular.ID, support.ID, &UpdateAdminRequest{Name: &name}); err != nil {
		t.Errorf("expected admin to manage support, got %v", err)
	}

	// super_admin can manage admin, and the change is audited
	inactive := false
	updated, err := svc.UpdateAdmin(context.Background(), super.ID, regular.ID, &UpdateAdminRequest{IsActive: &inactive})
	if err != nil {
		t.Fatalf("expected super_admin to manage admin, got %v", err)
	}
	if updated.IsActive {
		t.Error("expected admin to be deactivated")
	}
	if len(repo.audits) == 0 {
		t.Error("expected an audit log entry for the update")
	}
}

func TestCreateAdminRejectsTakenEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	super := seedAdmin(repo, RoleSuperAdmin, true)

	req := &CreateAdminRequest{
		Email:    "ops@numcheck.test",
		Password: "long-enough-pass",
		Role:     string(RoleSupport),
		Name:     "Ops Person",
	}

	if _, err := svc.CreateAdmin(context.Background(), super.ID, req); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.CreateAdmin(context.Background(), super.ID, req); err != ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}
