package credit_test

import (
	"context"
	"errors"
	"testing"

	_ "github.com/lib/pq"

	"github.com/numcheck/numcheck-api/internal/domain/credit"
	"github.com/numcheck/numcheck-api/internal/domain/user"
)

func TestBulkAdjustPartialFailure(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	alice := createTestUserWithCredits(t, db, 0)
	bob := createTestUserWithCredits(t, db, 50)

	coordinator := credit.NewBulkCoordinator(credit.NewService(db), user.NewRepository(db))

	result, err := coordinator.Apply(context.Background(),
		[]string{alice.Email, bob.Email, "ghost@test.com"},
		credit.Adjustment{Action: credit.ActionAdd, Amount: 100, Reason: "promo"},
		credit.Actor{Kind: credit.ActorAdmin},
	)
	requireNoError(t, err)

	if result.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", result.Processed)
	}
	if result.Failed != 1 {
		t.Fatalf("expected 1 failed, got %d", result.Failed)
	}

	errs := result.Errors()
	if len(errs) != 1 || errs[0] != "ghost@test.com: UserNotFound" {
		t.Fatalf("unexpected errors: %v", errs)
	}

	for _, u := range []struct {
		id       string
		expected int
	}{
		{alice.ID.String(), 100},
		{bob.ID.String(), 150},
	} {
		var balance int
		if err := db.Get(&balance, `SELECT credit_balance FROM users WHERE id = $1`, u.id); err != nil {
			t.Fatalf("balance query failed: %v", err)
		}
		if balance != u.expected {
			t.Fatalf("expected balance %d, got %d", u.expected, balance)
		}
	}
}

func TestBulkAdjustDeduplicatesIdentities(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	alice := createTestUserWithCredits(t, db, 0)

	coordinator := credit.NewBulkCoordinator(credit.NewService(db), user.NewRepository(db))

	result, err := coordinator.Apply(context.Background(),
		[]string{alice.Email, alice.Email, alice.ID.String()},
		credit.Adjustment{Action: credit.ActionAdd, Amount: 10, Reason: "dedupe check"},
		credit.Actor{Kind: credit.ActorAdmin},
	)
	requireNoError(t, err)

	// Same identity listed twice collapses to one adjustment; the UUID
	// form is a distinct identity and applies separately.
	if result.Processed != 2 {
		t.Fatalf("expected 2 processed, got %d", result.Processed)
	}

	balance, err := credit.NewService(db).GetBalance(context.Background(), alice.ID)
	requireNoError(t, err)
	if balance != 20 {
		t.Fatalf("expected balance 20, got %d", balance)
	}
}

func TestBulkAdjustRejectsInvalidSpec(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	alice := createTestUserWithCredits(t, db, 0)

	coordinator := credit.NewBulkCoordinator(credit.NewService(db), user.NewRepository(db))

	_, err := coordinator.Apply(context.Background(),
		[]string{alice.Email},
		credit.Adjustment{Action: credit.ActionAdd, Amount: 100},
		credit.Actor{Kind: credit.ActorAdmin},
	)
	if !errors.Is(err, credit.ErrMissingReason) {
		t.Fatalf("expected ErrMissingReason, got %v", err)
	}
}
