package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/numcheck/numcheck-api/internal/domain/credit"
	"github.com/numcheck/numcheck-api/internal/domain/settings"
	"github.com/numcheck/numcheck-api/internal/pkg/provider"
)

type fakeSettings struct {
	whatsapp bool
	telegram bool
}

func (f *fakeSettings) Get(ctx context.Context) (*settings.Settings, error) {
	return &settings.Settings{WhatsappEnabled: f.whatsapp, TelegramEnabled: f.telegram}, nil
}

type fakeLedger struct {
	balance     int
	adjustments []credit.Adjustment
	failNext    error
}

func (f *fakeLedger) Adjust(ctx context.Context, userID uuid.UUID, adj credit.Adjustment, actor credit.Actor) (int, error) {
	if f.failNext != nil && adj.Action == credit.ActionSubtract {
		return 0, f.failNext
	}
	switch adj.Action {
	case credit.ActionAdd:
		f.balance += adj.Amount
	case credit.ActionSubtract:
		if f.balance < adj.Amount {
			return 0, credit.ErrInsufficientBalance
		}
		f.balance -= adj.Amount
	case credit.ActionSet:
		f.balance = adj.Amount
	}
	f.adjustments = append(f.adjustments, adj)
	return f.balance, nil
}

func (f *fakeLedger) AdjustTx(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, adj credit.Adjustment, actor credit.Actor) (int, error) {
	return f.Adjust(ctx, userID, adj, actor)
}

func (f *fakeLedger) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	return f.balance, nil
}

func (f *fakeLedger) HasSessionCredit(ctx context.Context, sessionID string) (bool, error) {
	return false, nil
}

func (f *fakeLedger) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]credit.Transaction, error) {
	return nil, nil
}

func (f *fakeLedger) SearchTransactions(ctx context.Context, filters credit.SearchFilters) ([]credit.Transaction, error) {
	return nil, nil
}

type fakeLookup struct {
	result *provider.LookupResult
	err    error
	calls  int
}

func (f *fakeLookup) Lookup(ctx context.Context, channel, phone string) (*provider.LookupResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestValidateDeductsOneCredit(t *testing.T) {
	ledger := &fakeLedger{balance: 5}
	lookup := &fakeLookup{result: &provider.LookupResult{
		PhoneNumber: "+15551234567",
		Channel:     "telegram",
		Registered:  true,
	}}

	svc := NewService(&fakeSettings{telegram: true}, ledger, lookup, nil, 0)

	result, err := svc.Validate(context.Background(), uuid.New(), "telegram", "+15551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Registered {
		t.Fatal("expected registered result")
	}
	if result.Balance != 4 {
		t.Fatalf("expected balance 4, got %d", result.Balance)
	}
	if len(ledger.adjustments) != 1 || ledger.adjustments[0].Action != credit.ActionSubtract {
		t.Fatalf("expected one subtract adjustment, got %+v", ledger.adjustments)
	}
}

func TestValidateDisabledChannel(t *testing.T) {
	ledger := &fakeLedger{balance: 5}
	lookup := &fakeLookup{}

	svc := NewService(&fakeSettings{telegram: false, whatsapp: true}, ledger, lookup, nil, 0)

	_, err := svc.Validate(context.Background(), uuid.New(), "telegram", "+15551234567")
	if !errors.Is(err, ErrChannelDisabled) {
		t.Fatalf("expected ErrChannelDisabled, got %v", err)
	}
	if len(ledger.adjustments) != 0 {
		t.Fatal("expected no credit movement for disabled channel")
	}
	if lookup.calls != 0 {
		t.Fatal("expected no provider call for disabled channel")
	}
}

func TestValidateInsufficientBalance(t *testing.T) {
	ledger := &fakeLedger{balance: 0}
	lookup := &fakeLookup{}

	svc := NewService(&fakeSettings{telegram: true}, ledger, lookup, nil, 0)

	_, err := svc.Validate(context.Background(), uuid.New(), "telegram", "+15551234567")
	if !errors.Is(err, credit.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if lookup.calls != 0 {
		t.Fatal("expected no provider call without credit")
	}
}

func TestValidateRefundsOnProviderFailure(t *testing.T) {
	ledger := &fakeLedger{balance: 3}
	lookup := &fakeLookup{err: errors.New("connection refused")}

	svc := NewService(&fakeSettings{whatsapp: true}, ledger, lookup, nil, 0)

	_, err := svc.Validate(context.Background(), uuid.New(), "whatsapp", "+15551234567")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}

	if ledger.balance != 3 {
		t.Fatalf("expected balance restored to 3, got %d", ledger.balance)
	}
	if len(ledger.adjustments) != 2 {
		t.Fatalf("expected subtract then refund, got %+v", ledger.adjustments)
	}
	if ledger.adjustments[1].Action != credit.ActionAdd {
		t.Fatalf("expected refund add, got %+v", ledger.adjustments[1])
	}
}
