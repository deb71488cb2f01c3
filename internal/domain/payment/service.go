package payment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/domain/credit"
	"github.com/numcheck/numcheck-api/internal/pkg/gateway"
	"github.com/numcheck/numcheck-api/internal/pkg/metrics"
)

// EventPublisher pushes payment events to connected admin clients.
// Implemented by the events hub; nil disables publishing.
type EventPublisher interface {
	Publish(userID uuid.UUID, event string, payload interface{})
}

// Config holds payment service wiring
type Config struct {
	WebhookSecret string
	CallbackURL   string
	FrontendURL   string
}

// Service coordinates checkout sessions and their reconciliation with
// the credit ledger.
type Service struct {
	db      *sqlx.DB
	repo    Repository
	credits credit.Service
	gw      *gateway.Client
	cfg     Config
	events  EventPublisher
}

// NewService creates payment service
func NewService(repo Repository, db *sqlx.DB, credits credit.Service, gw *gateway.Client, cfg Config) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		credits: credits,
		gw:      gw,
		cfg:     cfg,
	}
}

// SetEvents wires the optional event publisher
func (s *Service) SetEvents(events EventPublisher) {
	s.events = events
}

// CreateCheckout opens a checkout session at the payment provider and
// records it as pending. Returns the session with its redirect URL.
func (s *Service) CreateCheckout(ctx context.Context, userID uuid.UUID, packageID, originURL string) (*Session, error) {
	pkg, ok := PackageByID(packageID)
	if !ok {
		return nil, ErrInvalidPackage
	}

	if originURL == "" {
		originURL = strings.TrimRight(s.cfg.FrontendURL, "/")
	}

	id := uuid.New()

	created, err := s.gw.CreateSession(ctx, gateway.CreateSessionRequest{
		Amount:      pkg.Price,
		Currency:    pkg.Currency,
		OrderID:     id.String(),
		Description: fmt.Sprintf("%d validation credits (%s)", pkg.Credits, pkg.ID),
		SuccessURL:  originURL + "/payment/success",
		CancelURL:   originURL + "/payment/cancel",
		CallbackURL: s.cfg.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	session := &Session{
		ID:          id,
		UserID:      userID,
		ExternalID:  created.SessionID,
		PackageID:   pkg.ID,
		Credits:     pkg.Credits,
		Amount:      pkg.Price,
		Currency:    pkg.Currency,
		Status:      StatusPending,
		CheckoutURL: created.CheckoutURL,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", session.ExternalID).
		Str("user_id", userID.String()).
		Str("package", pkg.ID).
		Msg("Checkout session created")

	return session, nil
}

// GetSession returns the stored session for an external session id.
func (s *Service) GetSession(ctx context.Context, externalID string) (*Session, error) {
	return s.repo.GetByExternalID(ctx, externalID)
}

// History lists a user's checkout sessions.
func (s *Service) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Session, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ReconcilePaid credits the ledger for a paid session exactly once.
// The status flip (pending -> paid) and the ledger write share one
// database transaction, so duplicate delivery of a "paid" event either
// finds an existing ledger reference or loses the row-flip race — in
// both cases no second credit is written.
func (s *Service) ReconcilePaid(ctx context.Context, externalID string) error {
	session, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	switch session.Status {
	case StatusExpired:
		return ErrSessionExpired
	case StatusPaid, StatusFailed:
		return ErrDuplicateReconciliation
	}

	credited, err := s.credits.HasSessionCredit(ctx, externalID)
	if err != nil {
		return err
	}
	if credited {
		return ErrDuplicateReconciliation
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	flipped, err := s.repo.MarkTerminalTx(ctx, tx, session.ID, StatusPaid)
	if err != nil {
		return err
	}
	if !flipped {
		// Concurrent delivery won the flip.
		return ErrDuplicateReconciliation
	}

	balance, err := s.credits.AdjustTx(ctx, tx, session.UserID, credit.Adjustment{
		Action:            credit.ActionAdd,
		Amount:            session.Credits,
		Reason:            fmt.Sprintf("credit package %s purchased", session.PackageID),
		RelatedEntityType: credit.RelatedEntityPaymentSession,
		RelatedEntityID:   externalID,
	}, credit.Actor{Kind: credit.ActorSystem})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	metrics.PaymentOutcomes.WithLabelValues(string(OutcomePaid)).Inc()

	log.Info().
		Str("session_id", externalID).
		Str("user_id", session.UserID.String()).
		Int("credits", session.Credits).
		Int("new_balance", balance).
		Msg("Payment reconciled")

	if s.events != nil {
		s.events.Publish(session.UserID, "payment.paid", map[string]interface{}{
			"session_id":  externalID,
			"credits":     session.Credits,
			"new_balance": balance,
		})
	}

	return nil
}

// markClosed records a non-paid terminal outcome. No credit transaction
// is written. Repeated delivery is a no-op.
func (s *Service) markClosed(ctx context.Context, session *Session, status Status) error {
	flipped, err := s.repo.MarkTerminal(ctx, session.ID, status)
	if err != nil {
		return err
	}
	if flipped {
		metrics.PaymentOutcomes.WithLabelValues(string(status)).Inc()
		log.Info().
			Str("session_id", session.ExternalID).
			Str("status", string(status)).
			Msg("Payment session closed without credit")
	}
	return nil
}

// CheckOnce refreshes a pending session from the provider and applies
// any terminal transition it finds. It implements StatusChecker for
// the watcher and backs the status polling endpoint.
func (s *Service) CheckOnce(ctx context.Context, externalID string) (Status, error) {
	session, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return "", err
	}

	if session.Status.IsTerminal() {
		return session.Status, nil
	}

	remote, err := s.gw.GetSession(ctx, externalID)
	if err != nil {
		return "", fmt.Errorf("gateway status check: %w", err)
	}

	switch remote.Status {
	case gateway.SessionPaid:
		if err := s.ReconcilePaid(ctx, externalID); err != nil && err != ErrDuplicateReconciliation {
			return "", err
		}
		return StatusPaid, nil
	case gateway.SessionExpired:
		if err := s.markClosed(ctx, session, StatusExpired); err != nil {
			return "", err
		}
		return StatusExpired, nil
	case gateway.SessionFailed:
		if err := s.markClosed(ctx, session, StatusFailed); err != nil {
			return "", err
		}
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}

// HandleWebhook verifies and applies a provider callback. Duplicate
// "paid" deliveries are acknowledged without a second credit.
func (s *Service) HandleWebhook(ctx context.Context, externalID, status string, payload []byte, signature string) error {
	if !gateway.VerifySignature(payload, signature, s.cfg.WebhookSecret) {
		return ErrInvalidSignature
	}

	session, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return err
	}

	switch status {
	case string(gateway.SessionPaid):
		err := s.ReconcilePaid(ctx, externalID)
		if err == ErrDuplicateReconciliation {
			log.Warn().Str("session_id", externalID).Msg("Duplicate paid webhook ignored")
			return nil
		}
		return err
	case string(gateway.SessionExpired):
		return s.markClosed(ctx, session, StatusExpired)
	case string(gateway.SessionFailed):
		return s.markClosed(ctx, session, StatusFailed)
	default:
		log.Warn().Str("session_id", externalID).Str("status", status).Msg("Webhook with unknown status ignored")
		return nil
	}
}
