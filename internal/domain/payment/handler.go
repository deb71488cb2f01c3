package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/middleware"
	"github.com/numcheck/numcheck-api/internal/pkg/response"
)

// Handler handles payment HTTP requests
type Handler struct {
	service *Service
	watcher *Watcher
}

func NewHandler(service *Service, watcher *Watcher) *Handler {
	return &Handler{service: service, watcher: watcher}
}

type createCheckoutRequest struct {
	PackageID string `json:"package_id"`
	OriginURL string `json:"origin_url"`
}

type createCheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Status      Status `json:"status"`
}

// Packages handles GET /payments/packages
func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	response.OK(w, Packages())
}

// CreateCheckout handles POST /payments/create-checkout
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PackageID) == "" {
		response.BadRequest(w, "package_id is required")
		return
	}
	// origin_url is optional; the service falls back to the configured
	// frontend URL for success/cancel redirects.
	session, err := h.service.CreateCheckout(r.Context(), userID, req.PackageID, strings.TrimRight(strings.TrimSpace(req.OriginURL), "/"))
	if err != nil {
		if errors.Is(err, ErrInvalidPackage) {
			response.BadRequest(w, "unknown credit package")
			return
		}
		log.Error().Err(err).Str("user_id", userID.String()).Msg("checkout creation failed")
		response.InternalError(w)
		return
	}

	response.Created(w, createCheckoutResponse{
		SessionID:   session.ExternalID,
		CheckoutURL: session.CheckoutURL,
		Status:      session.Status,
	})
}

// Status handles GET /payments/status/{session_id}.
// Polling it is side-effect-free except for the single reconciling
// transition when the provider reports a terminal state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.NotFound(w, "payment session not found")
			return
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("session lookup failed")
		response.InternalError(w)
		return
	}
	if session.UserID != userID {
		response.NotFound(w, "payment session not found")
		return
	}

	status, err := h.service.CheckOnce(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("status check failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"session_id": sessionID,
		"status":     status,
		"credits":    session.Credits,
		"package_id": session.PackageID,
	})
}

// Await handles GET /payments/await/{session_id}. It long-polls the
// provider until the session turns terminal or the watcher's attempt
// budget runs out, then reports the typed outcome. Clients that would
// otherwise hammer the status endpoint call this instead.
func (h *Handler) Await(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionID := chi.URLParam(r, "session_id")

	session, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.NotFound(w, "payment session not found")
			return
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("session lookup failed")
		response.InternalError(w)
		return
	}
	if session.UserID != userID {
		response.NotFound(w, "payment session not found")
		return
	}

	outcome, err := h.watcher.AwaitOutcome(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("await outcome failed")
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"session_id": sessionID,
		"outcome":    outcome.Kind,
		"attempts":   outcome.Attempts,
		"credits":    session.Credits,
		"package_id": session.PackageID,
	})
}

// History handles GET /payments/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sessions, err := h.service.History(r.Context(), userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("payment history failed")
		response.InternalError(w)
		return
	}

	response.OK(w, sessions)
}

type webhookPayload struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// Webhook handles POST /webhooks/payment
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if payload.SessionID == "" || payload.Status == "" {
		response.BadRequest(w, "required fields are missing")
		return
	}

	signature := r.Header.Get("X-Signature")

	err = h.service.HandleWebhook(r.Context(), payload.SessionID, payload.Status, body, signature)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSignature):
			response.Unauthorized(w, "invalid signature")
		case errors.Is(err, ErrSessionNotFound):
			response.NotFound(w, "payment session not found")
		case errors.Is(err, ErrSessionExpired):
			response.Conflict(w, "session expired")
		default:
			log.Error().Err(err).Str("session_id", payload.SessionID).Msg("webhook processing failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]string{"result": "ok"})
}
