package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/numcheck/numcheck-api/internal/domain/credit"
	"github.com/numcheck/numcheck-api/internal/pkg/response"
	"github.com/numcheck/numcheck-api/internal/pkg/validator"
)

// AdjustCredits handles POST /admin/users/{id}/credits
func (h *Handler) AdjustCredits(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req AdjustCreditsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	adminID := GetAdminID(r.Context())

	adj := credit.Adjustment{
		Action: credit.Action(req.Action),
		Amount: req.Amount,
		Reason: req.Reason,
	}
	actor := credit.Actor{Kind: credit.ActorAdmin, ID: adminID}

	newBalance, err := h.credits.Adjust(r.Context(), userID, adj, actor)
	if err != nil {
		code := credit.ErrorCode(err)
		switch {
		case errors.Is(err, credit.ErrUserNotFound):
			response.Error(w, http.StatusNotFound, code, "User not found")
		case errors.Is(err, credit.ErrInvalidAmount):
			response.Error(w, http.StatusBadRequest, code, "Invalid amount for this action")
		case errors.Is(err, credit.ErrMissingReason):
			response.Error(w, http.StatusBadRequest, code, "A reason is required")
		case errors.Is(err, credit.ErrInsufficientBalance):
			response.Error(w, http.StatusConflict, code, "Balance would go negative")
		default:
			response.InternalError(w)
		}
		return
	}

	h.service.LogActionWithReason(r.Context(), adminID, "credits.adjust", "user", userID, req.Reason,
		nil,
		map[string]interface{}{"action": req.Action, "amount": req.Amount, "new_balance": newBalance},
	)

	if h.events != nil {
		h.events.Publish(userID, "credits.adjusted", map[string]interface{}{
			"action":      req.Action,
			"amount":      req.Amount,
			"new_balance": newBalance,
			"reason":      req.Reason,
		})
	}

	response.OK(w, map[string]interface{}{
		"user_id":     userID,
		"action":      req.Action,
		"amount":      req.Amount,
		"new_balance": newBalance,
	})
}

// BulkAdjustCredits handles POST /admin/bulk-credit-management
func (h *Handler) BulkAdjustCredits(w http.ResponseWriter, r *http.Request) {
	var req BulkCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	adminID := GetAdminID(r.Context())

	adj := credit.Adjustment{
		Action: credit.Action(req.Action),
		Amount: req.Amount,
		Reason: req.Reason,
	}
	actor := credit.Actor{Kind: credit.ActorAdmin, ID: adminID}

	result, err := h.bulk.Apply(r.Context(), req.UserIDs, adj, actor)
	if err != nil {
		code := credit.ErrorCode(err)
		switch {
		case errors.Is(err, credit.ErrInvalidAmount):
			response.Error(w, http.StatusBadRequest, code, "Invalid amount for this action")
		case errors.Is(err, credit.ErrMissingReason):
			response.Error(w, http.StatusBadRequest, code, "A reason is required")
		default:
			response.InternalError(w)
		}
		return
	}

	h.service.LogActionWithReason(r.Context(), adminID, "credits.bulk", "user", uuid.Nil, req.Reason,
		nil,
		map[string]interface{}{
			"action":          req.Action,
			"amount":          req.Amount,
			"identities":      len(req.UserIDs),
			"processed_users": result.Processed,
			"failed":          result.Failed,
		},
	)

	if h.events != nil {
		h.events.Publish(uuid.Nil, "credits.bulk_finished", map[string]interface{}{
			"action":          req.Action,
			"processed_users": result.Processed,
			"failed":          result.Failed,
		})
	}

	response.OK(w, map[string]interface{}{
		"processed_users": result.Processed,
		"failed":          result.Failed,
		"errors":          result.Errors(),
		"results":         result.Outcomes,
	})
}

// GetUserCredits handles GET /admin/users/{id}/credits
func (h *Handler) GetUserCredits(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	balance, err := h.credits.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, credit.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"user_id": userID,
		"balance": balance,
	})
}

// UserTransactions handles GET /admin/users/{id}/transactions
func (h *Handler) UserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	limit, offset := parsePagination(r, 50, 100)

	txs, err := h.credits.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"items": txs,
		"count": len(txs),
	})
}
