package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/numcheck/numcheck-api/internal/domain/user"
	"github.com/numcheck/numcheck-api/internal/pkg/response"
	"github.com/numcheck/numcheck-api/internal/pkg/validator"
)

func parsePagination(r *http.Request, def, max int) (limit, offset int) {
	limit = def
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= max {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// ListUsers handles GET /admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 20, 100)

	filters := user.ListFilters{
		Limit:  limit,
		Offset: offset,
	}
	if email := r.URL.Query().Get("email"); email != "" {
		filters.Email = email
	}
	if active := r.URL.Query().Get("is_active"); active != "" {
		if v, err := strconv.ParseBool(active); err == nil {
			filters.IsActive = &v
		}
	}

	users, err := h.users.List(r.Context(), filters)
	if err != nil {
		response.InternalError(w)
		return
	}

	total, err := h.users.Count(r.Context(), filters)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{
		"items": users,
		"total": total,
	})
}

// GetUser handles GET /admin/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}

// UpdateUserStatus handles PATCH /admin/users/{id}/status
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return
	}

	var req UpdateUserStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := h.users.UpdateActive(r.Context(), userID, req.IsActive); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	adminID := GetAdminID(r.Context())
	h.service.LogActionWithReason(r.Context(), adminID, "user.status", "user", userID, req.Reason,
		nil,
		map[string]interface{}{"is_active": req.IsActive},
	)

	response.OK(w, map[string]interface{}{
		"user_id":   userID,
		"is_active": req.IsActive,
	})
}
