package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/numcheck/numcheck-api/internal/domain/settings"
	"github.com/numcheck/numcheck-api/internal/pkg/response"
	"github.com/numcheck/numcheck-api/internal/pkg/validator"
)

// GetSettings handles GET /admin/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.settings.Get(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, current)
}

// UpdateSettings handles PUT /admin/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	adminID := GetAdminID(r.Context())

	upd := settings.Update{
		WhatsappEnabled: req.WhatsappEnabled,
		TelegramEnabled: req.TelegramEnabled,
		Version:         req.Version,
	}

	updated, err := h.settings.Update(r.Context(), upd, adminID)
	if err != nil {
		switch {
		case errors.Is(err, settings.ErrVersionConflict):
			response.Error(w, http.StatusConflict, "VERSION_CONFLICT", "Settings were changed by someone else, reload and retry")
		case errors.Is(err, settings.ErrNotFound):
			response.NotFound(w, "Settings not found")
		default:
			response.InternalError(w)
		}
		return
	}

	h.service.logAction(r.Context(), adminID, "settings.update", "platform_settings", uuid.Nil,
		map[string]interface{}{"version": req.Version},
		updated,
	)

	response.OK(w, updated)
}
