package validation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/domain/credit"
	"github.com/numcheck/numcheck-api/internal/middleware"
	"github.com/numcheck/numcheck-api/internal/pkg/response"
	"github.com/numcheck/numcheck-api/internal/pkg/validator"
)

// Handler handles validation HTTP requests
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type validateRequest struct {
	Channel string `json:"channel" validate:"required,channel"`
	Phone   string `json:"phone" validate:"required,phone"`
}

// Validate handles POST /validate
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	result, err := h.service.Validate(r.Context(), userID, req.Channel, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, ErrChannelDisabled):
			response.Error(w, http.StatusServiceUnavailable, "CHANNEL_DISABLED", "validation channel is disabled")
		case errors.Is(err, credit.ErrInsufficientBalance):
			response.PaymentRequired(w, "not enough credits")
		case errors.Is(err, ErrProviderUnavailable):
			response.Error(w, http.StatusBadGateway, "PROVIDER_UNAVAILABLE", "lookup provider unavailable, credit refunded")
		default:
			log.Error().Err(err).Str("user_id", userID.String()).Msg("validation failed")
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}
