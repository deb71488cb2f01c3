package settings

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/numcheck/numcheck-api/internal/pkg/response"
)

// Handler serves the public settings read. Updates go through the
// admin panel and live in the admin domain.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Get handles GET /platform-settings
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	current, err := h.service.Get(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("settings read failed")
		response.InternalError(w)
		return
	}

	response.OK(w, current)
}
