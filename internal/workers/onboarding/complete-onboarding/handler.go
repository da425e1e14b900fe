package completeonboarding

import (
	"context"
	"net/http"

	"erate-tracker/internal/common/auth"
	apphttp "erate-tracker/internal/common/http"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

type Handler struct {
	config  *Config
	service *Service
	logger  logger.Logger
}

func NewHandler(config *Config, service *Service, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		service: service,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// ServeHTTP answers POST /api/onboarding/complete.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.service.Execute(ctx, &Input{
		AccountID: principal.AccountID,
		Role:      principal.Role,
		Email:     principal.Email,
	})
	if err != nil {
		h.logger.Error("complete onboarding failed", map[string]interface{}{
			"accountId": principal.AccountID,
			"error":     err.Error(),
		})
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteJSON(w, http.StatusOK, models.CompleteResponse{RedirectTo: output.RedirectTo})
}
