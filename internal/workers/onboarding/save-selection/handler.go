package saveselection

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

// ServeHTTP answers POST /api/onboarding/selection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	var req models.SelectionRequest
	if err := apphttp.DecodeJSON(r, &req); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	output, err := h.service.Execute(ctx, &Input{AccountID: principal.AccountID, FRNs: req.FRNs})
	if err != nil {
		h.logger.Error("save selection failed", map[string]interface{}{
			"accountId": principal.AccountID,
			"error":     err.Error(),
		})
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteJSON(w, http.StatusOK, models.SelectionResponse{Saved: output.Saved})
}
