package notificationpreferences

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

// ServeHTTP answers GET and PUT /api/onboarding/preferences.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	var output *Output
	switch r.Method {
	case http.MethodGet:
		output, err = h.service.Get(ctx, principal.AccountID)
	case http.MethodPut:
		var profile models.PreferenceProfile
		if err := apphttp.DecodeJSON(r, &profile); err != nil {
			apphttp.WriteError(w, err)
			return
		}
		output, err = h.service.Save(ctx, &Input{
			AccountID: principal.AccountID,
			Role:      principal.Role,
			Profile:   profile,
		})
	default:
		w.Header().Set("Allow", "GET, PUT")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err != nil {
		h.logger.Error("preferences request failed", map[string]interface{}{
			"accountId": principal.AccountID,
			"method":    r.Method,
			"error":     err.Error(),
		})
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteJSON(w, http.StatusOK, output.Profile)
}
