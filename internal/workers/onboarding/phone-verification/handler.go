package phoneverification

import (
	"context"
	"net/http"
	"strings"

	"erate-tracker/internal/common/auth"
	apperrors "erate-tracker/internal/common/errors"
	apphttp "erate-tracker/internal/common/http"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/common/validation"
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

// Send answers POST /api/onboarding/phone/send.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	var req models.SendCodeRequest
	if err := decodeAndValidate(r, &req, GetSendSchema()); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	out, err := h.service.Send(ctx, &SendInput{AccountID: principal.AccountID, Phone: req.Phone})
	if err != nil {
		h.logError("send code failed", principal.AccountID, err)
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteJSON(w, http.StatusOK, models.SendCodeResponse{
		RequestID:          out.RequestID,
		Phone:              out.Phone,
		ExpiresInSeconds:   out.ExpiresIn,
		ResendAfterSeconds: out.ResendAfter,
	})
}

// Verify answers POST /api/onboarding/phone/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFromContext(r.Context())
	if err != nil {
		apphttp.WriteError(w, err)
		return
	}

	var req models.VerifyCodeRequest
	if err := decodeAndValidate(r, &req, GetVerifySchema()); err != nil {
		apphttp.WriteError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.config.Timeout)
	defer cancel()

	out, err := h.service.Verify(ctx, &VerifyInput{AccountID: principal.AccountID, Phone: req.Phone, Code: req.Code})
	if err != nil {
		h.logError("verify code failed", principal.AccountID, err)
		apphttp.WriteError(w, err)
		return
	}

	apphttp.WriteJSON(w, http.StatusOK, models.VerifyCodeResponse{Verified: out.Verified})
}

func (h *Handler) logError(msg, accountID string, err error) {
	stdErr := apperrors.Normalize(err)
	fields := map[string]interface{}{
		"accountId": accountID,
		"errorCode": string(stdErr.Code),
		"error":     err.Error(),
	}
	if stdErr.Code == apperrors.ErrCodeVerificationCooldown || stdErr.Code == apperrors.ErrCodeValidationFailed {
		h.logger.Warn(msg, fields)
		return
	}
	h.logger.Error(msg, fields)
}

func decodeAndValidate(r *http.Request, dst interface{}, schema validation.JSONSchema) error {
	if err := apphttp.DecodeJSON(r, dst); err != nil {
		return err
	}
	result := validation.ValidateInput(dst, schema)
	if !result.Valid {
		return apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}
