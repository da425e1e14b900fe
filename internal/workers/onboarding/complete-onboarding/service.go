package completeonboarding

import (
	"context"
	"database/sql"
	"time"

	"erate-tracker/internal/common/camunda"
	apperrors "erate-tracker/internal/common/errors"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/common/metrics"
)

const TaskType = "onboarding.complete"

const markCompleted = `UPDATE accounts
SET onboarding_completed_at = NOW()
WHERE id = $1 AND onboarding_completed_at IS NULL`

const accountExists = `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`

type Service struct {
	config    *Config
	db        *sql.DB
	processes camunda.ProcessStarter
	logger    logger.Logger
}

func NewService(deps ServiceDependencies, config *Config, db *sql.DB) *Service {
	return &Service{
		config:    config,
		db:        db,
		processes: deps.Processes,
		logger:    deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute records completion and returns where the account should land.
// Completing twice keeps the first timestamp and starts no second follow-up
// process. The follow-up process is best effort and never fails the request.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role " + string(input.Role))
	}

	res, err := s.db.ExecContext(ctx, markCompleted, input.AccountID)
	if err != nil {
		return nil, apperrors.NewOnboardingCompleteFailedError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.NewOnboardingCompleteFailedError(err)
	}

	output := &Output{RedirectTo: s.config.Destinations[string(input.Role)]}

	if n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, accountExists, input.AccountID).Scan(&exists); err != nil {
			return nil, apperrors.NewOnboardingCompleteFailedError(err)
		}
		if !exists {
			return nil, apperrors.NewAccountNotFoundError(input.AccountID)
		}
		s.logger.Debug("onboarding already completed", map[string]interface{}{
			"accountId": input.AccountID,
		})
		return output, nil
	}

	metrics.OnboardingCompleted.WithLabelValues(string(input.Role)).Inc()

	if s.processes != nil && s.config.ProcessID != "" {
		key, err := s.processes.CreateProcessInstance(ctx, s.config.ProcessID, map[string]interface{}{
			"accountId":   input.AccountID,
			"role":        string(input.Role),
			"email":       input.Email,
			"completedAt": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			s.logger.Warn("follow-up process not started", map[string]interface{}{
				"accountId": input.AccountID,
				"processId": s.config.ProcessID,
				"errorCode": apperrors.Normalize(err).Code,
				"error":     err.Error(),
			})
		} else {
			output.ProcessInstanceKey = key
		}
	}

	s.logger.Info("onboarding completed", map[string]interface{}{
		"accountId":  input.AccountID,
		"role":       string(input.Role),
		"redirectTo": output.RedirectTo,
	})

	return output, nil
}
