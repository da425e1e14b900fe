package notificationpreferences

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "erate-tracker/internal/common/errors"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/common/validation"
	"erate-tracker/internal/models"
)

const TaskType = "onboarding.notification-preferences"

const (
	selectPreferences = `SELECT categories, channels, COALESCE(frequency, '')
FROM notification_preferences WHERE account_id = $1`

	upsertPreferences = `INSERT INTO notification_preferences (account_id, categories, channels, frequency, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (account_id) DO UPDATE
SET categories = EXCLUDED.categories,
    channels = EXCLUDED.channels,
    frequency = EXCLUDED.frequency,
    updated_at = NOW()`
)

type Service struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config, db *sql.DB) *Service {
	return &Service{
		config: config,
		db:     db,
		logger: deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Get returns the stored profile. An account with nothing stored gets an
// empty profile so the caller can fall back to its defaults.
func (s *Service) Get(ctx context.Context, accountID string) (*Output, error) {
	var categories, channels []byte
	var frequency string

	err := s.db.QueryRowContext(ctx, selectPreferences, accountID).Scan(&categories, &channels, &frequency)
	if errors.Is(err, sql.ErrNoRows) {
		return &Output{Profile: models.PreferenceProfile{}}, nil
	}
	if err != nil {
		return nil, apperrors.NewPreferencesReadFailedError(err)
	}

	profile := models.PreferenceProfile{Frequency: models.Frequency(frequency)}
	if err := decodeFlags(categories, &profile.Categories); err != nil {
		return nil, apperrors.NewPreferencesReadFailedError(fmt.Errorf("categories: %w", err))
	}
	if err := decodeFlags(channels, &profile.Channels); err != nil {
		return nil, apperrors.NewPreferencesReadFailedError(fmt.Errorf("channels: %w", err))
	}

	return &Output{Profile: profile, Stored: true}, nil
}

// Save replaces the stored profile with input.Profile.
func (s *Service) Save(ctx context.Context, input *Input) (*Output, error) {
	result := validation.ValidateInput(input.Profile, GetInputSchema())
	if !result.Valid {
		return nil, apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	if unknown := unknownKeys(input.Role, input.Profile); len(unknown) > 0 {
		return nil, apperrors.NewValidationError("unknown preference keys: " + strings.Join(unknown, ", "))
	}

	categories, err := json.Marshal(nonNil(input.Profile.Categories))
	if err != nil {
		return nil, apperrors.NewPreferencesWriteFailedError(err)
	}
	channels, err := json.Marshal(nonNil(input.Profile.Channels))
	if err != nil {
		return nil, apperrors.NewPreferencesWriteFailedError(err)
	}

	if _, err := s.db.ExecContext(ctx, upsertPreferences,
		input.AccountID, categories, channels, string(input.Profile.Frequency)); err != nil {
		return nil, apperrors.NewPreferencesWriteFailedError(err)
	}

	s.logger.Info("preferences saved", map[string]interface{}{
		"accountId": input.AccountID,
		"frequency": string(input.Profile.Frequency),
		"sms":       input.Profile.SMSEnabled(),
	})

	return &Output{Profile: input.Profile, Stored: true}, nil
}

func decodeFlags(raw []byte, dst *map[string]bool) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nonNil(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return m
}
