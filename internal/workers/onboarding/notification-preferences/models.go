package notificationpreferences

import (
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

type Input struct {
	AccountID string                   `json:"accountId"`
	Role      models.Role              `json:"role"`
	Profile   models.PreferenceProfile `json:"profile"`
}

type Output struct {
	Profile models.PreferenceProfile `json:"profile"`
	// Stored is false when the account has never saved preferences.
	Stored bool `json:"stored"`
}

type ServiceDependencies struct {
	Logger logger.Logger
}
