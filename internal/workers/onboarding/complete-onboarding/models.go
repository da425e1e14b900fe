package completeonboarding

import (
	"erate-tracker/internal/common/camunda"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

type Input struct {
	AccountID string      `json:"accountId"`
	Role      models.Role `json:"role"`
	Email     string      `json:"email,omitempty"`
}

type Output struct {
	RedirectTo string `json:"redirectTo"`
	// ProcessInstanceKey is zero when no follow-up process was started.
	ProcessInstanceKey int64 `json:"processInstanceKey,omitempty"`
}

type ServiceDependencies struct {
	Logger logger.Logger
	// Processes is optional; without it no follow-up process is started.
	Processes camunda.ProcessStarter
}
