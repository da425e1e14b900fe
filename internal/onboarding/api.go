// Package onboarding implements the new-user onboarding wizard: discovery
// of funding records, notification preferences and optional phone
// verification, driven by a step controller.
package onboarding

import (
	"context"

	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

// API is the remote onboarding service the wizard talks to.
type API interface {
	DiscoverRecords(ctx context.Context) ([]models.DiscoveredRecord, error)
	SaveSelection(ctx context.Context, frns []string) error
	// GetPreferences may return a partial profile.
	GetPreferences(ctx context.Context) (models.PreferenceProfile, error)
	SavePreferences(ctx context.Context, profile models.PreferenceProfile) error
	SendVerificationCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (bool, error)
	// CompleteOnboarding returns an optional redirect hint.
	CompleteOnboarding(ctx context.Context) (string, error)
}

// BestEffort is the outcome of a call whose failure never changes the flow.
// Err is logged when the call runs and kept for inspection only.
type BestEffort struct {
	Op  string
	Err error
}

func (b BestEffort) OK() bool {
	return b.Err == nil
}

func bestEffort(log logger.Logger, op string, fn func() error) BestEffort {
	err := fn()
	if err != nil {
		log.Warn("best-effort call failed", map[string]interface{}{
			"op":    op,
			"error": err,
		})
	}
	return BestEffort{Op: op, Err: err}
}
