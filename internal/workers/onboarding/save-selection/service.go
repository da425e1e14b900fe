package saveselection

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"erate-tracker/internal/common/database"
	apperrors "erate-tracker/internal/common/errors"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/common/validation"
	"erate-tracker/internal/models"
)

const TaskType = "onboarding.save-selection"

const insertTrackedFRN = `INSERT INTO tracked_frns (account_id, frn, source, created_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (account_id, frn) DO NOTHING`

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

// Execute starts tracking every FRN in input for the account. The whole
// selection is written in one transaction.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	result := validation.ValidateInput(models.SelectionRequest{FRNs: input.FRNs}, GetInputSchema(s.config))
	if !result.Valid {
		return nil, apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	frns := dedupe(input.FRNs)

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, frn := range frns {
			if _, err := tx.ExecContext(ctx, insertTrackedFRN, input.AccountID, frn, s.config.Source); err != nil {
				return fmt.Errorf("track %s: %w", frn, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewSelectionSaveFailedError(err)
	}

	s.logger.Info("selection saved", map[string]interface{}{
		"accountId": input.AccountID,
		"count":     len(frns),
	})

	return &Output{Saved: len(frns)}, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
