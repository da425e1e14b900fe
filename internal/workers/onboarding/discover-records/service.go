package discoverrecords

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "erate-tracker/internal/common/errors"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const TaskType = "onboarding.discover-records"

type Service struct {
	config *Config
	db     *sql.DB
	es     *elasticsearch.Client
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config, db *sql.DB, es *elasticsearch.Client) *Service {
	return &Service{
		config: config,
		db:     db,
		es:     es,
		logger: deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute looks up the account's registry number for its role and returns
// the FRNs filed under it.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	field, err := identifierField(input.Role)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	identifier, err := s.lookupIdentifier(ctx, input.AccountID, field)
	if err != nil {
		return nil, err
	}
	if identifier == "" {
		s.logger.Info("account has no registry number on file", map[string]interface{}{
			"accountId": input.AccountID,
			"field":     field,
		})
		return &Output{Records: []models.DiscoveredRecord{}}, nil
	}

	records, err := s.search(ctx, field, identifier)
	if err != nil {
		return nil, err
	}

	s.logger.Info("discovery finished", map[string]interface{}{
		"accountId": input.AccountID,
		"role":      string(input.Role),
		"count":     len(records),
	})

	return &Output{Records: records, Identifier: identifier}, nil
}

func (s *Service) lookupIdentifier(ctx context.Context, accountID, field string) (string, error) {
	// field comes from identifierField, never from input.
	query := fmt.Sprintf(`SELECT COALESCE(%s, '') FROM accounts WHERE id = $1`, field)

	var identifier string
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(&identifier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NewAccountNotFoundError(accountID)
	}
	if err != nil {
		return "", apperrors.NewQueryExecutionFailedError("account_identifier", err)
	}
	return identifier, nil
}

func (s *Service) search(ctx context.Context, field, identifier string) ([]models.DiscoveredRecord, error) {
	req, err := buildSearchRequest(s.config.Index, field, identifier, s.config.MaxResults)
	if err != nil {
		return nil, apperrors.NewDiscoveryFailedError(err)
	}

	res, err := req.Do(ctx, s.es)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("elasticsearch", err)
		}
		return nil, apperrors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewIndexNotFoundError(s.config.Index)
	}
	if res.IsError() {
		return nil, apperrors.NewSearchQueryFailedError(s.config.Index, fmt.Errorf("%s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewDiscoveryFailedError(fmt.Errorf("decode search response: %w", err))
	}

	records := make([]models.DiscoveredRecord, 0, len(parsed.Hits.Hits))
	seen := make(map[string]bool, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if hit.Source.FRN == "" || seen[hit.Source.FRN] {
			continue
		}
		seen[hit.Source.FRN] = true
		records = append(records, hit.Source.toRecord())
	}
	return records, nil
}
