package saveselection

import "erate-tracker/internal/common/logger"

type Input struct {
	AccountID string   `json:"accountId"`
	FRNs      []string `json:"frns"`
}

type Output struct {
	// Saved counts distinct FRNs in the request, including ones the account
	// already tracked.
	Saved int `json:"saved"`
}

type ServiceDependencies struct {
	Logger logger.Logger
}
