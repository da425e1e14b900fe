package discoverrecords

import (
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

type Input struct {
	AccountID string      `json:"accountId"`
	Role      models.Role `json:"role"`
}

type Output struct {
	Records []models.DiscoveredRecord `json:"records"`
	// Identifier is the registry number the search ran on, empty when the
	// account has none on file.
	Identifier string `json:"identifier,omitempty"`
}

// frnDocument is one hit in the FRN status index.
type frnDocument struct {
	FRN               string  `json:"funding_request_number"`
	FundingYear       int     `json:"funding_year"`
	OrganizationName  string  `json:"organization_name"`
	Category          string  `json:"form_471_category"`
	ServiceType       string  `json:"form_471_service_type_name"`
	Status            string  `json:"form_471_frn_status_name"`
	CommittedAmount   float64 `json:"funding_commitment_request"`
	ApplicationNumber string  `json:"application_number"`
	BEN               string  `json:"ben,omitempty"`
	ConsultantRegNum  string  `json:"cnslt_registration_number,omitempty"`
	SPIN              string  `json:"spin,omitempty"`
}

func (d frnDocument) toRecord() models.DiscoveredRecord {
	return models.DiscoveredRecord{
		FRN:              d.FRN,
		FundingYear:      d.FundingYear,
		OrganizationName: d.OrganizationName,
		Category:         d.Category,
		ServiceType:      d.ServiceType,
		Status:           d.Status,
		CommittedAmount:  d.CommittedAmount,
		Form471Number:    d.ApplicationNumber,
	}
}

type ServiceDependencies struct {
	Logger logger.Logger
}
