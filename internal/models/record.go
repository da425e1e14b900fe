package models

// DiscoveredRecord is one FRN line found in the funding registry for an
// account. Read only.
type DiscoveredRecord struct {
	FRN              string  `json:"frn"`
	FundingYear      int     `json:"fundingYear"`
	OrganizationName string  `json:"organizationName"`
	Category         string  `json:"category"`
	ServiceType      string  `json:"serviceType,omitempty"`
	Status           string  `json:"status"`
	CommittedAmount  float64 `json:"committedAmount"`
	Form471Number    string  `json:"form471Number"`
}

// DiscoverResponse is the body of GET /api/onboarding/records.
type DiscoverResponse struct {
	Records []DiscoveredRecord `json:"records"`
}

// SelectionRequest is the body of POST /api/onboarding/selection.
type SelectionRequest struct {
	FRNs []string `json:"frns"`
}

// SelectionResponse acknowledges a saved selection.
type SelectionResponse struct {
	Saved int `json:"saved"`
}
