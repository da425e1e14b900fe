package discoverrecords

import (
	"bytes"
	"encoding/json"
	"fmt"

	"erate-tracker/internal/models"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// identifierField is the index field that ties an FRN to an organization of
// the given role.
func identifierField(role models.Role) (string, error) {
	switch role {
	case models.RoleApplicant:
		return "ben", nil
	case models.RoleConsultant:
		return "cnslt_registration_number", nil
	case models.RoleVendor:
		return "spin", nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}

func buildSearchRequest(index, field, value string, size int) (*esapi.SearchRequest, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{field: value},
					},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"funding_year": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"funding_request_number": map[string]interface{}{"order": "asc"}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return &esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(payload),
		Size:  &size,
	}, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source frnDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
