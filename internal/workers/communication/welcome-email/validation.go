package welcomeemail

import (
	"erate-tracker/internal/common/validation"
	"erate-tracker/internal/models"
)

func GetInputSchema() validation.JSONSchema {
	roles := make([]string, 0, len(models.Roles))
	for _, r := range models.Roles {
		roles = append(roles, string(r))
	}
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"accountId", "role", "email"},
		Properties: map[string]validation.Property{
			"accountId": {Type: "string", MinLength: validation.Int(1)},
			"role":      {Type: "string", Enum: roles},
			"email":     {Type: "string", MinLength: validation.Int(3), MaxLength: validation.Int(254)},
		},
	}
}
