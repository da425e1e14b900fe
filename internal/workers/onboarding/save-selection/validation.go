package saveselection

import "erate-tracker/internal/common/validation"

func GetInputSchema(cfg *Config) validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"frns"},
		Properties: map[string]validation.Property{
			"frns": {
				Type:     "array",
				MinItems: validation.Int(1),
				MaxItems: validation.Int(cfg.MaxFRNs),
				Items: &validation.Property{
					Type:    "string",
					Pattern: validation.String(`^[0-9]{10}$`),
				},
			},
		},
		AdditionalProperties: validation.Bool(false),
	}
}
