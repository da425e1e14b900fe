package phoneverification

import "erate-tracker/internal/common/validation"

func GetSendSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"phone"},
		Properties: map[string]validation.Property{
			"phone": {Type: "string", MinLength: validation.Int(1), MaxLength: validation.Int(32)},
		},
		AdditionalProperties: validation.Bool(false),
	}
}

func GetVerifySchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"phone", "code"},
		Properties: map[string]validation.Property{
			"phone": {Type: "string", MinLength: validation.Int(1), MaxLength: validation.Int(32)},
			"code":  {Type: "string", MinLength: validation.Int(4), MaxLength: validation.Int(10)},
		},
		AdditionalProperties: validation.Bool(false),
	}
}
