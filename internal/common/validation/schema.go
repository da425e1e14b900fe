package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSONSchema describes a request body. It is serialized as a draft-07
// schema and checked with gojsonschema.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
	PatternProperties    map[string]Property `json:"patternProperties,omitempty"`
}

type Property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Minimum     *float64            `json:"minimum,omitempty"`
	Maximum     *float64            `json:"maximum,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Pattern     *string             `json:"pattern,omitempty"`
	MinLength   *int                `json:"minLength,omitempty"`
	MaxLength   *int                `json:"maxLength,omitempty"`
	MinItems    *int                `json:"minItems,omitempty"`
	MaxItems    *int                `json:"maxItems,omitempty"`
	UniqueItems bool                `json:"uniqueItems,omitempty"`
	Items       *Property           `json:"items,omitempty"`
	Properties  map[string]Property `json:"properties,omitempty"`
	// AdditionalProperties constrains map values of an object property.
	AdditionalProperties *Property `json:"additionalProperties,omitempty"`
	Required             []string  `json:"required,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput checks input (a map or a json-tagged struct) against schema.
func ValidateInput(input interface{}, schema JSONSchema) *ValidationResult {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "SCHEMA_ERROR",
			}},
		}
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, 0, len(vr.Errors))
	for _, err := range vr.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Bool, Int and String return pointers for schema literals.
func Bool(b bool) *bool       { return &b }
func Int(i int) *int          { return &i }
func String(s string) *string { return &s }

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizePhone returns phone in E.164 form. National numbers (ten digits)
// get defaultCountryCode; numbers written with a leading + keep theirs.
func NormalizePhone(phone, defaultCountryCode string) (string, error) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return "", fmt.Errorf("phone number is required")
	}

	digits := nonDigits.ReplaceAllString(trimmed, "")
	cc := nonDigits.ReplaceAllString(defaultCountryCode, "")

	switch {
	case strings.HasPrefix(trimmed, "+"):
	case len(digits) == 10 && cc != "":
		digits = cc + digits
	case len(digits) == 11 && cc != "" && strings.HasPrefix(digits, cc):
	default:
		return "", fmt.Errorf("phone number %q is not a dialable number", phone)
	}

	if len(digits) < 8 || len(digits) > 15 {
		return "", fmt.Errorf("phone number %q has %d digits", phone, len(digits))
	}
	return "+" + digits, nil
}
