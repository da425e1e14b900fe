// Package errors provides the structured error type shared by the onboarding
// API, its HTTP client and the Zeebe workers.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Onboarding errors
const (
	ErrCodeDiscoveryFailed       ErrorCode = "DISCOVERY_FAILED"
	ErrCodeSelectionSaveFailed   ErrorCode = "SELECTION_SAVE_FAILED"
	ErrCodePreferencesReadFailed ErrorCode = "PREFERENCES_READ_FAILED"
	ErrCodePreferencesWriteFail  ErrorCode = "PREFERENCES_WRITE_FAILED"

	ErrCodeVerificationSendFailed  ErrorCode = "VERIFICATION_SEND_FAILED"
	ErrCodeVerificationCooldown    ErrorCode = "VERIFICATION_RESEND_COOLDOWN"
	ErrCodeVerificationCheckFailed ErrorCode = "VERIFICATION_CHECK_FAILED"

	ErrCodeOnboardingCompleteFailed ErrorCode = "ONBOARDING_COMPLETE_FAILED"
	ErrCodeAccountNotFound          ErrorCode = "ACCOUNT_NOT_FOUND"
)

// Infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed      ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed          ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeNotificationSendFailed        ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// Generic errors
const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeTokenInvalid     ErrorCode = "TOKEN_INVALID"
	ErrCodeAuthentication   ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeNetwork          ErrorCode = "NETWORK_ERROR"
	ErrCodeDeserialization  ErrorCode = "DESERIALIZATION_ERROR"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches on code so errors.Is works against a code-only template.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewDiscoveryFailedError wraps a failed registry search.
func NewDiscoveryFailedError(err error) *StandardError {
	return newError(ErrCodeDiscoveryFailed, "Funding record discovery failed", err.Error(), true)
}

// NewSelectionSaveFailedError wraps a failed tracked-FRN insert.
func NewSelectionSaveFailedError(err error) *StandardError {
	return newError(ErrCodeSelectionSaveFailed, "Could not save tracked funding requests", err.Error(), true)
}

func NewPreferencesReadFailedError(err error) *StandardError {
	return newError(ErrCodePreferencesReadFailed, "Could not load notification preferences", err.Error(), true)
}

func NewPreferencesWriteFailedError(err error) *StandardError {
	return newError(ErrCodePreferencesWriteFail, "Could not save notification preferences", err.Error(), true)
}

// NewVerificationSendFailedError wraps an SMS or code-store failure.
func NewVerificationSendFailedError(err error) *StandardError {
	return newError(ErrCodeVerificationSendFailed, "Could not send verification code", err.Error(), true)
}

// NewVerificationCooldownError is returned when a resend arrives before the cooldown ends.
func NewVerificationCooldownError(remaining time.Duration) *StandardError {
	return newError(ErrCodeVerificationCooldown, "Please wait before requesting another code",
		fmt.Sprintf("retryAfterSeconds: %d", int(remaining.Seconds())), false).
		WithMetadata("retryAfterSeconds", int(remaining.Seconds()))
}

func NewVerificationCheckFailedError(err error) *StandardError {
	return newError(ErrCodeVerificationCheckFailed, "Could not check verification code", err.Error(), true)
}

func NewOnboardingCompleteFailedError(err error) *StandardError {
	return newError(ErrCodeOnboardingCompleteFailed, "Could not mark onboarding complete", err.Error(), true)
}

func NewAccountNotFoundError(accountID string) *StandardError {
	return newError(ErrCodeAccountNotFound, "Account not found", fmt.Sprintf("accountId: %s", accountID), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), true)
}

// Generic constructors

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false)
}

func NewTokenInvalidError(details string) *StandardError {
	return newError(ErrCodeTokenInvalid, "Token is not active", details, false)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

// ==========================
// 4. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the status the onboarding API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeTokenInvalid, ErrCodeAuthentication:
		return http.StatusUnauthorized
	case ErrCodeAccountNotFound, ErrCodeResourceNotFound, ErrCodeIndexNotFound:
		return http.StatusNotFound
	case ErrCodeVerificationCooldown:
		return http.StatusTooManyRequests
	case ErrCodeBusinessRule:
		return http.StatusConflict
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeExternalService, ErrCodeElasticsearchConnectionFailed, ErrCodeDatabaseConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// FromResponse decodes an error body written by the onboarding API. Bodies
// that are not StandardError JSON become a generic error carrying the status.
func FromResponse(status int, body []byte) *StandardError {
	var stdErr StandardError
	if err := json.Unmarshal(body, &stdErr); err == nil && stdErr.Code != "" {
		return &stdErr
	}
	retryable := status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
	return newError(ErrCodeExternalService, fmt.Sprintf("HTTP %d", status),
		strings.TrimSpace(string(body)), retryable)
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeAccountNotFound:          "ACCOUNT_NOT_FOUND",
	ErrCodeValidationFailed:         "VALIDATION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
}

// GetRetryCount returns how many times a job failing with code may be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// IsRetryableErrorCode reports whether code has any retry budget.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory buckets a code for metrics labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "VERIFICATION"):
		return "VERIFICATION"
	case strings.Contains(codeStr, "DISCOVERY") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "ELASTICSEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "TOKEN") || strings.Contains(codeStr, "AUTH"):
		return "AUTH"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
