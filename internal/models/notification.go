// internal/models/notification.go
package models

// Frequency controls how alerts are batched.
type Frequency string

const (
	FrequencyRealtime Frequency = "realtime"
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyRealtime, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// Alert categories shared by every role.
const (
	CategoryStatusChanges = "status_changes"
	CategoryDenials       = "denials"
	CategoryAppeals       = "appeals"
	CategoryDisbursements = "disbursements"
	CategoryDeadlines     = "deadlines"
)

// Role specific alert categories.
const (
	CategoryClientSummary    = "client_summary"    // consultant
	CategoryInvoiceDeadlines = "invoice_deadlines" // vendor
)

// Delivery channels.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
	ChannelSMS   = "sms"
)

// CommonCategories are offered to every role.
var CommonCategories = []string{
	CategoryStatusChanges,
	CategoryDenials,
	CategoryAppeals,
	CategoryDisbursements,
	CategoryDeadlines,
}

// RoleCategories holds the extra category each role gets.
var RoleCategories = map[Role][]string{
	RoleConsultant: {CategoryClientSummary},
	RoleVendor:     {CategoryInvoiceDeadlines},
}

// PreferenceProfile is a user's alert configuration. When read back from
// the server it may be partial: missing keys and an empty Frequency mean
// "not stored".
type PreferenceProfile struct {
	Categories map[string]bool `json:"categories,omitempty"`
	Channels   map[string]bool `json:"channels,omitempty"`
	Frequency  Frequency       `json:"frequency,omitempty"`
}

// Clone returns a deep copy.
func (p PreferenceProfile) Clone() PreferenceProfile {
	out := PreferenceProfile{
		Categories: make(map[string]bool, len(p.Categories)),
		Channels:   make(map[string]bool, len(p.Channels)),
		Frequency:  p.Frequency,
	}
	for k, v := range p.Categories {
		out.Categories[k] = v
	}
	for k, v := range p.Channels {
		out.Channels[k] = v
	}
	return out
}

// SMSEnabled reports whether the sms channel is switched on.
func (p PreferenceProfile) SMSEnabled() bool {
	return p.Channels[ChannelSMS]
}

// SendCodeRequest is the body of POST /api/onboarding/phone/send.
type SendCodeRequest struct {
	Phone string `json:"phone"`
}

// SendCodeResponse acknowledges a sent verification code.
type SendCodeResponse struct {
	RequestID          string `json:"requestId"`
	Phone              string `json:"phone"`
	ExpiresInSeconds   int    `json:"expiresInSeconds"`
	ResendAfterSeconds int    `json:"resendAfterSeconds"`
}

// VerifyCodeRequest is the body of POST /api/onboarding/phone/verify.
type VerifyCodeRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// VerifyCodeResponse carries the verification outcome. A wrong code is
// Verified=false, not an error.
type VerifyCodeResponse struct {
	Verified bool `json:"verified"`
}

// CompleteResponse is returned by POST /api/onboarding/complete.
type CompleteResponse struct {
	RedirectTo string `json:"redirectTo,omitempty"`
}
