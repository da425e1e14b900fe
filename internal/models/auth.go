package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the kind of organization an account belongs to.
type Role string

const (
	RoleApplicant  Role = "applicant"
	RoleConsultant Role = "consultant"
	RoleVendor     Role = "vendor"
)

// Roles lists every supported role.
var Roles = []Role{RoleApplicant, RoleConsultant, RoleVendor}

func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleConsultant, RoleVendor:
		return true
	}
	return false
}

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Account is the signed-up organization account the wizard runs for.
type Account struct {
	ID                    string     `json:"id" db:"id"`
	Email                 string     `json:"email" db:"email"`
	Role                  Role       `json:"role" db:"role"`
	OrganizationName      string     `json:"organizationName" db:"organization_name"`
	BEN                   string     `json:"ben,omitempty" db:"ben"`
	ConsultantRegNumber   string     `json:"consultantRegistrationNumber,omitempty" db:"cnslt_registration_number"`
	SPIN                  string     `json:"spin,omitempty" db:"spin"`
	Phone                 string     `json:"phone,omitempty" db:"phone"`
	PhoneVerifiedAt       *time.Time `json:"phoneVerifiedAt,omitempty" db:"phone_verified_at"`
	OnboardingCompletedAt *time.Time `json:"onboardingCompletedAt,omitempty" db:"onboarding_completed_at"`
}

// Principal is the caller resolved from a bearer token.
type Principal struct {
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}
