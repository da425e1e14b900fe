package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "erate-tracker/internal/common/errors"
	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
	"erate-tracker/internal/onboarding"
)

// ==========================
// Mock API
// ==========================

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) DiscoverRecords(ctx context.Context) ([]models.DiscoveredRecord, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]models.DiscoveredRecord)
	return records, args.Error(1)
}

func (m *MockAPI) SaveSelection(ctx context.Context, frns []string) error {
	return m.Called(ctx, frns).Error(0)
}

func (m *MockAPI) GetPreferences(ctx context.Context) (models.PreferenceProfile, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.PreferenceProfile), args.Error(1)
}

func (m *MockAPI) SavePreferences(ctx context.Context, profile models.PreferenceProfile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *MockAPI) SendVerificationCode(ctx context.Context, phone string) error {
	return m.Called(ctx, phone).Error(0)
}

func (m *MockAPI) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	args := m.Called(ctx, phone, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockAPI) CompleteOnboarding(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func runSession(t *testing.T, api *MockAPI, role models.Role, script ...string) string {
	t.Helper()
	w, err := onboarding.New(api, role, onboarding.WithLogger(logger.NewTestLogger(t)))
	require.NoError(t, err)

	var out bytes.Buffer
	s := newSession(w, strings.NewReader(strings.Join(script, "\n")+"\n"), &out, time.Hour)
	require.NoError(t, s.Run(context.Background()))
	return out.String()
}

// ==========================
// Session flows
// ==========================

func TestSession_CompletesWithoutSMS(t *testing.T) {
	api := new(MockAPI)
	api.On("DiscoverRecords", mock.Anything).Return([]models.DiscoveredRecord{
		{FRN: "2399000001", FundingYear: 2024, OrganizationName: "Springfield SD", Status: "Funded"},
		{FRN: "2399000002", FundingYear: 2024, OrganizationName: "Springfield SD", Status: "Pending"},
	}, nil)
	api.On("SaveSelection", mock.Anything, []string{"2399000001"}).Return(nil)
	api.On("GetPreferences", mock.Anything).Return(models.PreferenceProfile{}, nil)
	api.On("SavePreferences", mock.Anything, mock.Anything).Return(nil)
	api.On("CompleteOnboarding", mock.Anything).Return("", nil)

	out := runSession(t, api, models.RoleVendor,
		"toggle 2",
		"next",
		"frequency daily",
		"next",
		"complete",
	)

	assert.Contains(t, out, "1 of 2 selected")
	assert.Contains(t, out, "SMS alerts are off")
	assert.Contains(t, out, "You're all set.")
	assert.Contains(t, out, "Continue at /vendor")
	api.AssertExpectations(t)

	saved := api.Calls[3].Arguments.Get(1).(models.PreferenceProfile)
	assert.Equal(t, models.FrequencyDaily, saved.Frequency)
	assert.True(t, saved.Categories[models.CategoryInvoiceDeadlines])
}

func TestSession_PhoneVerification(t *testing.T) {
	phone := "(217) 555-0100"

	api := new(MockAPI)
	api.On("DiscoverRecords", mock.Anything).Return(nil, nil)
	api.On("GetPreferences", mock.Anything).Return(models.PreferenceProfile{}, nil)
	api.On("SavePreferences", mock.Anything, mock.Anything).Return(nil)
	api.On("SendVerificationCode", mock.Anything, phone).Return(nil).Once()
	api.On("VerifyCode", mock.Anything, phone, "000000").Return(false, nil).Once()
	api.On("VerifyCode", mock.Anything, phone, "123456").Return(true, nil).Once()
	api.On("CompleteOnboarding", mock.Anything).Return("/applicant", nil)

	out := runSession(t, api, models.RoleApplicant,
		"next",
		"channel sms",
		"next",
		"complete",
		"send "+phone,
		"resend",
		"verify 12",
		"verify 000000",
		"verify 123456",
		"complete",
	)

	assert.Contains(t, out, "Verify your phone or switch off SMS alerts before finishing.")
	assert.Contains(t, out, "Code sent to "+phone)
	assert.Contains(t, out, "Please wait before requesting another code.")
	assert.Contains(t, out, "Codes are at least 4 digits.")
	assert.Contains(t, out, "That code did not match.")
	assert.Contains(t, out, "Phone verified.")
	assert.Contains(t, out, "Continue at /applicant")
	assert.NotContains(t, out, "Server suggested")

	api.AssertExpectations(t)
	api.AssertNumberOfCalls(t, "SendVerificationCode", 1)
	api.AssertNotCalled(t, "SaveSelection", mock.Anything, mock.Anything)
}

func TestSession_DiscoveryFailureStillAdvances(t *testing.T) {
	api := new(MockAPI)
	api.On("DiscoverRecords", mock.Anything).Return(nil, apperrors.NewExternalServiceError("erate-api", assert.AnError))
	api.On("GetPreferences", mock.Anything).Return(models.PreferenceProfile{}, nil)

	out := runSession(t, api, models.RoleConsultant, "next", "back", "quit")

	assert.Contains(t, out, onboarding.DiscoveryAdvisory)
	assert.Contains(t, out, "Step 2 of 3")
	assert.Contains(t, out, "Onboarding paused. Running onboard again starts over from the first step.")
	api.AssertNumberOfCalls(t, "DiscoverRecords", 1)
}

func TestSession_EndOfInput(t *testing.T) {
	api := new(MockAPI)
	api.On("DiscoverRecords", mock.Anything).Return(nil, nil)

	w, err := onboarding.New(api, models.RoleVendor)
	require.NoError(t, err)

	var out bytes.Buffer
	s := newSession(w, strings.NewReader("toggle 9\nbogus\n"), &out, 0)
	require.NoError(t, s.Run(context.Background()))

	assert.Contains(t, out.String(), "pick a record between 1 and 0")
	assert.Contains(t, out.String(), `unknown command "bogus"`)
	assert.False(t, w.Done())
}

// ==========================
// Helpers
// ==========================

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "wizard error", err: onboarding.ErrCodeRejected, want: "That code did not match. Check the message and try again."},
		{name: "server cooldown", err: apperrors.NewVerificationCooldownError(42 * time.Second), want: "(try again in 42s)"},
		{name: "server error", err: apperrors.NewSelectionSaveFailedError(assert.AnError), want: apperrors.NewSelectionSaveFailedError(assert.AnError).Message},
		{name: "plain error", err: assert.AnError, want: assert.AnError.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, describe(tt.err), tt.want)
		})
	}
}

func TestRoleDestinations(t *testing.T) {
	got := roleDestinations(map[string]string{"Vendor": "/vendor/home", "admin": "/admin"})
	assert.Equal(t, map[models.Role]string{models.RoleVendor: "/vendor/home"}, got)
}
