package onboarding

import (
	"context"
	"sync"

	"erate-tracker/internal/models"
)

// ==========================
// Fake API
// ==========================

type fakeAPI struct {
	mu sync.Mutex

	records     []models.DiscoveredRecord
	discoverErr error
	// discoverGate, when set, blocks DiscoverRecords until closed.
	discoverGate chan struct{}

	saveErr   error
	savedFRNs [][]string

	stored      models.PreferenceProfile
	prefsErr    error
	prefsWrites []models.PreferenceProfile
	prefsSetErr error

	sendErr  error
	sentTo   []string
	codes    map[string]string
	verifyFn func(phone, code string) (bool, error)
	verified []string

	redirect    string
	completeErr error

	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		codes: make(map[string]string),
		calls: make(map[string]int),
	}
}

func (f *fakeAPI) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeAPI) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) DiscoverRecords(ctx context.Context) ([]models.DiscoveredRecord, error) {
	f.count("discover")
	if f.discoverGate != nil {
		<-f.discoverGate
	}
	return f.records, f.discoverErr
}

func (f *fakeAPI) SaveSelection(ctx context.Context, frns []string) error {
	f.count("saveSelection")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedFRNs = append(f.savedFRNs, append([]string(nil), frns...))
	return f.saveErr
}

func (f *fakeAPI) GetPreferences(ctx context.Context) (models.PreferenceProfile, error) {
	f.count("getPreferences")
	return f.stored, f.prefsErr
}

func (f *fakeAPI) SavePreferences(ctx context.Context, profile models.PreferenceProfile) error {
	f.count("savePreferences")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefsWrites = append(f.prefsWrites, profile)
	return f.prefsSetErr
}

func (f *fakeAPI) SendVerificationCode(ctx context.Context, phone string) error {
	f.count("sendCode")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sentTo = append(f.sentTo, phone)
	return f.sendErr
}

func (f *fakeAPI) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	f.count("verifyCode")
	if f.verifyFn != nil {
		return f.verifyFn(phone, code)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.codes[phone] == code, nil
}

func (f *fakeAPI) CompleteOnboarding(ctx context.Context) (string, error) {
	f.count("complete")
	return f.redirect, f.completeErr
}

func sampleRecords(n int) []models.DiscoveredRecord {
	frns := []string{"2399012345", "2399012346", "2399012347", "2399012348", "2399012349"}
	out := make([]models.DiscoveredRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.DiscoveredRecord{
			FRN:              frns[i],
			FundingYear:      2024,
			OrganizationName: "Springfield Unified School District",
			Category:         "Category 1",
			ServiceType:      "Internet Access",
			Status:           "Pending",
			CommittedAmount:  12500.00,
			Form471Number:    "241000123",
		})
	}
	return out
}
