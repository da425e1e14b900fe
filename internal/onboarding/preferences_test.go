package onboarding

import (
	"context"
	"errors"
	"testing"

	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPreferences(t *testing.T) {
	tests := []struct {
		role    models.Role
		present []string
		absent  []string
	}{
		{
			role:   models.RoleApplicant,
			absent: []string{models.CategoryInvoiceDeadlines, models.CategoryClientSummary},
		},
		{
			role:    models.RoleConsultant,
			present: []string{models.CategoryClientSummary},
			absent:  []string{models.CategoryInvoiceDeadlines},
		},
		{
			role:    models.RoleVendor,
			present: []string{models.CategoryInvoiceDeadlines},
			absent:  []string{models.CategoryClientSummary},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			p := DefaultPreferences(tt.role)

			for _, c := range models.CommonCategories {
				assert.True(t, p.Categories[c], c)
			}
			for _, c := range tt.present {
				assert.True(t, p.Categories[c], c)
			}
			for _, c := range tt.absent {
				_, ok := p.Categories[c]
				assert.False(t, ok, c)
			}
			assert.True(t, p.Channels[models.ChannelEmail])
			assert.True(t, p.Channels[models.ChannelPush])
			assert.False(t, p.Channels[models.ChannelSMS])
			assert.Equal(t, models.FrequencyRealtime, p.Frequency)
		})
	}
}

func TestMergePreferences_NeverDropsKeys(t *testing.T) {
	defaults := DefaultPreferences(models.RoleVendor)
	keys := make([]string, 0, len(defaults.Categories))
	for k := range defaults.Categories {
		keys = append(keys, k)
	}

	// every subset of the category keys as the stored partial
	for mask := 0; mask < 1<<len(keys); mask++ {
		stored := models.PreferenceProfile{Categories: map[string]bool{}}
		for i, k := range keys {
			if mask&(1<<i) != 0 {
				stored.Categories[k] = false
			}
		}

		merged := MergePreferences(defaults, stored)

		require.Len(t, merged.Categories, len(defaults.Categories))
		for i, k := range keys {
			want := mask&(1<<i) == 0
			assert.Equal(t, want, merged.Categories[k], "mask %b key %s", mask, k)
		}
	}
}

func TestMergePreferences_ServerWins(t *testing.T) {
	defaults := DefaultPreferences(models.RoleApplicant)
	stored := models.PreferenceProfile{
		Categories: map[string]bool{"legacy_digest": true},
		Channels:   map[string]bool{models.ChannelSMS: true},
		Frequency:  models.FrequencyWeekly,
	}

	merged := MergePreferences(defaults, stored)

	assert.True(t, merged.Categories["legacy_digest"])
	assert.True(t, merged.Channels[models.ChannelSMS])
	assert.True(t, merged.Channels[models.ChannelEmail])
	assert.Equal(t, models.FrequencyWeekly, merged.Frequency)

	merged = MergePreferences(defaults, models.PreferenceProfile{Frequency: "hourly"})
	assert.Equal(t, models.FrequencyRealtime, merged.Frequency)
	assert.False(t, defaults.Channels[models.ChannelSMS], "defaults untouched")
}

func TestPreferenceStep_ReadFailureKeepsDefaults(t *testing.T) {
	api := newFakeAPI()
	api.prefsErr = errors.New("timeout")
	step := NewPreferenceStep(api, models.RoleConsultant, logger.NewTestLogger(t))

	step.Load(context.Background())

	assert.Equal(t, DefaultPreferences(models.RoleConsultant), step.Profile())
	assert.True(t, step.Loaded())
}

func TestPreferenceStep_Edits(t *testing.T) {
	api := newFakeAPI()
	step := NewPreferenceStep(api, models.RoleApplicant, logger.NewTestLogger(t))
	step.Load(context.Background())

	require.NoError(t, step.ToggleCategory(models.CategoryDenials))
	require.NoError(t, step.ToggleChannel(models.ChannelSMS))
	require.NoError(t, step.SetFrequency(models.FrequencyDaily))

	assert.ErrorIs(t, step.ToggleCategory(models.CategoryInvoiceDeadlines), ErrUnknownPreference)
	assert.ErrorIs(t, step.ToggleChannel("fax"), ErrUnknownPreference)
	assert.ErrorIs(t, step.SetFrequency("hourly"), ErrInvalidFrequency)

	p := step.Profile()
	assert.False(t, p.Categories[models.CategoryDenials])
	assert.True(t, step.SMSEnabled())
	assert.Equal(t, models.FrequencyDaily, p.Frequency)
}

func TestPreferenceStep_SubmitIsBestEffort(t *testing.T) {
	api := newFakeAPI()
	api.prefsSetErr = errors.New("503")
	step := NewPreferenceStep(api, models.RoleVendor, logger.NewTestLogger(t))
	step.Load(context.Background())

	res, err := step.Submit(context.Background())

	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "save-preferences", res.Op)
	assert.Equal(t, res, step.LastWrite())
	require.Len(t, api.prefsWrites, 1)
	assert.Equal(t, step.Profile(), api.prefsWrites[0])
}
