package onboarding

import (
	"context"
	"sync"

	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

// DefaultPreferences returns the starting profile for a role: every
// category offered to the role on, email and push on, sms off, realtime.
func DefaultPreferences(role models.Role) models.PreferenceProfile {
	p := models.PreferenceProfile{
		Categories: make(map[string]bool),
		Channels: map[string]bool{
			models.ChannelEmail: true,
			models.ChannelPush:  true,
			models.ChannelSMS:   false,
		},
		Frequency: models.FrequencyRealtime,
	}
	for _, c := range models.CommonCategories {
		p.Categories[c] = true
	}
	for _, c := range models.RoleCategories[role] {
		p.Categories[c] = true
	}
	return p
}

// MergePreferences overlays stored values on defaults key by key. Keys the
// server has that the defaults lack are kept; nothing is dropped.
func MergePreferences(defaults, stored models.PreferenceProfile) models.PreferenceProfile {
	out := defaults.Clone()
	for k, v := range stored.Categories {
		out.Categories[k] = v
	}
	for k, v := range stored.Channels {
		out.Channels[k] = v
	}
	if stored.Frequency.Valid() {
		out.Frequency = stored.Frequency
	}
	return out
}

// PreferenceStep edits the alert profile.
type PreferenceStep struct {
	api  API
	log  logger.Logger
	role models.Role

	mu         sync.Mutex
	profile    models.PreferenceProfile
	loaded     bool
	pending    bool
	lastWrite  BestEffort
	generation uint64
}

func NewPreferenceStep(api API, role models.Role, log logger.Logger) *PreferenceStep {
	return &PreferenceStep{
		api:     api,
		log:     log.WithFields(map[string]interface{}{"step": StepPreferences.String()}),
		role:    role,
		profile: DefaultPreferences(role),
	}
}

// Load reads stored preferences once and merges them over the defaults.
// A failed read keeps the defaults.
func (s *PreferenceStep) Load(ctx context.Context) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	s.mu.Unlock()

	stored, err := s.api.GetPreferences(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.loaded {
		s.log.Debug("discarding stale preferences response", nil)
		return
	}
	s.loaded = true
	if err != nil {
		s.log.Debug("preferences read failed, using defaults", map[string]interface{}{"error": err})
		return
	}
	s.profile = MergePreferences(s.profile, stored)
}

// Leave invalidates any load still in flight.
func (s *PreferenceStep) Leave() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

func (s *PreferenceStep) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Profile returns a copy of the current profile.
func (s *PreferenceStep) Profile() models.PreferenceProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

func (s *PreferenceStep) SMSEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.SMSEnabled()
}

func (s *PreferenceStep) ToggleCategory(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.profile.Categories[key]
	if !ok {
		return ErrUnknownPreference
	}
	s.profile.Categories[key] = !v
	return nil
}

func (s *PreferenceStep) ToggleChannel(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.profile.Channels[key]
	if !ok {
		return ErrUnknownPreference
	}
	s.profile.Channels[key] = !v
	return nil
}

func (s *PreferenceStep) SetFrequency(f models.Frequency) error {
	if !f.Valid() {
		return ErrInvalidFrequency
	}
	s.mu.Lock()
	s.profile.Frequency = f
	s.mu.Unlock()
	return nil
}

// LastWrite reports the outcome of the most recent save.
func (s *PreferenceStep) LastWrite() BestEffort {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWrite
}

// Submit writes the full profile. The write is best-effort: only a submit
// already in flight is an error.
func (s *PreferenceStep) Submit(ctx context.Context) (BestEffort, error) {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return BestEffort{}, ErrSubmitInFlight
	}
	s.pending = true
	profile := s.profile.Clone()
	s.mu.Unlock()

	res := bestEffort(s.log, "save-preferences", func() error {
		return s.api.SavePreferences(ctx, profile)
	})

	s.mu.Lock()
	s.pending = false
	s.lastWrite = res
	s.mu.Unlock()
	return res, nil
}
