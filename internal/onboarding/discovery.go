package onboarding

import (
	"context"
	"sync"

	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

// DiscoveryAdvisory is shown when the registry lookup fails.
const DiscoveryAdvisory = "We couldn't look up your funding requests right now. You can add them later from the dashboard."

// DiscoveryStep lists the account's funding records and persists the ones
// the user keeps selected.
type DiscoveryStep struct {
	api API
	log logger.Logger

	mu         sync.Mutex
	records    []models.DiscoveredRecord
	selected   SelectionSet
	loaded     bool
	advisory   string
	pending    bool
	lastErr    error
	generation uint64
}

func NewDiscoveryStep(api API, log logger.Logger) *DiscoveryStep {
	return &DiscoveryStep{
		api:      api,
		log:      log.WithFields(map[string]interface{}{"step": StepDiscovery.String()}),
		selected: NewSelectionSet(),
	}
}

// Load fetches records once per wizard pass. Every record starts selected.
// A failed lookup leaves the list empty with an advisory; the user can
// still continue.
func (s *DiscoveryStep) Load(ctx context.Context) {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	s.mu.Unlock()

	records, err := s.api.DiscoverRecords(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.loaded {
		s.log.Debug("discarding stale discovery response", nil)
		return
	}
	s.loaded = true
	if err != nil {
		s.log.Warn("record discovery failed", map[string]interface{}{"error": err})
		s.records = nil
		s.selected = NewSelectionSet()
		s.advisory = DiscoveryAdvisory
		return
	}

	// One row per FRN; the first occurrence wins.
	s.records = make([]models.DiscoveredRecord, 0, len(records))
	s.selected = NewSelectionSet()
	for _, r := range records {
		if s.selected.Has(r.FRN) {
			continue
		}
		s.records = append(s.records, r)
		s.selected[r.FRN] = struct{}{}
	}
	s.advisory = ""
	s.log.Info("records discovered", map[string]interface{}{"count": len(s.records)})
}

// Leave invalidates any load still in flight.
func (s *DiscoveryStep) Leave() {
	s.mu.Lock()
	s.generation++
	s.mu.Unlock()
}

func (s *DiscoveryStep) Records() []models.DiscoveredRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DiscoveredRecord(nil), s.records...)
}

func (s *DiscoveryStep) Selection() SelectionSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewSelectionSet(s.selected.IDs()...)
}

func (s *DiscoveryStep) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *DiscoveryStep) Advisory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advisory
}

func (s *DiscoveryStep) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *DiscoveryStep) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Toggle flips one record. FRNs that were not discovered are ignored.
func (s *DiscoveryStep) Toggle(frn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.known(frn) {
		return false
	}
	if s.selected.Has(frn) {
		delete(s.selected, frn)
	} else {
		s.selected[frn] = struct{}{}
	}
	return true
}

// ToggleAll clears the selection when everything is selected and selects
// everything otherwise.
func (s *DiscoveryStep) ToggleAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) > 0 && s.selected.Len() == len(s.records) {
		s.selected = NewSelectionSet()
		return
	}
	s.selected = NewSelectionSet()
	for _, r := range s.records {
		s.selected[r.FRN] = struct{}{}
	}
}

func (s *DiscoveryStep) known(frn string) bool {
	for _, r := range s.records {
		if r.FRN == frn {
			return true
		}
	}
	return false
}

// Submit persists the selection. An empty selection is a skip and makes no
// call. A failed save is kept in LastError and the caller must not advance.
func (s *DiscoveryStep) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	ids := s.selected.IDs()
	if len(ids) == 0 {
		s.lastErr = nil
		s.mu.Unlock()
		s.log.Info("no records selected, skipping save", nil)
		return nil
	}
	s.pending = true
	s.lastErr = nil
	s.mu.Unlock()

	err := s.api.SaveSelection(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		s.lastErr = err
		s.log.Error("saving selection failed", map[string]interface{}{
			"error": err,
			"count": len(ids),
		})
		return err
	}
	s.log.Info("selection saved", map[string]interface{}{"count": len(ids)})
	return nil
}
