package onboarding

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"erate-tracker/internal/common/logger"
)

// VerificationStep proves possession of the phone that receives SMS alerts.
// With SMS off the step has nothing to do and completion is allowed.
type VerificationStep struct {
	api API
	log logger.Logger

	mu         sync.Mutex
	smsEnabled bool
	phase      Phase
	phone      string
	pending    bool
	lastErr    error
	completed  bool
	cooldown   Cooldown
}

func NewVerificationStep(api API, log logger.Logger) *VerificationStep {
	return &VerificationStep{
		api: api,
		log: log.WithFields(map[string]interface{}{"step": StepVerification.String()}),
	}
}

// Enter is called with the sms flag from the preference step each time the
// step is shown.
func (s *VerificationStep) Enter(smsEnabled bool) {
	s.mu.Lock()
	s.smsEnabled = smsEnabled
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *VerificationStep) SMSEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.smsEnabled
}

func (s *VerificationStep) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *VerificationStep) Phone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phone
}

func (s *VerificationStep) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Cooldown exposes the resend counter so a driver can tick it.
func (s *VerificationStep) Cooldown() *Cooldown {
	return &s.cooldown
}

// ResendAvailable reports whether a resend would be accepted locally.
func (s *VerificationStep) ResendAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseCodeSent && !s.cooldown.Active()
}

// CanComplete is true when SMS is off or the phone is verified.
func (s *VerificationStep) CanComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canComplete()
}

func (s *VerificationStep) canComplete() bool {
	return !s.smsEnabled || s.phase == PhaseVerified
}

// Send requests a code for phone.
func (s *VerificationStep) Send(ctx context.Context, phone string) error {
	phone = strings.TrimSpace(phone)

	s.mu.Lock()
	if err := s.checkSendable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if phone == "" {
		s.lastErr = ErrPhoneRequired
		s.mu.Unlock()
		return ErrPhoneRequired
	}
	if _, err := nextPhase(s.phase, eventSend); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending = true
	s.lastErr = nil
	s.mu.Unlock()

	return s.deliver(ctx, phone, eventSend)
}

// Resend requests a fresh code for the current phone once the cooldown has
// run out.
func (s *VerificationStep) Resend(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkSendable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if _, err := nextPhase(s.phase, eventResend); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.cooldown.Active() {
		s.lastErr = ErrResendCooldown
		s.mu.Unlock()
		return ErrResendCooldown
	}
	phone := s.phone
	s.pending = true
	s.lastErr = nil
	s.mu.Unlock()

	return s.deliver(ctx, phone, eventResend)
}

func (s *VerificationStep) checkSendable() error {
	if !s.smsEnabled {
		return ErrVerificationNotNeeded
	}
	if s.pending {
		return ErrSubmitInFlight
	}
	return nil
}

// deliver runs with pending already set.
func (s *VerificationStep) deliver(ctx context.Context, phone string, ev phaseEvent) error {
	err := s.api.SendVerificationCode(ctx, phone)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		s.lastErr = err
		s.log.Warn("sending verification code failed", map[string]interface{}{"error": err})
		return err
	}
	to, err := nextPhase(s.phase, ev)
	if err != nil {
		return err
	}
	s.phase = to
	s.phone = phone
	s.cooldown.Start(ResendCooldownTicks)
	s.log.Info("verification code sent", nil)
	return nil
}

// Verify checks code against the server. Codes shorter than MinCodeLength
// are rejected without a call. A wrong code keeps the step in code-sent so
// the user can try again.
func (s *VerificationStep) Verify(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	if s.phase != PhaseCodeSent {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if utf8.RuneCountInString(code) < MinCodeLength {
		s.lastErr = ErrCodeTooShort
		s.mu.Unlock()
		return ErrCodeTooShort
	}
	s.pending = true
	s.lastErr = nil
	phone := s.phone
	s.mu.Unlock()

	verified, err := s.api.VerifyCode(ctx, phone, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err == nil && !verified {
		err = ErrCodeRejected
	}
	if err != nil {
		s.phase, _ = nextPhase(s.phase, eventVerifyFailed)
		s.lastErr = err
		s.log.Info("verification failed", map[string]interface{}{"error": err})
		return err
	}
	s.phase, _ = nextPhase(s.phase, eventVerifyOK)
	s.log.Info("phone verified", nil)
	return nil
}

// ChangeNumber drops the sent code and returns to phone entry. The resend
// cooldown keeps counting down.
func (s *VerificationStep) ChangeNumber() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return ErrSubmitInFlight
	}
	to, err := nextPhase(s.phase, eventChangeNumber)
	if err != nil {
		return err
	}
	s.phase = to
	s.phone = ""
	s.lastErr = nil
	return nil
}

// Complete fires the completion call once. The call is best-effort; the
// returned hint is empty when the server gave none or the call failed.
func (s *VerificationStep) Complete(ctx context.Context) (string, BestEffort, error) {
	s.mu.Lock()
	if s.completed || s.pending {
		s.mu.Unlock()
		return "", BestEffort{}, ErrInvalidTransition
	}
	if !s.canComplete() {
		s.lastErr = ErrVerificationRequired
		s.mu.Unlock()
		return "", BestEffort{}, ErrVerificationRequired
	}
	s.pending = true
	s.mu.Unlock()

	var hint string
	res := bestEffort(s.log, "complete-onboarding", func() error {
		var err error
		hint, err = s.api.CompleteOnboarding(ctx)
		return err
	})
	if !res.OK() {
		hint = ""
	}

	s.mu.Lock()
	s.pending = false
	s.completed = true
	s.mu.Unlock()
	return hint, res, nil
}
