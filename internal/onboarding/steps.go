package onboarding

import (
	"errors"
	"fmt"
)

var (
	ErrPhoneRequired         = errors.New("PHONE_REQUIRED")
	ErrCodeTooShort          = errors.New("CODE_TOO_SHORT")
	ErrCodeRejected          = errors.New("CODE_REJECTED")
	ErrResendCooldown        = errors.New("RESEND_COOLDOWN")
	ErrSubmitInFlight        = errors.New("SUBMIT_IN_FLIGHT")
	ErrInvalidTransition     = errors.New("INVALID_TRANSITION")
	ErrVerificationRequired  = errors.New("VERIFICATION_REQUIRED")
	ErrUnknownPreference     = errors.New("UNKNOWN_PREFERENCE")
	ErrInvalidFrequency      = errors.New("INVALID_FREQUENCY")
	ErrVerificationNotNeeded = errors.New("VERIFICATION_NOT_NEEDED")
)

// MinCodeLength is the shortest code sent to the server.
const MinCodeLength = 4

// Step identifies a wizard page.
type Step int

const (
	StepDiscovery Step = iota
	StepPreferences
	StepVerification
)

func (s Step) String() string {
	switch s {
	case StepDiscovery:
		return "discovery"
	case StepPreferences:
		return "preferences"
	case StepVerification:
		return "verification"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

var stepTransitions = map[Step][]Step{
	StepDiscovery:    {StepPreferences},
	StepPreferences:  {StepDiscovery, StepVerification},
	StepVerification: {StepPreferences},
}

func canMove(from, to Step) bool {
	for _, s := range stepTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Phase is the phone verification state.
type Phase int

const (
	PhaseUnset Phase = iota
	PhaseCodeSent
	PhaseVerified
)

func (p Phase) String() string {
	switch p {
	case PhaseUnset:
		return "unset"
	case PhaseCodeSent:
		return "code-sent"
	case PhaseVerified:
		return "verified"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type phaseEvent int

const (
	eventSend phaseEvent = iota
	eventResend
	eventVerifyOK
	eventVerifyFailed
	eventChangeNumber
)

var phaseTransitions = map[Phase]map[phaseEvent]Phase{
	PhaseUnset: {
		eventSend: PhaseCodeSent,
	},
	PhaseCodeSent: {
		eventResend:       PhaseCodeSent,
		eventVerifyOK:     PhaseVerified,
		eventVerifyFailed: PhaseCodeSent,
		eventChangeNumber: PhaseUnset,
	},
}

func nextPhase(from Phase, ev phaseEvent) (Phase, error) {
	to, ok := phaseTransitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: phase %s", ErrInvalidTransition, from)
	}
	return to, nil
}
