package onboarding

import (
	"context"
	"fmt"
	"sync"

	"erate-tracker/internal/common/logger"
	"erate-tracker/internal/models"
)

// Navigator moves the user into the product once onboarding is done.
type Navigator interface {
	Navigate(destination string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(destination string)

func (f NavigatorFunc) Navigate(destination string) { f(destination) }

// DefaultDestinations maps each role to its landing page.
var DefaultDestinations = map[models.Role]string{
	models.RoleApplicant:  "/applicant",
	models.RoleConsultant: "/consultant",
	models.RoleVendor:     "/vendor",
}

// Completion describes how the wizard finished.
type Completion struct {
	Destination  string
	RedirectHint string
	// Acknowledged is false when the completion call failed.
	Acknowledged bool
}

type Option func(*Wizard)

func WithLogger(log logger.Logger) Option {
	return func(w *Wizard) { w.log = log }
}

func WithNavigator(n Navigator) Option {
	return func(w *Wizard) { w.navigator = n }
}

// WithDestinations overrides the landing page per role.
func WithDestinations(d map[models.Role]string) Option {
	return func(w *Wizard) {
		for role, dest := range d {
			if dest != "" {
				w.destinations[role] = dest
			}
		}
	}
}

// Wizard owns the step cursor. Each step owns its own state and calls.
type Wizard struct {
	role         models.Role
	log          logger.Logger
	navigator    Navigator
	destinations map[models.Role]string

	Discovery    *DiscoveryStep
	Preferences  *PreferenceStep
	Verification *VerificationStep

	mu         sync.Mutex
	cursor     Step
	completion *Completion
}

func New(api API, role models.Role, opts ...Option) (*Wizard, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("onboarding: unknown role %q", role)
	}
	w := &Wizard{
		role:         role,
		log:          logger.NewNoOpLogger(),
		navigator:    NavigatorFunc(func(string) {}),
		destinations: make(map[models.Role]string, len(DefaultDestinations)),
		cursor:       StepDiscovery,
	}
	for r, d := range DefaultDestinations {
		w.destinations[r] = d
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithFields(map[string]interface{}{"role": string(role)})

	w.Discovery = NewDiscoveryStep(api, w.log)
	w.Preferences = NewPreferenceStep(api, role, w.log)
	w.Verification = NewVerificationStep(api, w.log)
	return w, nil
}

func (w *Wizard) Role() models.Role { return w.role }

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

// Done reports whether Complete has run.
func (w *Wizard) Done() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completion != nil
}

// Start enters the first step.
func (w *Wizard) Start(ctx context.Context) {
	w.Discovery.Load(ctx)
}

// Next submits the current step and advances when the step allows it. On a
// blocking failure the cursor stays and the error is returned.
func (w *Wizard) Next(ctx context.Context) error {
	if w.Done() {
		return ErrInvalidTransition
	}
	switch cur := w.Step(); cur {
	case StepDiscovery:
		if err := w.Discovery.Submit(ctx); err != nil {
			return err
		}
		return w.move(ctx, cur, StepPreferences)
	case StepPreferences:
		if _, err := w.Preferences.Submit(ctx); err != nil {
			return err
		}
		return w.move(ctx, cur, StepVerification)
	default:
		return ErrInvalidTransition
	}
}

// Back returns to the previous step keeping its state.
func (w *Wizard) Back(ctx context.Context) error {
	if w.Done() {
		return ErrInvalidTransition
	}
	switch cur := w.Step(); cur {
	case StepPreferences:
		return w.move(ctx, cur, StepDiscovery)
	case StepVerification:
		return w.move(ctx, cur, StepPreferences)
	default:
		return ErrInvalidTransition
	}
}

func (w *Wizard) move(ctx context.Context, from, to Step) error {
	if !canMove(from, to) {
		return ErrInvalidTransition
	}

	w.mu.Lock()
	if w.cursor != from {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	w.cursor = to
	w.mu.Unlock()

	switch from {
	case StepDiscovery:
		w.Discovery.Leave()
	case StepPreferences:
		w.Preferences.Leave()
	}

	w.log.Debug("step changed", map[string]interface{}{
		"from": from.String(),
		"to":   to.String(),
	})

	switch to {
	case StepDiscovery:
		w.Discovery.Load(ctx)
	case StepPreferences:
		w.Preferences.Load(ctx)
	case StepVerification:
		w.Verification.Enter(w.Preferences.SMSEnabled())
	}
	return nil
}

// Complete finishes onboarding from the verification step and navigates to
// the role's landing page exactly once.
func (w *Wizard) Complete(ctx context.Context) (Completion, error) {
	w.mu.Lock()
	if w.completion != nil || w.cursor != StepVerification {
		w.mu.Unlock()
		return Completion{}, ErrInvalidTransition
	}
	w.mu.Unlock()

	hint, res, err := w.Verification.Complete(ctx)
	if err != nil {
		return Completion{}, err
	}

	c := Completion{
		Destination:  w.destinations[w.role],
		RedirectHint: hint,
		Acknowledged: res.OK(),
	}

	w.mu.Lock()
	w.completion = &c
	w.mu.Unlock()

	w.log.Info("onboarding finished", map[string]interface{}{
		"destination":  c.Destination,
		"redirectHint": c.RedirectHint,
		"acknowledged": c.Acknowledged,
	})
	w.navigator.Navigate(c.Destination)
	return c, nil
}
