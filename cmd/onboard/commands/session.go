package commands

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	apperrors "erate-tracker/internal/common/errors"
	"erate-tracker/internal/models"
	"erate-tracker/internal/onboarding"
)

var (
	heading = color.New(color.Bold, color.FgHiWhite)
	checked = color.New(color.FgGreen)
	hint    = color.New(color.FgCyan)
	warning = color.New(color.FgYellow)
	errText = color.New(color.FgRed, color.Bold)
)

// session reads one command per line and applies it to the wizard.
type session struct {
	w    *onboarding.Wizard
	in   *bufio.Scanner
	tick time.Duration

	outMu sync.Mutex
	out   io.Writer

	cooldownCancel context.CancelFunc
	cooldownDone   sync.WaitGroup
}

func newSession(w *onboarding.Wizard, in io.Reader, out io.Writer, tick time.Duration) *session {
	if tick <= 0 {
		tick = time.Second
	}
	return &session{w: w, in: bufio.NewScanner(in), out: out, tick: tick}
}

// Run drives the wizard until it completes, the user quits or input ends.
func (s *session) Run(ctx context.Context) error {
	defer s.stopCooldown()

	s.w.Start(ctx)
	for !s.w.Done() {
		s.render()
		s.printf("%s ", hint.Sprint(">"))
		if !s.in.Scan() {
			if err := s.in.Err(); err != nil {
				return err
			}
			s.printf("\n")
			return nil
		}

		fields := strings.Fields(s.in.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "q" {
			s.printf("%s\n", warning.Sprint("Onboarding paused. Running onboard again starts over from the first step."))
			return nil
		}
		if err := s.dispatch(ctx, fields[0], fields[1:]); err != nil {
			s.printf("%s %s\n", errText.Sprint("!"), describe(err))
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "h", "?":
		s.help()
		return nil
	case "next", "n":
		return s.next(ctx)
	case "back", "b":
		return s.w.Back(ctx)
	}

	switch s.w.Step() {
	case onboarding.StepDiscovery:
		return s.discovery(cmd, args)
	case onboarding.StepPreferences:
		return s.preferences(cmd, args)
	default:
		return s.verification(ctx, cmd, args)
	}
}

func (s *session) next(ctx context.Context) error {
	step := s.w.Step()
	if err := s.w.Next(ctx); err != nil {
		return err
	}
	if step == onboarding.StepPreferences && !s.w.Preferences.LastWrite().OK() {
		s.printf("%s\n", warning.Sprint("Your alert settings could not be saved. You can change them later in Settings."))
	}
	return nil
}

func (s *session) discovery(cmd string, args []string) error {
	if cmd != "toggle" && cmd != "t" {
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: toggle <number>|all")
	}
	if args[0] == "all" {
		s.w.Discovery.ToggleAll()
		return nil
	}

	records := s.w.Discovery.Records()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(records) {
		return fmt.Errorf("pick a record between 1 and %d", len(records))
	}
	s.w.Discovery.Toggle(records[n-1].FRN)
	return nil
}

func (s *session) preferences(cmd string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	switch cmd {
	case "toggle", "t":
		keys := sortedKeys(s.w.Preferences.Profile().Categories)
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(keys) {
			return fmt.Errorf("pick a category between 1 and %d", len(keys))
		}
		return s.w.Preferences.ToggleCategory(keys[n-1])
	case "channel", "c":
		return s.w.Preferences.ToggleChannel(args[0])
	case "frequency", "f":
		return s.w.Preferences.SetFrequency(models.Frequency(args[0]))
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
}

func (s *session) verification(ctx context.Context, cmd string, args []string) error {
	v := s.w.Verification
	switch cmd {
	case "send", "s":
		if err := v.Send(ctx, strings.Join(args, " ")); err != nil {
			return err
		}
		s.sent()
	case "resend", "r":
		if err := v.Resend(ctx); err != nil {
			return err
		}
		s.sent()
	case "verify", "v":
		if len(args) != 1 {
			return fmt.Errorf("usage: verify <code>")
		}
		if err := v.Verify(ctx, args[0]); err != nil {
			return err
		}
		s.printf("%s\n", checked.Sprint("Phone verified."))
	case "change":
		return v.ChangeNumber()
	case "complete", "done":
		c, err := s.w.Complete(ctx)
		if err != nil {
			return err
		}
		s.finished(c)
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	return nil
}

func (s *session) sent() {
	s.printf("%s\n", checked.Sprintf("Code sent to %s.", s.w.Verification.Phone()))
	s.startCooldown()
}

// startCooldown ticks the resend counter in the background and announces
// when resending is possible again.
func (s *session) startCooldown() {
	s.stopCooldown()

	ctx, cancel := context.WithCancel(context.Background())
	s.cooldownCancel = cancel
	s.cooldownDone.Add(1)
	go func() {
		defer s.cooldownDone.Done()
		s.w.Verification.Cooldown().Run(ctx, s.tick, func(left int) {
			if left == 0 {
				s.printf("\n%s\n%s ", hint.Sprint("You can request a new code now (resend)."), hint.Sprint(">"))
			}
		})
	}()
}

func (s *session) stopCooldown() {
	if s.cooldownCancel != nil {
		s.cooldownCancel()
		s.cooldownCancel = nil
	}
	s.cooldownDone.Wait()
}

func (s *session) finished(c onboarding.Completion) {
	s.printf("\n%s\n", checked.Sprint("You're all set."))
	if !c.Acknowledged {
		s.printf("%s\n", warning.Sprint("We could not confirm completion with the server; nothing you chose was lost."))
	}
	s.printf("Continue at %s\n", heading.Sprint(c.Destination))
	if c.RedirectHint != "" && c.RedirectHint != c.Destination {
		s.printf("Server suggested %s\n", c.RedirectHint)
	}
}

func (s *session) render() {
	switch s.w.Step() {
	case onboarding.StepDiscovery:
		s.renderDiscovery()
	case onboarding.StepPreferences:
		s.renderPreferences()
	default:
		s.renderVerification()
	}
}

func (s *session) renderDiscovery() {
	d := s.w.Discovery
	s.printf("\n%s\n", heading.Sprint("Step 1 of 3: Your funding records"))
	if a := d.Advisory(); a != "" {
		s.printf("%s\n", warning.Sprint(a))
	}
	records := d.Records()
	if len(records) == 0 {
		s.printf("No funding records were found for your account. You can add them later.\n")
		return
	}
	sel := d.Selection()
	for i, r := range records {
		s.printf("  %s %2d  %s  FY%d  %-30s %-10s %-12s $%.2f\n",
			box(sel.Has(r.FRN)), i+1, r.FRN, r.FundingYear, r.OrganizationName, r.Category, r.Status, r.CommittedAmount)
	}
	s.printf("%d of %d selected\n", sel.Len(), len(records))
}

func (s *session) renderPreferences() {
	p := s.w.Preferences.Profile()
	s.printf("\n%s\n", heading.Sprint("Step 2 of 3: Alerts"))
	s.printf("Categories:\n")
	for i, k := range sortedKeys(p.Categories) {
		s.printf("  %s %2d  %s\n", box(p.Categories[k]), i+1, k)
	}
	s.printf("Channels:  ")
	for _, k := range []string{models.ChannelEmail, models.ChannelPush, models.ChannelSMS} {
		s.printf("%s %s  ", box(p.Channels[k]), k)
	}
	s.printf("\nFrequency: %s\n", p.Frequency)
}

func (s *session) renderVerification() {
	v := s.w.Verification
	s.printf("\n%s\n", heading.Sprint("Step 3 of 3: Phone"))
	if !v.SMSEnabled() {
		s.printf("SMS alerts are off, so there is no phone to verify. Type complete to finish.\n")
		return
	}
	switch v.Phase() {
	case onboarding.PhaseUnset:
		s.printf("Enter the mobile number for SMS alerts: send <phone>\n")
	case onboarding.PhaseCodeSent:
		s.printf("Enter the code sent to %s: verify <code>\n", v.Phone())
		if left := v.Cooldown().Remaining(); left > 0 {
			s.printf("%s\n", hint.Sprintf("Resend available in %ds.", left))
		}
	case onboarding.PhaseVerified:
		s.printf("%s %s. Type complete to finish.\n", checked.Sprint("Verified"), v.Phone())
	}
}

func (s *session) help() {
	s.printf("Anywhere: next, back, help, quit\n")
	switch s.w.Step() {
	case onboarding.StepDiscovery:
		s.printf("  toggle <number>   select or clear a record\n")
		s.printf("  toggle all        select or clear every record\n")
	case onboarding.StepPreferences:
		s.printf("  toggle <number>   switch a category on or off\n")
		s.printf("  channel <name>    switch email, push or sms\n")
		s.printf("  frequency <f>     realtime, daily or weekly\n")
	default:
		s.printf("  send <phone>      text a verification code\n")
		s.printf("  verify <code>     check the code\n")
		s.printf("  resend            send another code\n")
		s.printf("  change            use a different number\n")
		s.printf("  complete          finish onboarding\n")
	}
}

func (s *session) printf(format string, a ...interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, a...)
}

func box(on bool) string {
	if on {
		return checked.Sprint("[x]")
	}
	return "[ ]"
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// describe turns wizard and API errors into a line for the user.
func describe(err error) string {
	switch {
	case stderrors.Is(err, onboarding.ErrPhoneRequired):
		return "Enter a phone number first."
	case stderrors.Is(err, onboarding.ErrCodeTooShort):
		return fmt.Sprintf("Codes are at least %d digits.", onboarding.MinCodeLength)
	case stderrors.Is(err, onboarding.ErrCodeRejected):
		return "That code did not match. Check the message and try again."
	case stderrors.Is(err, onboarding.ErrResendCooldown):
		return "Please wait before requesting another code."
	case stderrors.Is(err, onboarding.ErrVerificationRequired):
		return "Verify your phone or switch off SMS alerts before finishing."
	case stderrors.Is(err, onboarding.ErrVerificationNotNeeded):
		return "SMS alerts are off; there is nothing to verify."
	case stderrors.Is(err, onboarding.ErrInvalidTransition):
		return "That is not available on this step."
	case stderrors.Is(err, onboarding.ErrUnknownPreference):
		return "Unknown category or channel."
	case stderrors.Is(err, onboarding.ErrInvalidFrequency):
		return "Frequency must be realtime, daily or weekly."
	}

	var stdErr *apperrors.StandardError
	if stderrors.As(err, &stdErr) {
		if secs, ok := stdErr.Metadata["retryAfterSeconds"]; ok {
			return fmt.Sprintf("%s (try again in %vs)", stdErr.Message, secs)
		}
		return stdErr.Message
	}
	return err.Error()
}
