package onboarding

import (
	"context"
	"errors"
	"testing"

	"erate-tracker/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerification(t *testing.T, api *fakeAPI, sms bool) *VerificationStep {
	t.Helper()
	step := NewVerificationStep(api, logger.NewTestLogger(t))
	step.Enter(sms)
	return step
}

func TestVerificationStep_SMSDisabledSkips(t *testing.T) {
	for _, phase := range []Phase{PhaseUnset, PhaseCodeSent, PhaseVerified} {
		t.Run(phase.String(), func(t *testing.T) {
			api := newFakeAPI()
			step := newVerification(t, api, false)
			step.phase = phase

			assert.True(t, step.CanComplete())
			assert.ErrorIs(t, step.Send(context.Background(), "555-0100"), ErrVerificationNotNeeded)
			assert.Zero(t, api.Calls("sendCode"))
		})
	}
}

func TestVerificationStep_SMSEnabledRequiresVerified(t *testing.T) {
	tests := []struct {
		phase Phase
		want  bool
	}{
		{PhaseUnset, false},
		{PhaseCodeSent, false},
		{PhaseVerified, true},
	}
	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			api := newFakeAPI()
			step := newVerification(t, api, true)
			step.phase = tt.phase

			assert.Equal(t, tt.want, step.CanComplete())
			if !tt.want {
				_, _, err := step.Complete(context.Background())
				assert.ErrorIs(t, err, ErrVerificationRequired)
				assert.Zero(t, api.Calls("complete"))
			}
		})
	}
}

func TestVerificationStep_SendValidation(t *testing.T) {
	api := newFakeAPI()
	step := newVerification(t, api, true)

	assert.ErrorIs(t, step.Send(context.Background(), "   "), ErrPhoneRequired)
	assert.ErrorIs(t, step.LastError(), ErrPhoneRequired)
	assert.Equal(t, PhaseUnset, step.Phase())
	assert.Zero(t, api.Calls("sendCode"))
}

func TestVerificationStep_SendFailureStaysUnset(t *testing.T) {
	api := newFakeAPI()
	api.sendErr = errors.New("sns throttled")
	step := newVerification(t, api, true)

	err := step.Send(context.Background(), "555-0100")

	require.Error(t, err)
	assert.Equal(t, PhaseUnset, step.Phase())
	assert.False(t, step.Cooldown().Active())
	assert.Equal(t, api.sendErr, step.LastError())
}

func TestVerificationStep_ResendCooldown(t *testing.T) {
	api := newFakeAPI()
	step := newVerification(t, api, true)
	require.NoError(t, step.Send(context.Background(), "555-0100"))

	for i := 1; i < ResendCooldownTicks; i++ {
		step.Cooldown().Tick()
		require.False(t, step.ResendAvailable(), "tick %d", i)
	}
	assert.ErrorIs(t, step.Resend(context.Background()), ErrResendCooldown)

	step.Cooldown().Tick()
	assert.True(t, step.ResendAvailable())

	require.NoError(t, step.Resend(context.Background()))
	assert.Equal(t, PhaseCodeSent, step.Phase())
	assert.Equal(t, []string{"555-0100", "555-0100"}, api.sentTo)
	assert.Equal(t, ResendCooldownTicks, step.Cooldown().Remaining())
}

func TestVerificationStep_VerifyUnlimitedRetries(t *testing.T) {
	api := newFakeAPI()
	api.codes["555-0100"] = "482913"
	step := newVerification(t, api, true)
	require.NoError(t, step.Send(context.Background(), "555-0100"))

	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, step.Verify(context.Background(), "111111"), ErrCodeRejected)
		assert.Equal(t, PhaseCodeSent, step.Phase())
	}

	require.NoError(t, step.Verify(context.Background(), "482913"))
	assert.Equal(t, PhaseVerified, step.Phase())
	assert.NoError(t, step.LastError())
	assert.Equal(t, 11, api.Calls("verifyCode"))
}

func TestVerificationStep_VerifyTransportError(t *testing.T) {
	api := newFakeAPI()
	api.verifyFn = func(phone, code string) (bool, error) {
		return false, errors.New("connection reset")
	}
	step := newVerification(t, api, true)
	require.NoError(t, step.Send(context.Background(), "555-0100"))

	err := step.Verify(context.Background(), "123456")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCodeRejected)
	assert.Equal(t, PhaseCodeSent, step.Phase())
}

func TestVerificationStep_VerifyBeforeSend(t *testing.T) {
	api := newFakeAPI()
	step := newVerification(t, api, true)

	assert.ErrorIs(t, step.Verify(context.Background(), "123456"), ErrInvalidTransition)
	assert.Zero(t, api.Calls("verifyCode"))
}

func TestVerificationStep_ChangeNumber(t *testing.T) {
	api := newFakeAPI()
	step := newVerification(t, api, true)

	assert.ErrorIs(t, step.ChangeNumber(), ErrInvalidTransition)

	require.NoError(t, step.Send(context.Background(), "555-0100"))
	step.Cooldown().Tick()
	require.NoError(t, step.ChangeNumber())

	assert.Equal(t, PhaseUnset, step.Phase())
	assert.Empty(t, step.Phone())
	assert.Equal(t, ResendCooldownTicks-1, step.Cooldown().Remaining())
	assert.False(t, step.ResendAvailable())

	require.NoError(t, step.Send(context.Background(), "555-0199"))
	assert.Equal(t, "555-0199", step.Phone())
	assert.Equal(t, ResendCooldownTicks, step.Cooldown().Remaining())
}

func TestVerificationStep_VerifiedIsTerminal(t *testing.T) {
	api := newFakeAPI()
	api.codes["555-0100"] = "4829"
	step := newVerification(t, api, true)
	require.NoError(t, step.Send(context.Background(), "555-0100"))
	require.NoError(t, step.Verify(context.Background(), "4829"))

	assert.ErrorIs(t, step.ChangeNumber(), ErrInvalidTransition)
	assert.ErrorIs(t, step.Send(context.Background(), "555-0101"), ErrInvalidTransition)
	assert.ErrorIs(t, step.Resend(context.Background()), ErrInvalidTransition)
}

func TestVerificationStep_CompleteOnce(t *testing.T) {
	api := newFakeAPI()
	api.completeErr = errors.New("502")
	step := newVerification(t, api, false)

	hint, res, err := step.Complete(context.Background())
	require.NoError(t, err)
	assert.Empty(t, hint)
	assert.False(t, res.OK())

	_, _, err = step.Complete(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, api.Calls("complete"))
}
