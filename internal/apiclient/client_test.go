package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "erate-tracker/internal/common/errors"
	apphttp "erate-tracker/internal/common/http"
	"erate-tracker/internal/models"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   string
}

type stubAPI struct {
	mu       sync.Mutex
	requests []recorded
	handlers map[string]http.HandlerFunc
}

func newStubAPI(t *testing.T, handlers map[string]http.HandlerFunc) (*stubAPI, *Client) {
	t.Helper()
	stub := &stubAPI{handlers: handlers}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.requests = append(stub.requests, recorded{r.Method, r.URL.Path, r.Header.Get("Authorization"), string(body)})
		stub.mu.Unlock()

		h, ok := stub.handlers[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return stub, New(srv.URL, apphttp.StaticToken("session-abc"), 2*time.Second)
}

func jsonBody(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// ==========================
// Happy paths
// ==========================

func TestClient_RoundTrips(t *testing.T) {
	stub, c := newStubAPI(t, map[string]http.HandlerFunc{
		"GET /api/onboarding/records":       jsonBody(200, `{"records":[{"frn":"2499012345","fundingYear":2024,"status":"Funded"}]}`),
		"POST /api/onboarding/selection":    jsonBody(200, `{"saved":1}`),
		"GET /api/onboarding/preferences":   jsonBody(200, `{"channels":{"sms":true}}`),
		"PUT /api/onboarding/preferences":   jsonBody(200, `{}`),
		"POST /api/onboarding/phone/send":   jsonBody(200, `{"requestId":"r1","phone":"+12175550100","expiresInSeconds":600,"resendAfterSeconds":60}`),
		"POST /api/onboarding/phone/verify": jsonBody(200, `{"verified":true}`),
		"POST /api/onboarding/complete":     jsonBody(200, `{"redirectTo":"/vendor"}`),
	})
	ctx := context.Background()

	records, err := c.DiscoverRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2499012345", records[0].FRN)

	require.NoError(t, c.SaveSelection(ctx, []string{"2499012345"}))

	profile, err := c.GetPreferences(ctx)
	require.NoError(t, err)
	assert.True(t, profile.SMSEnabled())
	assert.Empty(t, profile.Frequency)

	require.NoError(t, c.SavePreferences(ctx, models.PreferenceProfile{Frequency: models.FrequencyDaily}))
	require.NoError(t, c.SendVerificationCode(ctx, "+12175550100"))

	ok, err := c.VerifyCode(ctx, "+12175550100", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	hint, err := c.CompleteOnboarding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/vendor", hint)

	require.Len(t, stub.requests, 7)
	for _, r := range stub.requests {
		assert.Equal(t, "Bearer session-abc", r.auth, r.path)
	}
	assert.JSONEq(t, `{"frns":["2499012345"]}`, stub.requests[1].body)
	assert.JSONEq(t, `{"frequency":"daily"}`, stub.requests[3].body)
	assert.JSONEq(t, `{"phone":"+12175550100","code":"123456"}`, stub.requests[5].body)
}

func TestClient_WrongCodeIsNotAnError(t *testing.T) {
	_, c := newStubAPI(t, map[string]http.HandlerFunc{
		"POST /api/onboarding/phone/verify": jsonBody(200, `{"verified":false}`),
	})

	ok, err := c.VerifyCode(context.Background(), "+12175550100", "000000")

	require.NoError(t, err)
	assert.False(t, ok)
}

// ==========================
// Errors
// ==========================

func TestClient_DecodesServerErrors(t *testing.T) {
	cooldown, _ := json.Marshal(apperrors.NewVerificationCooldownError(42 * time.Second))
	_, c := newStubAPI(t, map[string]http.HandlerFunc{
		"POST /api/onboarding/phone/send": jsonBody(http.StatusTooManyRequests, string(cooldown)),
		"GET /api/onboarding/records":     jsonBody(http.StatusBadGateway, `upstream timeout`),
	})

	err := c.SendVerificationCode(context.Background(), "+12175550100")
	require.Error(t, err)
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeVerificationCooldown, stdErr.Code)
	assert.EqualValues(t, 42, stdErr.Metadata["retryAfterSeconds"])

	_, err = c.DiscoverRecords(context.Background())
	require.Error(t, err)
	stdErr = apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeExternalService, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestClient_NoToken(t *testing.T) {
	stub, _ := newStubAPI(t, nil)
	c := New("http://127.0.0.1:1", apphttp.StaticToken(""), time.Second)

	err := c.SaveSelection(context.Background(), []string{"2499012345"})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAuthentication, apperrors.Normalize(err).Code)
	assert.Empty(t, stub.requests)
}
