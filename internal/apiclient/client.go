// Package apiclient talks to the onboarding API over HTTP on behalf of the
// wizard.
package apiclient

import (
	"context"
	"net/http"
	"time"

	apphttp "erate-tracker/internal/common/http"
	"erate-tracker/internal/models"
	"erate-tracker/internal/onboarding"
)

const (
	pathRecords     = "/api/onboarding/records"
	pathSelection   = "/api/onboarding/selection"
	pathPreferences = "/api/onboarding/preferences"
	pathSendCode    = "/api/onboarding/phone/send"
	pathVerifyCode  = "/api/onboarding/phone/verify"
	pathComplete    = "/api/onboarding/complete"
)

// Client implements onboarding.API against a running onboarding API.
type Client struct {
	http *apphttp.Client
}

var _ onboarding.API = (*Client)(nil)

func New(baseURL string, tokens apphttp.TokenSource, timeout time.Duration) *Client {
	return &Client{http: apphttp.NewJSONClient(baseURL, tokens, timeout)}
}

func (c *Client) DiscoverRecords(ctx context.Context) ([]models.DiscoveredRecord, error) {
	var resp models.DiscoverResponse
	if err := c.http.DoJSON(ctx, http.MethodGet, pathRecords, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (c *Client) SaveSelection(ctx context.Context, frns []string) error {
	return c.http.DoJSON(ctx, http.MethodPost, pathSelection, models.SelectionRequest{FRNs: frns}, nil)
}

func (c *Client) GetPreferences(ctx context.Context) (models.PreferenceProfile, error) {
	var profile models.PreferenceProfile
	if err := c.http.DoJSON(ctx, http.MethodGet, pathPreferences, nil, &profile); err != nil {
		return models.PreferenceProfile{}, err
	}
	return profile, nil
}

func (c *Client) SavePreferences(ctx context.Context, profile models.PreferenceProfile) error {
	return c.http.DoJSON(ctx, http.MethodPut, pathPreferences, profile, nil)
}

func (c *Client) SendVerificationCode(ctx context.Context, phone string) error {
	return c.http.DoJSON(ctx, http.MethodPost, pathSendCode, models.SendCodeRequest{Phone: phone}, nil)
}

func (c *Client) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	var resp models.VerifyCodeResponse
	err := c.http.DoJSON(ctx, http.MethodPost, pathVerifyCode, models.VerifyCodeRequest{Phone: phone, Code: code}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Verified, nil
}

func (c *Client) CompleteOnboarding(ctx context.Context) (string, error) {
	var resp models.CompleteResponse
	if err := c.http.DoJSON(ctx, http.MethodPost, pathComplete, nil, &resp); err != nil {
		return "", err
	}
	return resp.RedirectTo, nil
}
