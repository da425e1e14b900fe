// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"erate-tracker/internal/common/errors"
	"erate-tracker/internal/models"
)

// Authenticator resolves a bearer token into the calling account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// KeycloakClient validates access tokens through Keycloak's introspection
// endpoint. It never refreshes or revokes the caller's session.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// TokenInfo holds the information returned by the token introspection endpoint.
type TokenInfo struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Iss       string `json:"iss,omitempty"`

	// Mapped from the user attributes by a protocol mapper.
	AccountID string `json:"account_id,omitempty"`
	ERateRole string `json:"erate_role,omitempty"`

	RealmAccess struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
}

// ValidateToken checks if an access token is valid and active.
func (k *KeycloakClient) ValidateToken(ctx context.Context, token string) (*TokenInfo, error) {
	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("token_type_hint", "access_token")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, errors.NewAuthenticationError(fmt.Sprintf("build introspection request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		stdErr := errors.NewExternalServiceError("keycloak",
			fmt.Errorf("introspection returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		stdErr.Retryable = isTransientHTTPError(resp.StatusCode)
		return nil, stdErr
	}

	var tokenInfo TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeDeserialization,
			Message:   "Failed to decode token introspection response",
			Details:   err.Error(),
			Timestamp: time.Now(),
		}
	}

	if !tokenInfo.Active {
		return nil, errors.NewTokenInvalidError("The provided access token is expired, revoked or malformed.")
	}

	return &tokenInfo, nil
}

// Authenticate validates token and maps its claims to a Principal.
func (k *KeycloakClient) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	info, err := k.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return PrincipalFromToken(info)
}

// PrincipalFromToken picks the account id (account_id claim, else sub) and
// the role (erate_role claim, else the first matching realm role).
func PrincipalFromToken(info *TokenInfo) (*models.Principal, error) {
	accountID := info.AccountID
	if accountID == "" {
		accountID = info.Sub
	}
	if accountID == "" {
		return nil, errors.NewTokenInvalidError("token carries no subject")
	}

	role, err := models.ParseRole(info.ERateRole)
	if err != nil {
		role = ""
		for _, r := range info.RealmAccess.Roles {
			if parsed, perr := models.ParseRole(r); perr == nil {
				role = parsed
				break
			}
		}
	}
	if role == "" {
		return nil, errors.NewAuthenticationError("account has no onboarding role")
	}

	return &models.Principal{
		AccountID: accountID,
		Email:     info.Email,
		Role:      role,
	}, nil
}

func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
