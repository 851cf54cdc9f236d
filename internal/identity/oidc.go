package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/vendahub/vendahub/internal/db/models"
	"github.com/vendahub/vendahub/internal/rbac"
	"github.com/vendahub/vendahub/internal/uniuri"
)

// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc authentication is disabled")

// OIDCConfig holds OpenID Connect (OIDC) configuration for SSO login.
type OIDCConfig struct {
	// Enabled indicates if OIDC authentication is enabled.
	Enabled bool
	// ProviderURL is the OIDC provider's discovery URL (e.g., "https://accounts.google.com").
	ProviderURL string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string
	// RedirectURL is the OAuth2 callback URL where the provider redirects after authentication.
	RedirectURL string
	// Scopes are the OAuth2 scopes to request (default: ["openid", "profile", "email"]).
	Scopes []string
}

// OIDCProvider handles OIDC SSO authentication. The external provider only
// proves who the user is; the role claim still lives in the local claims
// store, so first-time SSO logins materialize a local identity that goes
// through the default role assignment flow.
type OIDCProvider struct {
	config   *OIDCConfig
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
	db       *gorm.DB
}

// NewOIDCProvider creates a new OIDC provider.
func NewOIDCProvider(ctx context.Context, config *OIDCConfig, db *gorm.DB) (*OIDCProvider, error) {
	if !config.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, config.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: config.ClientID,
	})

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	oauth2Config := oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	return &OIDCProvider{
		config:   config,
		provider: provider,
		verifier: verifier,
		oauth2:   oauth2Config,
		db:       db,
	}, nil
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

// GetAuthURL returns the OIDC authorization URL with state token.
func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// HandleCallback handles the OIDC callback and returns the local identity
// for the external subject, creating it on first login. The second return
// value reports whether the identity was created by this call, so the
// caller can run the default role assignment flow for it.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (*models.Identity, bool, error) {
	// Exchange code for token
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, false, fmt.Errorf("failed to exchange token: %w", err)
	}

	// Extract ID token
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, false, ErrNoIDToken
	}

	// Verify ID token
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, false, fmt.Errorf("failed to verify ID token: %w", err)
	}

	// Extract claims
	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return nil, false, fmt.Errorf("failed to parse claims: %w", err)
	}

	// Find or create the local identity for the external subject
	var ident models.Identity

	err = p.db.WithContext(ctx).
		Where("external_id = ? AND auth_source = ?", claims.Sub, models.AuthSourceOIDC).
		First(&ident).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ident = models.Identity{
			UID:         uniuri.NewUID(),
			Email:       claims.Email,
			DisplayName: claims.Name,
			RoleClaim:   rbac.DefaultRole,
			AuthSource:  models.AuthSourceOIDC,
			ExternalID:  claims.Sub,
			Active:      true,
		}

		if err = p.db.WithContext(ctx).Create(&ident).Error; err != nil {
			return nil, false, fmt.Errorf("failed to create identity: %w", err)
		}

		return &ident, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("failed to query identity: %w", err)
	default:
		// Refresh mutable fields from the provider
		ident.Email = claims.Email
		ident.DisplayName = claims.Name

		if err = p.db.WithContext(ctx).Save(&ident).Error; err != nil {
			return nil, false, fmt.Errorf("failed to update identity: %w", err)
		}

		return &ident, false, nil
	}
}

// VerifyToken verifies the signature and claims of an OIDC ID token.
func (p *OIDCProvider) VerifyToken(ctx context.Context, rawToken string) (*oidc.IDToken, error) {
	return p.verifier.Verify(ctx, rawToken)
}

// RefreshToken obtains a new access token using a refresh token.
func (p *OIDCProvider) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	tokenSource := p.oauth2.TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
	})

	return tokenSource.Token()
}
