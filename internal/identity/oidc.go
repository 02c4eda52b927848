package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleIssuerURL is the OpenID Connect issuer of Google sign-in ID tokens.
const GoogleIssuerURL = "https://accounts.google.com"

// OIDCConfig configures OIDCProvider.
type OIDCConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
}

// OIDCProvider verifies ID tokens issued by an OpenID Connect provider and
// performs password logins through the resource-owner password grant.
type OIDCProvider struct {
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewOIDCProvider discovers the issuer and builds a provider.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	return &OIDCProvider{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

type emailClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
}

// VerifyCredential verifies the ID token signature and audience and extracts its email.
func (p *OIDCProvider) VerifyCredential(ctx context.Context, token string) (*Identity, error) {
	idToken, err := p.verifier.Verify(ctx, token)
	if err != nil {
		return nil, ErrInvalidCredential
	}

	var claims emailClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}
	if claims.Email == "" {
		return nil, ErrNoEmail
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, ErrInvalidCredential
	}
	return &Identity{
		Email:     normalizeEmail(claims.Email),
		Subject:   idToken.Subject,
		ExpiresAt: idToken.Expiry,
	}, nil
}

// NewGoogleVerifier verifies Google sign-in ID tokens issued to clientID.
func NewGoogleVerifier(ctx context.Context, clientID string) (*OIDCProvider, error) {
	return NewOIDCProvider(ctx, OIDCConfig{IssuerURL: GoogleIssuerURL, ClientID: clientID})
}

// AuthenticateWithPassword runs the password grant against the token endpoint.
func (p *OIDCProvider) AuthenticateWithPassword(ctx context.Context, email, password string) (*SessionTokens, error) {
	token, err := p.oauth2Config.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("failed to exchange password: %w", err)
	}

	access := token.AccessToken
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		access = raw
	}

	expiresIn := 0
	if !token.Expiry.IsZero() {
		expiresIn = int(time.Until(token.Expiry) / time.Second)
	}
	return &SessionTokens{
		AccessToken:  access,
		RefreshToken: token.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	}, nil
}

// Register is handled by the upstream provider's own signup flow.
func (p *OIDCProvider) Register(ctx context.Context, email, password string) error {
	return ErrUnsupported
}

// SendPasswordReset is handled by the upstream provider.
func (p *OIDCProvider) SendPasswordReset(ctx context.Context, email string) error {
	return ErrUnsupported
}
