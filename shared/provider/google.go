// Package provider validates external identity assertions. The portal uses
// it to accept a Google ID token during registration so the email arrives
// pre-verified.
package provider

import (
	"context"
	"errors"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrInvalidGoogleAudience = errors.New("invalid google audience")
	ErrEmailNotVerified      = errors.New("google account email is not verified")
)

// GoogleIdentity is what the portal needs from a validated ID token.
type GoogleIdentity struct {
	Email     string
	Subject   string
	ExpiresIn int64
}

// GoogleOAuthProvider validates Google ID tokens against a client ID.
type GoogleOAuthProvider struct {
	clientID string
}

// NewGoogleOAuthProvider creates a provider bound to the portal's OAuth
// client ID.
func NewGoogleOAuthProvider(clientID string) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{clientID: clientID}
}

// ValidateIDToken checks the ID token with Google's tokeninfo endpoint and
// returns the verified identity.
func (p *GoogleOAuthProvider) ValidateIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	oauth2Service, err := oauth2.NewService(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, err
	}

	tokenInfoCall := oauth2Service.Tokeninfo()
	tokenInfoCall.IdToken(idToken)
	tokenInfo, err := tokenInfoCall.Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	if tokenInfo.Audience != p.clientID {
		return nil, ErrInvalidGoogleAudience
	}

	if !tokenInfo.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}

	return &GoogleIdentity{
		Email:     tokenInfo.Email,
		Subject:   tokenInfo.UserId,
		ExpiresIn: tokenInfo.ExpiresIn,
	}, nil
}
