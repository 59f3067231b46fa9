package auth

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

// GoogleIdentity is the verified subset of a Google ID token.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// GoogleVerifier validates Google ID tokens.
type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (*GoogleIdentity, error)
}

type idTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// IDTokenVerifier checks tokens against Google's published keys with the
// configured client id as audience.
type IDTokenVerifier struct {
	clientID string
	validate idTokenValidator
}

func NewIDTokenVerifier(clientID string) (*IDTokenVerifier, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, fmt.Errorf("google client id required")
	}
	return &IDTokenVerifier{clientID: clientID, validate: idtoken.Validate}, nil
}

func (v *IDTokenVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("id token required")
	}
	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, err
	}
	return identityFromPayload(payload), nil
}

func identityFromPayload(payload *idtoken.Payload) *GoogleIdentity {
	identity := &GoogleIdentity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Name = name
	}
	switch verified := payload.Claims["email_verified"].(type) {
	case bool:
		identity.EmailVerified = verified
	case string:
		identity.EmailVerified = verified == "true"
	}
	return identity
}
