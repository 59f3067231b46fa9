package controllers

import (
	"context"
	stdErrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shivshakti/boutique-backend/api/responses"
	"github.com/shivshakti/boutique-backend/api/validators"
	"github.com/shivshakti/boutique-backend/internal/users"
	pkgAuth "github.com/shivshakti/boutique-backend/pkg/auth"
	"github.com/shivshakti/boutique-backend/pkg/auth/session"
	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/enums"
	"github.com/shivshakti/boutique-backend/pkg/errors"
	"github.com/shivshakti/boutique-backend/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type accountReader interface {
	Get(ctx context.Context, id uuid.UUID) (*users.UserDTO, error)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// lapsedSessionClaims reads the bearer token without enforcing expiry, so
// refresh and logout keep working once the short-lived token has lapsed.
func lapsedSessionClaims(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return nil, errors.New(errors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, strings.TrimSpace(token))
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New(errors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout drops the refresh session bound to the presented token.
func AuthLogout(sessions sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims, err := lapsedSessionClaims(r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := sessions.Revoke(ctx, claims.ID); err != nil {
			responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeDependency, err, "revoke session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthRefresh trades a refresh token for a new pair. The account is re-read
// first so the new access token carries the current role and email.
func AuthRefresh(sessions sessionTokenRotator, accounts accountReader, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		claims, err := lapsedSessionClaims(r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		account, err := accounts.Get(ctx, claims.UserID)
		if err != nil {
			if errors.IsCode(err, errors.CodeNotFound) {
				err = errors.New(errors.CodeUnauthorized, "account no longer exists")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		accessID, refreshToken, err := sessions.Rotate(ctx, claims.ID, body.RefreshToken)
		switch {
		case stdErrors.Is(err, session.ErrInvalidRefreshToken):
			responses.WriteError(ctx, logg, w, errors.New(errors.CodeUnauthorized, "invalid refresh token"))
			return
		case err != nil:
			responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeDependency, err, "rotate session"))
			return
		}

		accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID: account.ID,
			Email:  account.Email,
			Role:   enums.RoleFor(account.IsAdmin),
			JTI:    accessID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, errors.Wrap(errors.CodeInternal, err, "mint jwt"))
			return
		}
		responses.WriteSuccess(w, refreshResponse{AccessToken: accessToken, RefreshToken: refreshToken})
	}
}
