package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivshakti/boutique-backend/internal/users"
	"github.com/shivshakti/boutique-backend/pkg/auth"
	"github.com/shivshakti/boutique-backend/pkg/auth/session"
	"github.com/shivshakti/boutique-backend/pkg/config"
	"github.com/shivshakti/boutique-backend/pkg/enums"
	pkgerrors "github.com/shivshakti/boutique-backend/pkg/errors"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}

type stubSessions struct {
	revoked     string
	rotatedFrom string
	presented   string
	nextID      string
	nextToken   string
	rotateErr   error
	revokeErr   error
}

func (s *stubSessions) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	s.rotatedFrom = oldAccessID
	s.presented = provided
	return s.nextID, s.nextToken, s.rotateErr
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = accessID
	return s.revokeErr
}

type stubAccounts map[uuid.UUID]*users.UserDTO

func (s stubAccounts) Get(_ context.Context, id uuid.UUID) (*users.UserDTO, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.Role, issued time.Time) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(cfg, issued, auth.AccessTokenPayload{
		UserID: userID,
		Email:  "asha@example.com",
		Role:   role,
		JTI:    accessID,
	})
	require.NoError(t, err)
	return token, accessID
}

func sessionRequest(target, token, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthLogoutRevokesSession(t *testing.T) {
	for name, issued := range map[string]time.Time{
		"live":    time.Now(),
		"expired": time.Now().Add(-time.Hour),
	} {
		t.Run(name, func(t *testing.T) {
			sessions := &stubSessions{}
			token, jti := mintTestToken(t, testJWT, uuid.New(), enums.RoleCustomer, issued)

			rec := httptest.NewRecorder()
			AuthLogout(sessions, testJWT, nil).ServeHTTP(rec, sessionRequest("/logout", token, ""))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, jti, sessions.revoked)
		})
	}
}

func TestAuthLogoutRevokeFailure(t *testing.T) {
	sessions := &stubSessions{revokeErr: errors.New("redis down")}
	token, _ := mintTestToken(t, testJWT, uuid.New(), enums.RoleCustomer, time.Now())

	rec := httptest.NewRecorder()
	AuthLogout(sessions, testJWT, nil).ServeHTTP(rec, sessionRequest("/logout", token, ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthLogoutRejectsOtherSchemes(t *testing.T) {
	token, _ := mintTestToken(t, testJWT, uuid.New(), enums.RoleCustomer, time.Now())
	req := sessionRequest("/logout", "", "")
	req.Header.Set("Authorization", "Basic "+token)

	rec := httptest.NewRecorder()
	AuthLogout(&stubSessions{}, testJWT, nil).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRefreshCarriesCurrentRole(t *testing.T) {
	userID := uuid.New()
	accounts := stubAccounts{userID: {ID: userID, Email: "asha@example.com", IsAdmin: true}}
	sessions := &stubSessions{nextID: "new-jti", nextToken: "new-refresh"}

	token, jti := mintTestToken(t, testJWT, userID, enums.RoleCustomer, time.Now().Add(-time.Hour))
	rec := httptest.NewRecorder()
	AuthRefresh(sessions, accounts, testJWT, nil).ServeHTTP(rec, sessionRequest("/refresh", token, `{"refresh_token":"old-refresh"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, jti, sessions.rotatedFrom)
	assert.Equal(t, "old-refresh", sessions.presented)

	var envelope struct {
		Data refreshResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "new-refresh", envelope.Data.RefreshToken)

	claims, err := auth.ParseAccessToken(testJWT, envelope.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new-jti", claims.ID)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, enums.RoleAdmin, claims.Role, "promotion since the old token must show up")
}

func TestAuthRefreshFailures(t *testing.T) {
	known := uuid.New()
	accounts := stubAccounts{known: {ID: known, Email: "a@example.com"}}

	tests := []struct {
		name     string
		userID   uuid.UUID
		bearer   bool
		body     string
		sessions *stubSessions
		want     int
	}{
		{"invalid refresh token", known, true, `{"refresh_token":"x"}`, &stubSessions{rotateErr: session.ErrInvalidRefreshToken}, http.StatusUnauthorized},
		{"session store down", known, true, `{"refresh_token":"x"}`, &stubSessions{rotateErr: errors.New("redis down")}, http.StatusServiceUnavailable},
		{"deleted account", uuid.New(), true, `{"refresh_token":"x"}`, &stubSessions{}, http.StatusUnauthorized},
		{"missing bearer", known, false, `{"refresh_token":"x"}`, &stubSessions{}, http.StatusUnauthorized},
		{"missing refresh token", known, true, `{}`, &stubSessions{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := ""
			if tt.bearer {
				token, _ = mintTestToken(t, testJWT, tt.userID, enums.RoleCustomer, time.Now())
			}
			rec := httptest.NewRecorder()
			AuthRefresh(tt.sessions, accounts, testJWT, nil).ServeHTTP(rec, sessionRequest("/refresh", token, tt.body))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
