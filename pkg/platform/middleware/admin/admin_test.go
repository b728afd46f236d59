package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signingKey = []byte("test-signing-key")

func signed(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	valid := Claims{
		Scope:            "openid " + Scope,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}

	tests := []struct {
		name       string
		token      string
		key        []byte
		headers    map[string]string
		wantStatus int
	}{
		{
			name:       "static token",
			token:      "secret",
			headers:    map[string]string{"X-Admin-Token": "secret"},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "wrong static token",
			token:      "secret",
			headers:    map[string]string{"X-Admin-Token": "nope"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "static auth disabled when token empty",
			headers:    map[string]string{"X-Admin-Token": ""},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bearer with admin scope",
			key:        signingKey,
			headers:    map[string]string{"Authorization": "Bearer " + signed(t, jwt.SigningMethodHS256, signingKey, valid)},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "bearer without admin scope",
			key:  signingKey,
			headers: map[string]string{"Authorization": "Bearer " + signed(t, jwt.SigningMethodHS256, signingKey, Claims{
				Scope: "openid",
			})},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bearer signed with another key",
			key:        signingKey,
			headers:    map[string]string{"Authorization": "Bearer " + signed(t, jwt.SigningMethodHS256, []byte("other"), valid)},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bearer with other hmac alg",
			key:        signingKey,
			headers:    map[string]string{"Authorization": "Bearer " + signed(t, jwt.SigningMethodHS512, signingKey, valid)},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired bearer",
			key:  signingKey,
			headers: map[string]string{"Authorization": "Bearer " + signed(t, jwt.SigningMethodHS256, signingKey, Claims{
				Scope:            Scope,
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
			})},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "no credentials",
			token:      "secret",
			key:        signingKey,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/config/accounts", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()

			RequireAdmin(tt.token, tt.key, logger)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized","error_description":"admin credentials required"}`, rec.Body.String())
			}
		})
	}
}

func TestClaimsHasScope(t *testing.T) {
	assert.True(t, Claims{Scope: "a " + Scope + " b"}.HasScope(Scope))
	assert.False(t, Claims{Scope: Scope + "x"}.HasScope(Scope))
	assert.False(t, Claims{}.HasScope(Scope))
}
