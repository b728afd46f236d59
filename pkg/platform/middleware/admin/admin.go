package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	request "capacitor/pkg/platform/middleware/request"
)

// Scope a bearer token must carry to use admin routes.
const Scope = "capacitor:admin"

// Claims are the JWT claims accepted on admin routes.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// HasScope reports whether the space-separated scope list contains want.
func (c Claims) HasScope(want string) bool {
	for _, s := range strings.Fields(c.Scope) {
		if s == want {
			return true
		}
	}
	return false
}

// RequireAdmin accepts either the static X-Admin-Token or an HS256 bearer token
// signed with signingKey carrying the admin scope. An empty token or key
// disables that method.
func RequireAdmin(expectedToken string, signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validStaticToken(r, expectedToken) || validBearer(r, signingKey) {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			logger.WarnContext(ctx, "admin authentication failed",
				"request_id", request.GetRequestID(ctx),
				"path", r.URL.Path,
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin credentials required"}`))
		})
	}
}

func validStaticToken(r *http.Request, expected string) bool {
	if expected == "" {
		return false
	}
	token := r.Header.Get("X-Admin-Token")
	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
}

func validBearer(r *http.Request, key []byte) bool {
	if len(key) == 0 {
		return false
	}
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return false
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return false
	}
	return claims.HasScope(Scope)
}
