package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
	// UsernameKey is the context key for the authenticated username
	UsernameKey contextKey = "username"
)

// TokenCookie is the cookie the login endpoint sets.
const TokenCookie = "maint_token"

// Authorizer is the capability check the request pipeline consults. The
// concrete mechanism (bearer header, cookie, URL param) is an implementation
// detail behind this seam.
type Authorizer interface {
	Authorize(r *http.Request) (*Claims, error)
}

// ErrorResponse is the standardized error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ClaimsFromContext extracts the JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*Claims); ok {
		return claims
	}
	return nil
}

// UsernameFromContext extracts the authenticated username, or "".
func UsernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(UsernameKey).(string); ok {
		return v
	}
	return ""
}

// Authorize implements Authorizer on the JWT manager. The token is taken
// from the Authorization header, the session cookie, or a token query
// parameter, in that order; the fallbacks exist for clients that cannot
// set headers (the original UI went through the same evolution).
func (j *JWTManager) Authorize(r *http.Request) (*Claims, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, ErrNoToken
	}
	return j.ValidateToken(token)
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// Middleware rejects unauthenticated requests and stores the claims in the
// request context for handlers.
func Middleware(a Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := a.Authorize(r)
			if err != nil {
				code := "INVALID_TOKEN"
				message := "Invalid or expired token"
				switch {
				case err == ErrNoToken:
					code = "MISSING_TOKEN"
					message = "Authentication required"
				case strings.Contains(err.Error(), "expired"):
					code = "TOKEN_EXPIRED"
					message = "Token has expired"
				}
				sendErrorResponse(w, message, code, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, UsernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ErrNoToken means the request carried no token in any accepted position.
var ErrNoToken = errors.New("no token in request")

func sendErrorResponse(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
