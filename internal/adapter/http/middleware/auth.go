package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ClaimsContextKey is the context key for verified token claims
	ClaimsContextKey ContextKey = "claims"
	// ClientIDContextKey is the context key for the calling client's ID
	ClientIDContextKey ContextKey = "client_id"

	// ClientIDHeader identifies the caller when token auth is disabled.
	ClientIDHeader = "X-Client-ID"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// ClientDirectory resolves a token's email to a registered client.
type ClientDirectory interface {
	ResolveByEmail(ctx context.Context, email string) (*domain.Client, error)
}

// AuthMiddleware creates an authentication middleware. failures may be nil.
func AuthMiddleware(verifier TokenVerifier, failures *prometheus.CounterVec) func(http.Handler) http.Handler {
	reject := func(w http.ResponseWriter, reason, message string) {
		if failures != nil {
			failures.WithLabelValues(reason).Inc()
		}
		http.Error(w, message, http.StatusUnauthorized)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject(w, "missing_header", "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				reject(w, "malformed_header", "invalid authorization header format")
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				reject(w, "invalid_token", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose verified token does not carry one of roles.
// It must run after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "insufficient permissions", http.StatusForbidden)
		})
	}
}

// ResolveClient puts the calling client's ID into the request context.
// With verified claims the token's email is looked up in directory; without
// them the X-Client-ID header is trusted, which is only allowed when
// allowHeader is set.
func ResolveClient(directory ClientDirectory, allowHeader bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var clientID string

			if claims, ok := ClaimsFromContext(r.Context()); ok {
				client, err := directory.ResolveByEmail(r.Context(), claims.Email)
				if err != nil {
					http.Error(w, "unknown client", http.StatusUnauthorized)
					return
				}
				clientID = client.ID
			} else if allowHeader {
				clientID = r.Header.Get(ClientIDHeader)
				if err := domain.ValidateClientID(clientID); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
			} else {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			annotateClient(r.Context(), clientID)
			ctx := context.WithValue(r.Context(), ClientIDContextKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts verified token claims from context
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.Claims)
	return claims, ok
}

// ClientIDFromContext extracts the calling client's ID from context
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ClientIDContextKey).(string)
	return id, ok && id != ""
}

// WithClientID returns a copy of ctx carrying clientID.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDContextKey, clientID)
}
