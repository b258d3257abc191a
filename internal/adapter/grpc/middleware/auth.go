package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/infrastructure/auth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ClientIDContextKey is the context key for the calling client's ID
	ClientIDContextKey ContextKey = "client_id"

	// AuthorizationHeader is the metadata key for authorization
	AuthorizationHeader = "authorization"
	// ClientIDHeader identifies the caller when token auth is disabled
	ClientIDHeader = "x-client-id"

	healthServicePrefix = "/grpc.health.v1.Health/"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// ClientDirectory resolves a token's email to a registered client.
type ClientDirectory interface {
	ResolveByEmail(ctx context.Context, email string) (*domain.Client, error)
}

// AuthInterceptor creates a gRPC interceptor that identifies the calling client.
// With a verifier the bearer token's email is resolved through directory;
// with a nil verifier the x-client-id metadata is trusted.
func AuthInterceptor(verifier TokenVerifier, directory ClientDirectory) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		var clientID string
		if verifier != nil {
			values := md.Get(AuthorizationHeader)
			if len(values) == 0 {
				return nil, status.Error(codes.Unauthenticated, "missing authorization token")
			}

			claims, err := verifier.Verify(strings.TrimPrefix(values[0], "Bearer "))
			if err != nil {
				return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
			}

			client, err := directory.ResolveByEmail(ctx, claims.Email)
			if err != nil {
				return nil, status.Error(codes.Unauthenticated, "unknown client")
			}
			clientID = client.ID
		} else {
			values := md.Get(ClientIDHeader)
			if len(values) == 0 {
				return nil, status.Error(codes.Unauthenticated, "missing client id")
			}
			if err := domain.ValidateClientID(values[0]); err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			clientID = values[0]
		}

		return handler(WithClientID(ctx, clientID), req)
	}
}

// WithClientID returns a copy of ctx carrying clientID.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDContextKey, clientID)
}

// ClientIDFromContext extracts the calling client's ID from context
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ClientIDContextKey).(string)
	return id, ok && id != ""
}
