package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/iho/clientledger/internal/adapter/grpc/ledgerv1"
	"github.com/iho/clientledger/internal/infrastructure/logger"
)

const (
	// IdempotencyKeyHeader is the metadata key for idempotency
	IdempotencyKeyHeader = "x-idempotency-key"

	pendingMarker = "processing"
)

// IdempotencyStore defines the minimal contract needed for idempotency handling.
type IdempotencyStore interface {
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (exists bool, cachedResponse []byte, err error)
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

type releaser interface {
	Release(ctx context.Context, key string) error
}

// storedReply is the cached outcome of a completed call.
type storedReply struct {
	RequestHash string          `json:"request_hash"`
	Reply       json.RawMessage `json:"reply"`
}

// IdempotencyInterceptor creates a gRPC unary interceptor for idempotency.
// It must run after AuthInterceptor so keys can be scoped to the client.
func IdempotencyInterceptor(store IdempotencyStore, ttl time.Duration, log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !ledgerv1.IsMutating(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}

		keys := md.Get(IdempotencyKeyHeader)
		if len(keys) == 0 {
			return handler(ctx, req)
		}

		idempotencyKey := keys[0]
		if idempotencyKey == "" {
			return nil, status.Error(codes.InvalidArgument, "idempotency key cannot be empty")
		}

		clientID, _ := ClientIDFromContext(ctx)
		cacheKey := fmt.Sprintf("grpc:%s:%s:%s", clientID, info.FullMethod, idempotencyKey)
		reqLogger := logger.FromContext(ctx, log)

		requestHash, err := hashRequest(req)
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to generate request hash")
		}

		exists, cached, err := store.CheckAndSet(ctx, cacheKey, nil, ttl)
		if err != nil {
			reqLogger.Error().Err(err).Str("idempotency_key", cacheKey).Msg("idempotency check failed")
			return nil, status.Error(codes.Unavailable, "idempotency check failed")
		}

		if exists {
			return replay(info.FullMethod, cached, requestHash)
		}

		resp, err := handler(ctx, req)
		if err != nil {
			// Errors are not cached so the client can retry
			if r, ok := store.(releaser); ok {
				if relErr := r.Release(context.WithoutCancel(ctx), cacheKey); relErr != nil {
					reqLogger.Warn().Err(relErr).Str("idempotency_key", cacheKey).Msg("failed to release idempotency key")
				}
			}
			return resp, err
		}

		reply, err := json.Marshal(resp)
		if err == nil {
			payload, _ := json.Marshal(storedReply{RequestHash: requestHash, Reply: reply})
			if err := store.Update(context.WithoutCancel(ctx), cacheKey, payload, ttl); err != nil {
				reqLogger.Warn().Err(err).Str("idempotency_key", cacheKey).Msg("failed to store idempotent reply")
			}
		}

		return resp, nil
	}
}

func replay(fullMethod string, cached []byte, requestHash string) (any, error) {
	if len(cached) == 0 || string(cached) == pendingMarker {
		return nil, status.Error(codes.Aborted, "request with this idempotency key is in progress")
	}

	var stored storedReply
	if err := json.Unmarshal(cached, &stored); err != nil {
		return nil, status.Error(codes.Internal, "corrupt idempotent reply")
	}

	if stored.RequestHash != requestHash {
		return nil, status.Error(codes.InvalidArgument, "idempotency key reused with different request body")
	}

	reply, ok := ledgerv1.NewReply(fullMethod)
	if !ok {
		return nil, status.Error(codes.Internal, "unknown method")
	}
	if err := json.Unmarshal(stored.Reply, reply); err != nil {
		return nil, status.Error(codes.Internal, "corrupt idempotent reply")
	}

	return reply, nil
}

// hashRequest generates a SHA-256 hash of the request for fingerprinting
func hashRequest(req any) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
