package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/iho/clientledger/internal/domain"
)

// MapDomainError converts domain errors to appropriate gRPC status codes
// This prevents internal error details from being exposed to clients
func MapDomainError(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	// Not Found errors
	case errors.Is(err, domain.ErrClientNotFound):
		return status.Error(codes.NotFound, "client not found")

	// Invalid Argument errors
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrInvalidClientID),
		errors.Is(err, domain.ErrInvalidAccountID),
		errors.Is(err, domain.ErrInvalidTransactionType):
		return status.Error(codes.InvalidArgument, err.Error())

	// Business rule violations
	case errors.Is(err, domain.ErrInsufficientFunds):
		return status.Error(codes.FailedPrecondition, "insufficient funds")

	case errors.Is(err, domain.ErrConcurrentUpdate):
		return status.Error(codes.Aborted, "concurrent update, retry the request")

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return status.Error(codes.Unauthenticated, "unauthenticated")

	// Context errors (timeouts, cancellations)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "operation timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "operation was canceled")

	// Default: Internal error (don't expose details)
	default:
		return status.Error(codes.Internal, "an internal error occurred")
	}
}
