package server

import (
	"context"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/iho/clientledger/internal/adapter/grpc/converter"
	grpcerrors "github.com/iho/clientledger/internal/adapter/grpc/errors"
	"github.com/iho/clientledger/internal/adapter/grpc/ledgerv1"
	"github.com/iho/clientledger/internal/adapter/grpc/middleware"
	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

// LedgerUseCase is the command and query surface served over gRPC.
type LedgerUseCase interface {
	Deposit(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error)
	Withdraw(ctx context.Context, clientID string, amount decimal.Decimal) (*domain.Transaction, error)
	Balance(ctx context.Context, clientID string) (*usecase.BalanceResult, error)
	ListTransactions(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error)
	RecentTransactions(ctx context.Context, clientID string) ([]*domain.TransactionEvent, error)
}

// LedgerServer implements the gRPC LedgerService
type LedgerServer struct {
	ledger LedgerUseCase
}

var _ ledgerv1.LedgerServiceServer = (*LedgerServer)(nil)

// NewLedgerServer creates a new LedgerServer
func NewLedgerServer(ledger LedgerUseCase) *LedgerServer {
	return &LedgerServer{ledger: ledger}
}

// Deposit records a deposit for the calling client
func (s *LedgerServer) Deposit(ctx context.Context, req *ledgerv1.AmountRequest) (*ledgerv1.TransactionReply, error) {
	return s.submit(ctx, req, s.ledger.Deposit)
}

// Withdraw records a withdrawal for the calling client
func (s *LedgerServer) Withdraw(ctx context.Context, req *ledgerv1.AmountRequest) (*ledgerv1.TransactionReply, error) {
	return s.submit(ctx, req, s.ledger.Withdraw)
}

func (s *LedgerServer) submit(
	ctx context.Context,
	req *ledgerv1.AmountRequest,
	fn func(context.Context, string, decimal.Decimal) (*domain.Transaction, error),
) (*ledgerv1.TransactionReply, error) {
	clientID, ok := middleware.ClientIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid amount format")
	}

	tx, err := fn(ctx, clientID, amount)
	if err != nil {
		return nil, grpcerrors.MapDomainError(err)
	}

	return converter.TransactionToReply(tx), nil
}

// GetBalance returns the calling client's balance
func (s *LedgerServer) GetBalance(ctx context.Context, _ *ledgerv1.BalanceRequest) (*ledgerv1.BalanceReply, error) {
	clientID, ok := middleware.ClientIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	result, err := s.ledger.Balance(ctx, clientID)
	if err != nil {
		return nil, grpcerrors.MapDomainError(err)
	}

	return converter.BalanceToReply(clientID, result), nil
}

// ListTransactions returns the calling client's history
func (s *LedgerServer) ListTransactions(ctx context.Context, req *ledgerv1.ListTransactionsRequest) (*ledgerv1.ListTransactionsReply, error) {
	clientID, ok := middleware.ClientIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}

	var (
		events []*domain.TransactionEvent
		err    error
	)
	if req.Recent {
		events, err = s.ledger.RecentTransactions(ctx, clientID)
	} else {
		events, err = s.ledger.ListTransactions(ctx, clientID)
	}
	if err != nil {
		return nil, grpcerrors.MapDomainError(err)
	}

	total := len(events)
	if req.Recent {
		limit := int(req.Limit)
		if limit <= 0 || limit > maxRecentLimit {
			limit = defaultRecentLimit
		}
		if len(events) > limit {
			events = events[:limit]
		}
	}

	return &ledgerv1.ListTransactionsReply{
		Transactions: converter.EventsToPb(events),
		Total:        int32(total),
	}, nil
}
