package ledgerv1

import (
	"context"

	"google.golang.org/grpc"

	"github.com/iho/clientledger/internal/adapter/grpc/codec"
)

const ServiceName = "clientledger.v1.LedgerService"

const (
	LedgerService_Deposit_FullMethodName          = "/" + ServiceName + "/Deposit"
	LedgerService_Withdraw_FullMethodName         = "/" + ServiceName + "/Withdraw"
	LedgerService_GetBalance_FullMethodName       = "/" + ServiceName + "/GetBalance"
	LedgerService_ListTransactions_FullMethodName = "/" + ServiceName + "/ListTransactions"
)

// LedgerServiceServer is the server API for LedgerService.
type LedgerServiceServer interface {
	Deposit(context.Context, *AmountRequest) (*TransactionReply, error)
	Withdraw(context.Context, *AmountRequest) (*TransactionReply, error)
	GetBalance(context.Context, *BalanceRequest) (*BalanceReply, error)
	ListTransactions(context.Context, *ListTransactionsRequest) (*ListTransactionsReply, error)
}

// IsMutating reports whether fullMethod records a transaction.
func IsMutating(fullMethod string) bool {
	return fullMethod == LedgerService_Deposit_FullMethodName ||
		fullMethod == LedgerService_Withdraw_FullMethodName
}

// NewReply returns an empty reply message for fullMethod.
func NewReply(fullMethod string) (any, bool) {
	switch fullMethod {
	case LedgerService_Deposit_FullMethodName, LedgerService_Withdraw_FullMethodName:
		return new(TransactionReply), true
	case LedgerService_GetBalance_FullMethodName:
		return new(BalanceReply), true
	case LedgerService_ListTransactions_FullMethodName:
		return new(ListTransactionsReply), true
	default:
		return nil, false
	}
}

// RegisterLedgerServiceServer registers srv on s.
func RegisterLedgerServiceServer(s grpc.ServiceRegistrar, srv LedgerServiceServer) {
	s.RegisterService(&LedgerService_ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](fullMethod string, call func(LedgerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LedgerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LedgerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LedgerService_ServiceDesc is the grpc.ServiceDesc for LedgerService.
var LedgerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Deposit",
			Handler:    unaryHandler(LedgerService_Deposit_FullMethodName, LedgerServiceServer.Deposit),
		},
		{
			MethodName: "Withdraw",
			Handler:    unaryHandler(LedgerService_Withdraw_FullMethodName, LedgerServiceServer.Withdraw),
		},
		{
			MethodName: "GetBalance",
			Handler:    unaryHandler(LedgerService_GetBalance_FullMethodName, LedgerServiceServer.GetBalance),
		},
		{
			MethodName: "ListTransactions",
			Handler:    unaryHandler(LedgerService_ListTransactions_FullMethodName, LedgerServiceServer.ListTransactions),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clientledger/v1/ledger",
}

// LedgerServiceClient is the client API for LedgerService.
type LedgerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLedgerServiceClient wraps cc. Calls are sent with the JSON codec.
func NewLedgerServiceClient(cc grpc.ClientConnInterface) *LedgerServiceClient {
	return &LedgerServiceClient{cc: cc}
}

func (c *LedgerServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

// Deposit calls LedgerService.Deposit.
func (c *LedgerServiceClient) Deposit(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*TransactionReply, error) {
	out := new(TransactionReply)
	if err := c.invoke(ctx, LedgerService_Deposit_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// Withdraw calls LedgerService.Withdraw.
func (c *LedgerServiceClient) Withdraw(ctx context.Context, in *AmountRequest, opts ...grpc.CallOption) (*TransactionReply, error) {
	out := new(TransactionReply)
	if err := c.invoke(ctx, LedgerService_Withdraw_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBalance calls LedgerService.GetBalance.
func (c *LedgerServiceClient) GetBalance(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceReply, error) {
	out := new(BalanceReply)
	if err := c.invoke(ctx, LedgerService_GetBalance_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTransactions calls LedgerService.ListTransactions.
func (c *LedgerServiceClient) ListTransactions(ctx context.Context, in *ListTransactionsRequest, opts ...grpc.CallOption) (*ListTransactionsReply, error) {
	out := new(ListTransactionsReply)
	if err := c.invoke(ctx, LedgerService_ListTransactions_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
