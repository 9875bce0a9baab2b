// Package ledgergrpc exposes a ledger.Node over gRPC and provides the
// matching client.
//
// The service is described by hand with protobuf well-known types so that
// no generated code is needed:
//
//	IsAvailable(google.protobuf.Empty)       returns (google.protobuf.BoolValue)
//	GetData(google.protobuf.StringValue)     returns (google.protobuf.BytesValue)
//	GetVersioned(google.protobuf.StringValue) returns (google.protobuf.Struct)
//	SetData(google.protobuf.BytesValue)      returns (google.protobuf.StringValue)
//
// SetData carries the target key, the write signature and the optional
// expected version in request metadata.
package ledgergrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "fhegame.ledger.v1.Ledger"

const (
	methodIsAvailable  = "/" + ServiceName + "/IsAvailable"
	methodGetData      = "/" + ServiceName + "/GetData"
	methodGetVersioned = "/" + ServiceName + "/GetVersioned"
	methodSetData      = "/" + ServiceName + "/SetData"
)

// Fields of the GetVersioned response struct: base64 value and the version
// as a decimal string, since struct numbers are float64.
const (
	fieldValue   = "value"
	fieldVersion = "version"
)

// LedgerServer is the server API for the ledger service.
type LedgerServer interface {
	IsAvailable(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	GetData(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	GetVersioned(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SetData(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
}

// RegisterLedgerServer registers srv on s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IsAvailable", Handler: isAvailableHandler},
		{MethodName: "GetData", Handler: getDataHandler},
		{MethodName: "GetVersioned", Handler: getVersionedHandler},
		{MethodName: "SetData", Handler: setDataHandler},
	},
	Metadata: "fhegame/ledger/v1/ledger.proto",
}

func isAvailableHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).IsAvailable(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodIsAvailable}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).IsAvailable(ctx, req.(*emptypb.Empty))
	})
}

func getDataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).GetData(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetData}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).GetData(ctx, req.(*wrapperspb.StringValue))
	})
}

func getVersionedHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).GetVersioned(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetVersioned}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).GetVersioned(ctx, req.(*wrapperspb.StringValue))
	})
}

func setDataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).SetData(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSetData}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).SetData(ctx, req.(*wrapperspb.BytesValue))
	})
}
