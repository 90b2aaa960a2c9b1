package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "dispatch.v1.DispatchService"

// DispatchServiceServer is the server API of dispatch.v1.DispatchService.
// Requests and responses are protobuf well-known types.
type DispatchServiceServer interface {
	SendWelcomeEmail(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	SendPendingOrder(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	RunJob(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterDispatchServiceServer registers srv on s.
func RegisterDispatchServiceServer(s grpc.ServiceRegistrar, srv DispatchServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DispatchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendWelcomeEmail", Handler: sendWelcomeEmailHandler},
		{MethodName: "SendPendingOrder", Handler: sendPendingOrderHandler},
		{MethodName: "RunJob", Handler: runJobHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dispatch/v1/dispatch.proto",
}

func sendWelcomeEmailHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServiceServer).SendWelcomeEmail(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SendWelcomeEmail"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServiceServer).SendWelcomeEmail(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func sendPendingOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServiceServer).SendPendingOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SendPendingOrder"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServiceServer).SendPendingOrder(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func runJobHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatchServiceServer).RunJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/RunJob"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DispatchServiceServer).RunJob(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}
