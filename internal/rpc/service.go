// Package rpc exposes runtime selection over gRPC as nodeselect.v1.RuntimeSelector.
//
// Messages are google.protobuf.Struct values so the service needs no generated
// stubs; messages.go converts them to and from typed Go values.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "nodeselect.v1.RuntimeSelector"

const (
	resolveMethod      = "/" + ServiceName + "/Resolve"
	listRuntimesMethod = "/" + ServiceName + "/ListRuntimes"
)

// RuntimeSelectorServer is the server API for the RuntimeSelector service.
type RuntimeSelectorServer interface {
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuntimes(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes RuntimeSelector for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RuntimeSelectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Resolve", Handler: resolveHandler},
		{MethodName: "ListRuntimes", Handler: listRuntimesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nodeselect/v1/runtime_selector.proto",
}

// RegisterRuntimeSelectorServer registers srv on s.
func RegisterRuntimeSelectorServer(s grpc.ServiceRegistrar, srv RuntimeSelectorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeSelectorServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: resolveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeSelectorServer).Resolve(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listRuntimesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuntimeSelectorServer).ListRuntimes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listRuntimesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuntimeSelectorServer).ListRuntimes(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
