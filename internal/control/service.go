// Package control implements the Control Surface: CLI subcommand
// parsing plus the local RPC sidechannel spec.md leaves
// implementation-defined ("conventionally a named pipe"). This repo
// resolves that choice as a hand-declared gRPC service served over a
// UNIX-domain socket, grounded on the teacher daemon's
// infrastructure/transport/grpc server (same google.golang.org/grpc
// dependency, same daemon-control shape) but without a .proto source
// to regenerate from: only the pre-compiled well-known message types
// (emptypb, wrapperspb) are used, with a hand-written grpc.ServiceDesc
// playing the role protoc-gen-go-grpc would otherwise generate.
package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the gRPC service's fully qualified name.
const ServiceName = "initd.Control"

// SocketPath is the conventional UNIX-domain socket path the Control
// Surface listens on, per the external interfaces contract's
// sidechannel convention.
const SocketPath = "/run/init.ctl"

// Server is the interface a gRPC handler dispatches to. Implemented by
// *controlServer, which wraps a supervisor.Loop.
type Server interface {
	Switch(context.Context, *wrapperspb.Int32Value) (*emptypb.Empty, error)
	ManageStart(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ManageStop(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ManageStatus(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

func _Control_Switch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.Int32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Switch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Switch"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).Switch(ctx, req.(*wrapperspb.Int32Value))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_ManageStart_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).ManageStart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ManageStart"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).ManageStart(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_ManageStop_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).ManageStop(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ManageStop"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).ManageStop(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_ManageStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).ManageStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ManageStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).ManageStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the hand-maintained equivalent of what
// protoc-gen-go-grpc would generate from a control.proto.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Switch", Handler: _Control_Switch_Handler},
		{MethodName: "ManageStart", Handler: _Control_ManageStart_Handler},
		{MethodName: "ManageStop", Handler: _Control_ManageStop_Handler},
		{MethodName: "ManageStatus", Handler: _Control_ManageStatus_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "control.proto",
}
