package control

import (
	"context"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/go-initd/initd/internal/supervisor"
)

// Dispatcher is the subset of supervisor.Loop the control server needs:
// enqueuing an event and waiting for its synchronous reply. Satisfied
// by *supervisor.Loop via EnqueueAndWait.
type Dispatcher interface {
	EnqueueAndWait(ev supervisor.Event) supervisor.Reply
}

type controlServer struct {
	dispatcher Dispatcher
}

// NewControlServer wraps dispatcher (normally a *supervisor.Loop) as a
// gRPC Server implementation.
func NewControlServer(dispatcher Dispatcher) Server {
	return &controlServer{dispatcher: dispatcher}
}

func (s *controlServer) Switch(ctx context.Context, req *wrapperspb.Int32Value) (*emptypb.Empty, error) {
	reply := s.dispatcher.EnqueueAndWait(supervisor.Event{
		Kind:     supervisor.EventRunlevelSwitch,
		Runlevel: int(req.GetValue()),
	})
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &emptypb.Empty{}, nil
}

func (s *controlServer) ManageStart(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	reply := s.dispatcher.EnqueueAndWait(supervisor.Event{
		Kind:        supervisor.EventManageStart,
		ServiceName: req.GetValue(),
	})
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &emptypb.Empty{}, nil
}

func (s *controlServer) ManageStop(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	reply := s.dispatcher.EnqueueAndWait(supervisor.Event{
		Kind:        supervisor.EventManageStop,
		ServiceName: req.GetValue(),
	})
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &emptypb.Empty{}, nil
}

func (s *controlServer) ManageStatus(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	reply := s.dispatcher.EnqueueAndWait(supervisor.Event{
		Kind:        supervisor.EventManageStatus,
		ServiceName: req.GetValue(),
	})
	if reply.Err != nil {
		return nil, reply.Err
	}
	return wrapperspb.String(reply.Status), nil
}

// Listener hosts the Control gRPC service on a UNIX-domain socket. It
// never listens on a TCP/IP address, keeping the supervisor's "no
// network API" non-goal intact in spirit.
type Listener struct {
	grpcServer *grpc.Server
	socketPath string
}

// NewListener creates a Listener bound to socketPath, serving dispatcher.
func NewListener(socketPath string, dispatcher Dispatcher) *Listener {
	srv := grpc.NewServer()
	srv.RegisterService(&ServiceDesc, NewControlServer(dispatcher))
	return &Listener{grpcServer: srv, socketPath: socketPath}
}

// Serve removes any stale socket file, binds socketPath, and blocks
// serving RPCs until Stop is called.
func (l *Listener) Serve() error {
	if err := os.RemoveAll(l.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing stale control socket: %w", err)
	}
	lis, err := net.Listen("unix", l.socketPath)
	if err != nil {
		return fmt.Errorf("listening on control socket: %w", err)
	}
	return l.grpcServer.Serve(lis)
}

// Stop gracefully shuts the gRPC server down.
func (l *Listener) Stop() {
	l.grpcServer.GracefulStop()
}
