package control

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client dials the running supervisor's control socket to submit
// switch/manage requests from a one-shot CLI invocation.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the control socket at socketPath.
func Dial(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient("unix://"+socketPath, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dialing control socket: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Switch requests a runlevel transition to n.
func (c *Client) Switch(ctx context.Context, n int) error {
	var out emptypb.Empty
	return c.conn.Invoke(ctx, "/"+ServiceName+"/Switch", wrapperspb.Int32(int32(n)), &out)
}

// ManageStart requests that name be started.
func (c *Client) ManageStart(ctx context.Context, name string) error {
	var out emptypb.Empty
	return c.conn.Invoke(ctx, "/"+ServiceName+"/ManageStart", wrapperspb.String(name), &out)
}

// ManageStop requests that name be stopped.
func (c *Client) ManageStop(ctx context.Context, name string) error {
	var out emptypb.Empty
	return c.conn.Invoke(ctx, "/"+ServiceName+"/ManageStop", wrapperspb.String(name), &out)
}

// ManageStatus returns "running" or "stopped" for name.
func (c *Client) ManageStatus(ctx context.Context, name string) (string, error) {
	var out wrapperspb.StringValue
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/ManageStatus", wrapperspb.String(name), &out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}
