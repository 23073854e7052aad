package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mschulkind/layman/internal/control"
)

// defaultTimeout is used when the caller does not provide a context
// deadline.
const defaultTimeout = 15 * time.Second

// Client talks to the running layman daemon over its control socket.
type Client struct {
	socketPath string
}

// New creates a client that connects to the provided socket path. When path
// is empty, the default runtime path is used.
func New(path string) (*Client, error) {
	if path == "" {
		var err error
		path, err = control.DefaultSocketPath()
		if err != nil {
			return nil, err
		}
	}
	return &Client{socketPath: path}, nil
}

// Command sends a layman command and returns the daemon's textual reply.
func (c *Client) Command(ctx context.Context, command string) (string, error) {
	if command == "" {
		return "", errors.New("command cannot be empty")
	}
	req := control.Request{
		Action: control.ActionCommand,
		Params: map[string]any{"command": command},
	}
	var result control.CommandResult
	if err := c.do(ctx, req, &result); err != nil {
		return "", err
	}
	return result.Result, nil
}

// Ping checks that the daemon is up and serving its control socket.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, control.Request{Action: control.ActionPing}, nil)
}

func (c *Client) do(ctx context.Context, req control.Request, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("dial control socket: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var resp control.Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.Status != control.StatusOK {
		if resp.Error == "" {
			resp.Error = "unknown control error"
		}
		return errors.New(resp.Error)
	}
	if out == nil || resp.Data == nil {
		return nil
	}
	data, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
