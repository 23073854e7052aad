package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mschulkind/layman/internal/state"
)

// CommandResult is one entry of a RUN_COMMAND reply. A payload with
// semicolon-joined subcommands yields one result per subcommand.
type CommandResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Client issues commands and queries on a single compositor connection.
// Safe for concurrent use; round-trips are serialized.
type Client struct {
	logger *logrus.Entry

	mu   sync.Mutex
	conn net.Conn
}

// NewClient connects to the compositor command socket.
func NewClient(logger *logrus.Entry) (*Client, error) {
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	return &Client{logger: logger, conn: conn}, nil
}

// Close shuts the command connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) roundTrip(msgType uint32, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := writeMessage(c.conn, msgType, payload); err != nil {
		return nil, err
	}
	replyType, reply, err := readMessage(c.conn)
	if err != nil {
		return nil, err
	}
	if replyType != msgType {
		return nil, fmt.Errorf("expected reply type %d, got %d", msgType, replyType)
	}
	return reply, nil
}

// Command runs one compositor command string. The payload may contain
// semicolon-joined subcommands; the compositor executes them as one
// round-trip and reports per-subcommand results. Failures are logged with
// the offending command text and the first one is returned. Nothing is
// retried.
func (c *Client) Command(command string) error {
	c.logger.Debugf("running command: %s", command)
	reply, err := c.roundTrip(msgRunCommand, []byte(command))
	if err != nil {
		return fmt.Errorf("run command %q: %w", command, err)
	}
	var results []CommandResult
	if err := json.Unmarshal(reply, &results); err != nil {
		return fmt.Errorf("decode command reply: %w", err)
	}
	var firstErr error
	for _, res := range results {
		if res.Success {
			continue
		}
		c.logger.Errorf("command failed: %q: %s", command, res.Error)
		if firstErr == nil {
			firstErr = fmt.Errorf("command %q: %s", command, res.Error)
		}
	}
	return firstErr
}

// Tree fetches and decodes the full container tree.
func (c *Client) Tree() (*state.Node, error) {
	reply, err := c.roundTrip(msgGetTree, nil)
	if err != nil {
		return nil, fmt.Errorf("get tree: %w", err)
	}
	root, err := state.DecodeTree(reply)
	if err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return root, nil
}

// Workspace is one entry of a GET_WORKSPACES reply.
type Workspace struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
	Output  string `json:"output"`
}

// Workspaces lists the compositor's workspaces.
func (c *Client) Workspaces() ([]Workspace, error) {
	reply, err := c.roundTrip(msgGetWorkspaces, nil)
	if err != nil {
		return nil, fmt.Errorf("get workspaces: %w", err)
	}
	var workspaces []Workspace
	if err := json.Unmarshal(reply, &workspaces); err != nil {
		return nil, fmt.Errorf("decode workspaces: %w", err)
	}
	return workspaces, nil
}
