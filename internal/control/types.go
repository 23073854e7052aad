package control

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	// SocketFileName is the filename of the control socket within the
	// runtime dir.
	SocketFileName = "control.sock"

	// Action names supported by the control protocol.
	ActionCommand = "command"
	ActionPing    = "ping"

	// Response statuses.
	StatusOK    = "ok"
	StatusError = "error"
)

// Request represents a control API request.
type Request struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

// Response represents a control API response.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// CommandResult carries the engine's textual reply to a command.
type CommandResult struct {
	Result string `json:"result"`
}

// DefaultSocketPath returns the expected location of the layman control
// socket.
func DefaultSocketPath() (string, error) {
	if env := os.Getenv("LAYMAN_CONTROL_SOCKET"); env != "" {
		return env, nil
	}
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
		if base == "" {
			return "", errors.New("no runtime directory available")
		}
	}
	return filepath.Join(base, "layman", SocketFileName), nil
}
