// Package ipc speaks the i3/Sway IPC protocol over the compositor's unix
// socket.
//
// Two connections are used: one for issuing commands and queries, and a
// dedicated one for the event subscription. The split keeps event reads from
// ever interleaving with command replies on the same handle.
package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
)

// Message types defined by the i3 IPC protocol.
const (
	msgRunCommand    = 0
	msgGetWorkspaces = 1
	msgSubscribe     = 2
	msgGetTree       = 4
)

// Event replies share the numeric space with query replies but carry the
// high bit.
const (
	eventFlag      = uint32(1) << 31
	eventWorkspace = 0
	eventWindow    = 3
	eventBinding   = 5
)

var magic = []byte("i3-ipc")

// SocketPath resolves the compositor socket from the environment.
func SocketPath() (string, error) {
	if path := os.Getenv("SWAYSOCK"); path != "" {
		return path, nil
	}
	if path := os.Getenv("I3SOCK"); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("neither SWAYSOCK nor I3SOCK is set")
}

func dial() (net.Conn, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("connect compositor socket: %w", err)
	}
	return conn, nil
}

// writeMessage frames and sends a single IPC message.
func writeMessage(w io.Writer, msgType uint32, payload []byte) error {
	buf := make([]byte, 0, len(magic)+8+len(payload))
	buf = append(buf, magic...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = binary.LittleEndian.AppendUint32(buf, msgType)
	buf = append(buf, payload...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write ipc message: %w", err)
	}
	return nil
}

// readMessage reads one framed IPC message and returns its type and payload.
func readMessage(r io.Reader) (uint32, []byte, error) {
	header := make([]byte, len(magic)+8)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, err
	}
	if string(header[:len(magic)]) != string(magic) {
		return 0, nil, fmt.Errorf("bad ipc magic %q", header[:len(magic)])
	}
	length := binary.LittleEndian.Uint32(header[len(magic):])
	msgType := binary.LittleEndian.Uint32(header[len(magic)+4:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read ipc payload: %w", err)
	}
	return msgType, payload, nil
}
