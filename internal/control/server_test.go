package control_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschulkind/layman/internal/control"
	"github.com/mschulkind/layman/internal/control/client"
	"github.com/mschulkind/layman/internal/engine"
)

// startServer runs a control server over a fake consumer that echoes each
// command back prefixed with "ran: ".
func startServer(t *testing.T) (string, *engine.Queue) {
	t.Helper()
	queue := engine.NewQueue(16)
	socketPath := filepath.Join(t.TempDir(), "control.sock")
	srv, err := control.NewServer(queue, socketPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-queue.C():
				if n.Command != nil {
					n.Command.Reply <- "ran: " + n.Command.Text
				}
			}
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	waitForSocket(t, socketPath)
	return socketPath, queue
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("unix", path)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("control socket %s never came up", path)
}

func TestServerRunsCommands(t *testing.T) {
	socketPath, _ := startServer(t)
	cli, err := client.New(socketPath)
	require.NoError(t, err)

	result, err := cli.Command(context.Background(), "layout set MasterStack")
	require.NoError(t, err)
	assert.Equal(t, "ran: layout set MasterStack", result)
}

func TestServerPing(t *testing.T) {
	socketPath, _ := startServer(t)
	cli, err := client.New(socketPath)
	require.NoError(t, err)

	assert.NoError(t, cli.Ping(context.Background()))
}

func TestServerRejectsUnknownAction(t *testing.T) {
	socketPath, _ := startServer(t)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"action":"selfdestruct"}` + "\n"))
	require.NoError(t, err)
	buf := make([]byte, 4096)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), `"error"`)
	assert.Contains(t, string(buf[:n]), "unknown action")
}

func TestServerRejectsEmptyCommand(t *testing.T) {
	socketPath, _ := startServer(t)
	cli, err := client.New(socketPath)
	require.NoError(t, err)

	_, err = cli.Command(context.Background(), "")
	assert.Error(t, err)
}

func TestClientFailsWhenDaemonDown(t *testing.T) {
	cli, err := client.New(filepath.Join(t.TempDir(), "nowhere.sock"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.Error(t, cli.Ping(ctx))
}
