package doorlock

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// mockTransport is a scripted Transport for unit tests. Writes are recorded
// per call; reads are served from a queued buffer, and a read that drains
// the queue before len(p) bytes behaves like a link timeout.
type mockTransport struct {
	openErr  error
	writeErr error

	opened     bool
	closeCount int
	writes     [][]byte
	readBuf    bytes.Buffer
}

var _ Transport = (*mockTransport)(nil)

func (m *mockTransport) Open() error {
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true

	return nil
}

func (m *mockTransport) Close() error {
	m.opened = false
	m.closeCount++

	return nil
}

func (m *mockTransport) Write(p []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}

	m.writes = append(m.writes, append([]byte(nil), p...))

	return nil
}

func (m *mockTransport) ReadFull(p []byte, _ time.Duration) error {
	n, _ := m.readBuf.Read(p)
	if n < len(p) {
		return fmt.Errorf("%w: got %d of %d bytes", ErrReadTimeout, n, len(p))
	}

	return nil
}

// queueAnswer queues a device answer frame for the next read.
func (m *mockTransport) queueAnswer(sub Subcommand, param uint16) {
	answer := EncodeAnswer(sub, param)
	m.readBuf.Write(answer[:])
}

// queueBytes queues raw bytes for the next read.
func (m *mockTransport) queueBytes(b ...byte) {
	m.readBuf.Write(b)
}

// newTestClient creates a client over the given mock transport with a short
// read timeout.
func newTestClient(t *testing.T, mt *mockTransport) *Client {
	t.Helper()

	cfg, err := NewConfig("",
		WithTransport(mt),
		WithReadTimeout(MinReadTimeout),
	)
	require.NoError(t, err)

	client, err := NewClient(cfg)
	require.NoError(t, err)

	return client
}

// newConnectedClient creates a client and completes the ping handshake,
// clearing the recorded handshake write.
func newConnectedClient(t *testing.T, mt *mockTransport) *Client {
	t.Helper()

	client := newTestClient(t, mt)

	mt.queueAnswer(SubPing, 0)
	require.NoError(t, client.Connect())
	require.True(t, client.IsConnected())

	mt.writes = nil

	return client
}
