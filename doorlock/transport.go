package doorlock

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"time"
)

// Transport-level sentinel errors.
var (
	// ErrReadTimeout indicates a read did not yield the requested byte count
	// within the timeout. [Client] normalizes it into ErrTimeout.
	ErrReadTimeout = errors.New("doorlock: read timeout")

	// ErrTransportClosed indicates an operation on a transport that is not
	// open.
	ErrTransportClosed = errors.New("doorlock: transport closed")
)

// Transport is the byte-channel capability the protocol runs over: a
// full-duplex, byte-oriented link with blocking writes and timeout-bounded
// exact reads. Implementations are not required to be goroutine-safe; the
// protocol is strictly request-then-answer and [Client] never issues
// concurrent operations.
type Transport interface {
	// Open establishes the channel. Opening an already-open transport is an
	// error.
	Open() error

	// Close releases the channel. Closing an unopened or already-closed
	// transport is a no-op.
	Close() error

	// Write writes all of p to the channel, blocking until done or failed.
	Write(p []byte) error

	// ReadFull reads exactly len(p) bytes into p. The timeout bounds each
	// read call; if the requested count does not arrive, ReadFull fails
	// with an error matching ErrReadTimeout via errors.Is.
	ReadFull(p []byte, timeout time.Duration) error
}

// ConnTransport adapts a net.Conn to the Transport interface using per-read
// deadlines. It lets the protocol run over a TCP bridge or net.Pipe, which
// is how tests and the examples/device simulator exercise the client
// without serial hardware.
type ConnTransport struct {
	conn   net.Conn
	reader *bufio.Reader
}

var _ Transport = (*ConnTransport)(nil)

// NewConnTransport creates a ConnTransport over an already-established
// net.Conn. The returned transport is considered open; Open is a no-op.
func NewConnTransport(conn net.Conn) *ConnTransport {
	return &ConnTransport{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

// Open implements Transport. The underlying conn is already established.
func (t *ConnTransport) Open() error {
	if t.conn == nil {
		return ErrTransportClosed
	}

	return nil
}

// Close closes the underlying conn.
func (t *ConnTransport) Close() error {
	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil

	return err
}

// Write writes all bytes in p to the conn.
func (t *ConnTransport) Write(p []byte) error {
	if t.conn == nil {
		return ErrTransportClosed
	}

	for written := 0; written < len(p); {
		n, err := t.conn.Write(p[written:])
		written += n

		if err != nil {
			return err
		}
	}

	return nil
}

// ReadFull reads exactly len(p) bytes, resetting the read deadline before
// each read call so the timeout bounds every read rather than the total.
func (t *ConnTransport) ReadFull(p []byte, timeout time.Duration) error {
	if t.conn == nil {
		return ErrTransportClosed
	}

	for read := 0; read < len(p); {
		if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}

		n, err := t.reader.Read(p[read:])
		read += n

		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return fmt.Errorf("%w: got %d of %d bytes", ErrReadTimeout, read, len(p))
			}

			return err
		}
	}

	return nil
}
