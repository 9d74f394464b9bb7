package doorlock

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialTransport is the Transport implementation for a real serial port.
//
// The link runs 8-N-1 at the configured baud rate. The protocol does not
// negotiate link parameters; both ends must be built with matching settings.
type SerialTransport struct {
	name string
	baud int
	port serial.Port
}

var _ Transport = (*SerialTransport)(nil)

// NewSerialTransport creates a serial transport for the named port
// (e.g. "/dev/ttyUSB0", "COM3") at the given baud rate. The port is not
// touched until Open is called.
func NewSerialTransport(name string, baud int) *SerialTransport {
	return &SerialTransport{
		name: name,
		baud: baud,
	}
}

// Open opens the serial port with 8-N-1 framing.
func (t *SerialTransport) Open() error {
	if t.port != nil {
		return fmt.Errorf("doorlock: serial port %s already open", t.name)
	}

	mode := &serial.Mode{
		BaudRate: t.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(t.name, mode)
	if err != nil {
		return fmt.Errorf("doorlock: open serial port %s: %w", t.name, err)
	}

	t.port = port

	return nil
}

// Close closes the serial port. Closing an unopened transport is a no-op.
func (t *SerialTransport) Close() error {
	if t.port == nil {
		return nil
	}

	err := t.port.Close()
	t.port = nil

	return err
}

// Write writes all bytes in p to the port.
func (t *SerialTransport) Write(p []byte) error {
	if t.port == nil {
		return ErrTransportClosed
	}

	for written := 0; written < len(p); {
		n, err := t.port.Write(p[written:])
		written += n

		if err != nil {
			return err
		}
	}

	return nil
}

// ReadFull reads exactly len(p) bytes from the port. The timeout applies to
// each read call; a read that returns no data within the timeout fails with
// ErrReadTimeout.
func (t *SerialTransport) ReadFull(p []byte, timeout time.Duration) error {
	if t.port == nil {
		return ErrTransportClosed
	}

	if err := t.port.SetReadTimeout(timeout); err != nil {
		return fmt.Errorf("doorlock: set read timeout: %w", err)
	}

	for read := 0; read < len(p); {
		n, err := t.port.Read(p[read:])
		read += n

		if err != nil {
			return err
		}

		// The serial library reports a timeout as a zero-byte read with no
		// error.
		if n == 0 {
			return fmt.Errorf("%w: got %d of %d bytes", ErrReadTimeout, read, len(p))
		}
	}

	return nil
}

// ListPorts enumerates the serial adapters available on this machine.
// An empty list is not an error.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("doorlock: list serial ports: %w", err)
	}

	return ports, nil
}
