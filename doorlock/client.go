package doorlock

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-doorlock/logger"
)

// Sentinel errors for the protocol client.
var (
	// ErrTimeout indicates the expected byte count did not arrive within the
	// link's read timeout. Partial frames are normalized into this error,
	// since a short read and a timeout are observably identical on this link.
	ErrTimeout = errors.New("doorlock: timeout waiting for device")

	// ErrUnexpectedAnswer indicates a full-length answer arrived but its
	// magic, subcommand, or parameter did not match what was sent.
	ErrUnexpectedAnswer = errors.New("doorlock: unexpected answer")

	// ErrNotConnected indicates an operation on a client whose session is
	// not established (Connect not called, failed, or Close called).
	ErrNotConnected = errors.New("doorlock: not connected")

	// ErrChunkSize indicates a write-data chunk outside [1, MaxChunkSize].
	ErrChunkSize = errors.New("doorlock: chunk size out of range")
)

// Client issues the four protocol operations over a Transport and validates
// every answer against the request it echoes.
//
// A Client is strictly synchronous: every operation blocks until the answer
// arrives or the read timeout expires, and only one operation may be in
// flight at a time. It never retries; a mismatched or timed-out answer is
// surfaced immediately and the link is left exactly as the transport leaves
// it.
type Client struct {
	cfg       *Config
	transport Transport
	logger    logger.Logger

	// connected is the session's handshake-verified flag. It is set only
	// after Connect's ping exchange succeeds.
	connected bool

	metrics ClientMetrics
}

// NewClient creates a client from the given configuration. The transport is
// not opened until Connect is called.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("doorlock: config is nil")
	}

	transport := cfg.transport
	if transport == nil {
		transport = NewSerialTransport(cfg.portName, cfg.baudRate)
	}

	return &Client{
		cfg:       cfg,
		transport: transport,
		logger:    cfg.logger,
	}, nil
}

// Connect opens the transport and verifies the device with a ping
// handshake. On handshake failure the transport is closed again and the
// session is not established.
func (c *Client) Connect() error {
	if c.connected {
		return nil
	}

	if err := c.transport.Open(); err != nil {
		return fmt.Errorf("doorlock: open transport: %w", err)
	}

	if err := c.exchange(SubPing, 0); err != nil {
		_ = c.transport.Close()

		return fmt.Errorf("doorlock: handshake: %w", err)
	}

	c.connected = true
	c.logger.Info("device connected", "port", c.cfg.PortName())

	return nil
}

// Close ends the session and closes the transport. The client owns the
// transport; after Close the client can be reconnected with Connect, which
// reopens it.
func (c *Client) Close() error {
	if !c.connected {
		return c.transport.Close()
	}

	c.connected = false
	c.logger.Info("device disconnected", "port", c.cfg.PortName())

	return c.transport.Close()
}

// IsConnected reports whether the session is established and the handshake
// verified.
func (c *Client) IsConnected() bool {
	return c.connected
}

// Metrics returns the client's connection metrics.
func (c *Client) Metrics() *ClientMetrics {
	return &c.metrics
}

// Ping performs a ping exchange on an established session.
func (c *Client) Ping() error {
	if !c.connected {
		return ErrNotConnected
	}

	return c.exchange(SubPing, 0)
}

// AnnounceCount tells the device how many records the upcoming upload
// carries. The device echoes the count in its answer.
func (c *Client) AnnounceCount(n uint16) error {
	if !c.connected {
		return ErrNotConnected
	}

	return c.exchange(SubWriteCount, n)
}

// SendChunk streams one chunk of tag identifiers: a write-data request
// whose parameter is len(ids), immediately followed by the raw big-endian
// 4-byte encodings of each id, back-to-back with no delimiters or padding.
// The device acknowledges with a write-data answer echoing the chunk size.
//
// Precondition: 1 <= len(ids) <= MaxChunkSize. The bound is a protocol
// constant fixed by the device's receive buffer, not tunable per session.
func (c *Client) SendChunk(ids []uint32) error {
	if !c.connected {
		return ErrNotConnected
	}

	if len(ids) < 1 || len(ids) > MaxChunkSize {
		return fmt.Errorf("%w: got %d, want 1-%d", ErrChunkSize, len(ids), MaxChunkSize)
	}

	// Request frame and payload go out as one write.
	buf := make([]byte, 0, FrameSize+len(ids)*TagIDSize)

	req := EncodeRequest(SubWriteData, uint16(len(ids))) //nolint:gosec // bounded by MaxChunkSize
	buf = append(buf, req[:]...)

	for _, id := range ids {
		raw := EncodeTagID(id)
		buf = append(buf, raw[:]...)
	}

	if err := c.transport.Write(buf); err != nil {
		return fmt.Errorf("doorlock: write %s request: %w", SubWriteData, err)
	}
	c.metrics.incFrameSendCount()

	if err := c.expectAnswer(SubWriteData, uint16(len(ids))); err != nil { //nolint:gosec // bounded by MaxChunkSize
		return err
	}

	c.metrics.addRecordSendCount(len(ids))
	c.logger.Debug("chunk acknowledged", "size", len(ids))

	return nil
}

// ReadLast queries the identifier of the tag the device scanned most
// recently. The answer frame is followed by 4 raw bytes carrying the
// big-endian identifier.
func (c *Client) ReadLast() (uint32, error) {
	if !c.connected {
		return 0, ErrNotConnected
	}

	if err := c.exchange(SubReadLast, 0); err != nil {
		return 0, err
	}

	var raw [TagIDSize]byte
	if err := c.readFull(raw[:]); err != nil {
		return 0, err
	}

	id := DecodeTagID(raw[:])
	c.logger.Debug("read last tag", "id", fmt.Sprintf("%08x", id))

	return id, nil
}

// exchange sends one request frame and validates the echoed answer.
func (c *Client) exchange(sub Subcommand, param uint16) error {
	req := EncodeRequest(sub, param)
	if err := c.transport.Write(req[:]); err != nil {
		return fmt.Errorf("doorlock: write %s request: %w", sub, err)
	}
	c.metrics.incFrameSendCount()

	return c.expectAnswer(sub, param)
}

// expectAnswer reads exactly one answer frame and requires it to echo the
// given subcommand and parameter with the answer magic.
func (c *Client) expectAnswer(sub Subcommand, param uint16) error {
	var buf [FrameSize]byte
	if err := c.readFull(buf[:]); err != nil {
		return err
	}

	answer, err := DecodeFrame(buf[:])
	if err != nil {
		// Unreachable with a full buffer; normalize anyway.
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	c.metrics.incAnswerRecvCount()

	if !answer.IsAnswer() || answer.Sub != sub || answer.Param != param {
		c.metrics.incAnswerMismatchCount()

		return fmt.Errorf("%w: sent %s param=%d, got magic=0x%02X sub=%s param=%d",
			ErrUnexpectedAnswer, sub, param, answer.Magic, answer.Sub, answer.Param)
	}

	return nil
}

// readFull reads exactly len(p) bytes within the configured read timeout,
// normalizing short reads into ErrTimeout.
func (c *Client) readFull(p []byte) error {
	err := c.transport.ReadFull(p, c.cfg.readTimeout)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrReadTimeout) || errors.Is(err, ErrMalformedFrame) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("doorlock: transport read: %w", err)
}
