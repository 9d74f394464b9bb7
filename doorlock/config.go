package doorlock

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-doorlock/logger"
)

// Default link parameters of the reference deployment.
const (
	// DefaultBaudRate is the serial baud rate expected by the device.
	DefaultBaudRate = 9600

	// DefaultReadTimeout bounds each read while waiting for an answer.
	DefaultReadTimeout = 2 * time.Second
)

// Read timeout range limits.
const (
	MinReadTimeout = 100 * time.Millisecond
	MaxReadTimeout = 30 * time.Second
)

// Config holds all configuration for a device connection.
type Config struct {
	// portName is the serial port name (e.g. "/dev/ttyUSB0", "COM3").
	portName string

	baudRate    int
	readTimeout time.Duration

	// transport, when set, is used instead of constructing a serial
	// transport from portName and baudRate. Used by tests and TCP bridges.
	transport Transport

	logger logger.Logger
}

// NewConfig creates a connection configuration for the named serial port.
//
// opts are functional options applied in order; see With* functions.
// The port name may be empty only when WithTransport supplies the channel.
func NewConfig(portName string, opts ...Option) (*Config, error) {
	cfg := &Config{
		portName:    portName,
		baudRate:    DefaultBaudRate,
		readTimeout: DefaultReadTimeout,
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.portName == "" && cfg.transport == nil {
		return nil, errors.New("doorlock: a serial port name or a custom transport is required")
	}

	return cfg, nil
}

// --- Getters ---

// PortName returns the configured serial port name.
func (cfg *Config) PortName() string { return cfg.portName }

// BaudRate returns the configured baud rate.
func (cfg *Config) BaudRate() int { return cfg.baudRate }

// ReadTimeout returns the per-read answer timeout.
func (cfg *Config) ReadTimeout() time.Duration { return cfg.readTimeout }

// Transport returns the custom transport, or nil when the client builds a
// serial transport itself.
func (cfg *Config) Transport() Transport { return cfg.transport }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithBaudRate sets the serial baud rate. The device firmware runs the link
// at DefaultBaudRate; override only for matching hardware.
func WithBaudRate(baud int) Option {
	return optFunc(func(cfg *Config) error {
		if baud <= 0 {
			return fmt.Errorf("doorlock: baud rate %d must be positive", baud)
		}
		cfg.baudRate = baud

		return nil
	})
}

// WithReadTimeout sets the per-read answer timeout.
// Must be in [MinReadTimeout, MaxReadTimeout].
func WithReadTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < MinReadTimeout || d > MaxReadTimeout {
			return fmt.Errorf("doorlock: read timeout %v out of range [%v, %v]", d, MinReadTimeout, MaxReadTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithTransport supplies a custom transport, bypassing serial port
// construction. The client takes ownership: closing the client closes the
// transport.
func WithTransport(t Transport) Option {
	return optFunc(func(cfg *Config) error {
		if t == nil {
			return errors.New("doorlock: transport must not be nil")
		}
		cfg.transport = t

		return nil
	})
}

// WithLogger sets the logger for the connection.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("doorlock: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
