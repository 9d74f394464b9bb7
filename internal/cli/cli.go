// Package cli implements the doorlockctl commands.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arloliu/go-doorlock/doorlock"
	"github.com/arloliu/go-doorlock/internal/config"
	"github.com/arloliu/go-doorlock/logger"
	"github.com/arloliu/go-doorlock/tagdb"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// commonFlags are the flags shared by every command: the config file plus
// per-invocation overrides of its values.
type commonFlags struct {
	configPath string
	port       string
	baud       int
	timeoutMS  int
	dbPath     string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to "+config.FileName)
	cmd.Flags().StringVar(&f.port, "port", "", "serial port name (overrides config)")
	cmd.Flags().IntVar(&f.baud, "baud", 0, "baud rate (overrides config)")
	cmd.Flags().IntVar(&f.timeoutMS, "timeout-ms", 0, "read timeout in milliseconds (overrides config)")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "record list file (overrides config)")
}

// resolve loads the tool configuration and applies flag overrides.
func (f *commonFlags) resolve() (config.Config, error) {
	cfg, err := config.Resolve(f.configPath)
	if err != nil {
		return config.Config{}, err
	}

	if f.port != "" {
		cfg.Port = f.port
	}
	if f.baud != 0 {
		cfg.BaudRate = f.baud
	}
	if f.timeoutMS != 0 {
		cfg.ReadTimeout = time.Duration(f.timeoutMS) * time.Millisecond
	}
	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}

	logger.SetLevel(toLogLevel(cfg.LogLevel))

	return cfg, nil
}

func toLogLevel(name string) logger.Level {
	switch name {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// connect builds a client from the tool configuration, opens the serial
// port, and runs the ping handshake.
func connect(cfg config.Config) (*doorlock.Client, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("no serial port configured; use --port or set port in %s", config.FileName)
	}

	clientCfg, err := doorlock.NewConfig(cfg.Port,
		doorlock.WithBaudRate(cfg.BaudRate),
		doorlock.WithReadTimeout(cfg.ReadTimeout),
	)
	if err != nil {
		return nil, err
	}

	client, err := doorlock.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(); err != nil {
		return nil, err
	}

	return client, nil
}

// loadDB loads the record list file, returning an empty store when the file
// does not exist yet.
func loadDB(path string) (*tagdb.Store, error) {
	store, err := tagdb.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tagdb.NewStore(), nil
		}

		return nil, err
	}

	return store, nil
}

// parseTagID parses a tag identifier given as up to 8 hex digits.
func parseTagID(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s) == 0 || len(s) > 8 {
		return 0, fmt.Errorf("invalid tag id %q: want 1-8 hex digits", s)
	}

	id, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid tag id %q: %w", s, err)
	}

	return uint32(id), nil
}
