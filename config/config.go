// Package config loads the settings shared by the simradio commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the loaded configuration.
const (
	EnvServer   = "SIMRADIO_SERVER"
	EnvLocal    = "SIMRADIO_LOCAL"
	EnvBands    = "SIMRADIO_BANDS"
	EnvLogLevel = "SIMRADIO_LOG_LEVEL"
	EnvTimeout  = "SIMRADIO_TIMEOUT"
)

// Recorder backends.
const (
	BackendNone       = ""
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
)

// Config is the complete configuration of a simradio process.
type Config struct {
	Connector ConnectorConfig `yaml:"connector"`
	Log       LogConfig       `yaml:"log"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Server    ServerConfig    `yaml:"server"`
}

// ConnectorConfig holds the connection to the simulation server.
type ConnectorConfig struct {
	Server            string        `yaml:"server" ini:"server"`
	Local             string        `yaml:"local" ini:"local"`
	Bands             []string      `yaml:"bands" ini:"bands" delim:","`
	Timeout           time.Duration `yaml:"timeout" ini:"timeout"`
	MaxRadios         int           `yaml:"max_radios" ini:"max_radios"`
	ReceiveBufferSize int           `yaml:"receive_buffer_size" ini:"receive_buffer_size"`
	DebugPrints       bool          `yaml:"debug_prints" ini:"debug_prints"`
}

// LogConfig selects the log level and an optional rotating log file.
type LogConfig struct {
	Level string `yaml:"level" ini:"level"`
	File  string `yaml:"file" ini:"file"`
}

// RecorderConfig selects where frames and requests are recorded.
type RecorderConfig struct {
	Backend    string           `yaml:"backend" ini:"backend"`
	Path       string           `yaml:"path" ini:"path"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse" ini:"-"`
}

// ClickHouseConfig locates the ClickHouse server of the clickhouse backend.
type ClickHouseConfig struct {
	Host      string `yaml:"host" ini:"host"`
	Port      int    `yaml:"port" ini:"port"`
	Database  string `yaml:"database" ini:"database"`
	Username  string `yaml:"username" ini:"username"`
	Password  string `yaml:"password" ini:"password"`
	BatchSize int    `yaml:"batch_size" ini:"batch_size"`
}

// MonitorConfig controls the monitoring web server. A zero port disables it.
type MonitorConfig struct {
	Port int  `yaml:"port" ini:"port"`
	Open bool `yaml:"open" ini:"open"`
}

// ServerConfig configures the bundled simulation server.
type ServerConfig struct {
	Listen         string  `yaml:"listen" ini:"listen"`
	SignalStrength float32 `yaml:"signal_strength" ini:"signal_strength"`
}

// Levels accepted by the log configuration.
var Levels = []string{"DEBUG", "INFO", "WARN", "ERROR"}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Connector: ConnectorConfig{
			Server:            "ws://localhost:8080/ons",
			Bands:             []string{"ISM-433MHz"},
			Timeout:           time.Second,
			MaxRadios:         16,
			ReceiveBufferSize: 256,
		},
		Log: LogConfig{
			Level: "INFO",
		},
		Recorder: RecorderConfig{
			ClickHouse: ClickHouseConfig{
				Host:      "localhost",
				Port:      9000,
				Database:  "default",
				Username:  "default",
				BatchSize: 10000,
			},
		},
		Server: ServerConfig{
			Listen:         ":8080",
			SignalStrength: -60,
		},
	}
}

// Load reads the configuration file at path, decoding ".yaml", ".yml" and
// ".ini" files. An empty path keeps the defaults. A ".env" file next to the
// configuration file (or in the working directory) is loaded into the
// environment before the environment overrides are applied. The local address
// defaults to "simradio-<uuid>".
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Connector.Local == "" {
		cfg.Connector.Local = "simradio-" + uuid.NewString()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		return yaml.Unmarshal(data, cfg)
	case ".ini":
		return loadINI(cfg, path)
	default:
		return fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func loadINI(cfg *Config, path string) error {
	f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, path)
	if err != nil {
		return err
	}

	sections := []struct {
		name string
		dst  any
	}{
		{"connector", &cfg.Connector},
		{"log", &cfg.Log},
		{"recorder", &cfg.Recorder},
		{"recorder.clickhouse", &cfg.Recorder.ClickHouse},
		{"monitor", &cfg.Monitor},
		{"server", &cfg.Server},
	}

	for _, s := range sections {
		if !f.HasSection(s.name) {
			continue
		}

		if err := f.Section(s.name).MapTo(s.dst); err != nil {
			return fmt.Errorf("section [%s]: %w", s.name, err)
		}
	}

	return nil
}

// loadDotEnv fills the environment from a .env file. Variables already set
// win over the file. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvServer); v != "" {
		cfg.Connector.Server = v
	}

	if v := os.Getenv(EnvLocal); v != "" {
		cfg.Connector.Local = v
	}

	if v := os.Getenv(EnvBands); v != "" {
		cfg.Connector.Bands = splitList(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = strings.ToUpper(v)
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		t, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}

		cfg.Connector.Timeout = t
	}

	return nil
}

// parseTimeout accepts a duration ("250ms") or a plain number of
// milliseconds.
func parseTimeout(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return time.ParseDuration(v)
}

func splitList(v string) []string {
	var items []string

	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			items = append(items, s)
		}
	}

	return items
}

// Validate reports every problem of the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Connector.Server == "" {
		errs = append(errs, errors.New("connector server address is empty"))
	}

	if c.Connector.Timeout < 0 {
		errs = append(errs, fmt.Errorf("connector timeout %s is negative",
			c.Connector.Timeout))
	}

	if c.Connector.MaxRadios <= 0 {
		errs = append(errs, fmt.Errorf("max radios must be positive, got %d",
			c.Connector.MaxRadios))
	}

	if c.Connector.ReceiveBufferSize <= 0 {
		errs = append(errs, fmt.Errorf(
			"receive buffer size must be positive, got %d",
			c.Connector.ReceiveBufferSize))
	}

	errs = append(errs, c.validateBands()...)

	if !slices.Contains(Levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}

	switch c.Recorder.Backend {
	case BackendNone, BackendSQLite:
	case BackendClickHouse:
		if c.Recorder.ClickHouse.Host == "" {
			errs = append(errs, errors.New("clickhouse host is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown recorder backend %q",
			c.Recorder.Backend))
	}

	if c.Monitor.Port < 0 || c.Monitor.Port > 65535 {
		errs = append(errs, fmt.Errorf("monitor port %d out of range",
			c.Monitor.Port))
	}

	return errors.Join(errs...)
}

func (c *Config) validateBands() []error {
	var errs []error

	if len(c.Connector.Bands) > c.Connector.MaxRadios &&
		c.Connector.MaxRadios > 0 {
		errs = append(errs, fmt.Errorf("%d bands configured, at most %d radios",
			len(c.Connector.Bands), c.Connector.MaxRadios))
	}

	seen := make(map[string]bool)
	for _, b := range c.Connector.Bands {
		switch {
		case b == "":
			errs = append(errs, errors.New("empty band name"))
		case seen[b]:
			errs = append(errs, fmt.Errorf("band %q listed twice", b))
		}

		seen[b] = true
	}

	return errs
}
