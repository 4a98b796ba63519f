package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/simradio/config"
	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/datarecording"
	"github.com/sarchlab/simradio/logging"
	"github.com/sarchlab/simradio/message"
	"github.com/sarchlab/simradio/monitoring"
	"github.com/sarchlab/simradio/tracing"
)

// tracedKinds are the queries whose latency is shown on the monitor.
var tracedKinds = []message.Kind{
	message.KindSignalRequest,
	message.KindStateRequest,
}

// A session is a connector with everything the configuration asks to run
// around it.
type session struct {
	cfg      *config.Config
	conn     *connector.Connector
	monitor  *monitoring.Monitor
	recorder datarecording.DataRecorder
	closers  []func() error
}

// loadConfig loads the configuration file and applies the command-line flags
// on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("server") {
		cfg.Connector.Server, _ = flags.GetString("server")
	}

	if flags.Changed("local") {
		cfg.Connector.Local, _ = flags.GetString("local")
	}

	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}

	if flags.Changed("record") {
		cfg.Recorder.Path, _ = flags.GetString("record")
		if cfg.Recorder.Backend == config.BackendNone {
			cfg.Recorder.Backend = config.BackendSQLite
		}
	}

	if flags.Changed("monitor-port") {
		cfg.Monitor.Port, _ = flags.GetInt("monitor-port")
	}

	if flags.Changed("open") {
		cfg.Monitor.Open, _ = flags.GetBool("open")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func setupLogging(cfg *config.Config) (func() error, error) {
	return logging.Setup(cfg.Log.Level, cfg.Log.File)
}

func openRecorder(cfg config.RecorderConfig) (datarecording.DataRecorder, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return datarecording.Open(cfg.Path)
	case config.BackendClickHouse:
		return datarecording.NewClickHouseRecorder(datarecording.ClickHouseOptions{
			Host:      cfg.ClickHouse.Host,
			Port:      cfg.ClickHouse.Port,
			Database:  cfg.ClickHouse.Database,
			Username:  cfg.ClickHouse.Username,
			Password:  cfg.ClickHouse.Password,
			BatchSize: cfg.ClickHouse.BatchSize,
		})
	default:
		return nil, nil
	}
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, closeLog)

	b := connector.MakeBuilder().
		WithLogger(log.Default()).
		WithMaxRadios(cfg.Connector.MaxRadios).
		WithReceiveBufferSize(cfg.Connector.ReceiveBufferSize).
		WithRequestTimeout(cfg.Connector.Timeout)

	if cfg.Connector.DebugPrints {
		b = b.WithHook(connector.NewFrameLogger(log.Default()))
	}

	s.recorder, err = openRecorder(cfg.Recorder)
	if err != nil {
		s.close()
		return nil, err
	}

	if s.recorder != nil {
		b = b.WithHook(datarecording.NewFrameRecorder(s.recorder)).
			WithHook(tracing.NewTraceHook(
				tracing.NewDBTracer(s.recorder, nil)))
	}

	if cfg.Monitor.Port != 0 || cfg.Monitor.Open {
		s.monitor = monitoring.NewMonitor().WithPortNumber(cfg.Monitor.Port)

		for _, kind := range tracedKinds {
			t := tracing.NewAverageTimeTracer(tracing.KindFilter(kind.String()))
			s.monitor.RegisterTracer(kind.String(), t)
			b = b.WithHook(tracing.NewTraceHook(t))
		}
	}

	s.conn, err = b.Build(cfg.Connector.Server, cfg.Connector.Local)
	if err != nil {
		s.close()
		return nil, err
	}

	if s.monitor != nil {
		s.monitor.RegisterConnector(s.conn)
		s.monitor.StartServer()
		s.closers = append(s.closers, s.monitor.StopServer)

		if cfg.Monitor.Open {
			if err := s.monitor.OpenBrowser(); err != nil {
				log.Printf("[WARN] cannot open browser: %v", err)
			}
		}
	}

	return s, nil
}

// attach attaches a radio per configured band, or to the given band only.
func (s *session) attach(band string) ([]*connector.Radio, error) {
	bands := s.cfg.Connector.Bands
	if band != "" {
		bands = []string{band}
	}

	radios := make([]*connector.Radio, 0, len(bands))
	for _, b := range bands {
		r, err := s.conn.AttachRadio(b)
		if err != nil {
			return nil, err
		}

		radios = append(radios, r)
	}

	return radios, nil
}

// close closes the connector and releases the rest in reverse order. The
// recorder is flushed but stays open for the exit handlers.
func (s *session) close() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			log.Printf("[WARN] closing connector: %v", err)
		}
	}

	if s.recorder != nil {
		s.recorder.Flush()
	}

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}
}
