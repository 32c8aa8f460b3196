package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/anaclient/internal/config"
	"github.com/dshills/anaclient/internal/logging"
	"github.com/dshills/anaclient/internal/metrics"
)

// cli carries what the subcommands share once the root command has set up.
type cli struct {
	configPath  string
	metricsAddr string
	trace       bool
	level       *zapcore.Level

	cfg     *config.Config
	log     *logging.Logger
	metrics *metrics.Metrics
	server  *http.Server
	out     io.Writer
	errOut  io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "anaclient",
		Short: "Talks to a Dart analysis engine over its stdio protocol",
		Long: `anaclient launches an analysis engine, sends it requests and prints what it
reports. The engine command, version range and restart policy come from the
config file and ANACLIENT_ environment variables.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			c.teardown()
		},
	}
	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", os.Getenv("ANACLIENT_CONFIG"), "Path to a TOML or YAML configuration file")
	flags.StringVar(&c.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flags.BoolVar(&c.trace, "trace", false, "Print every request and message exchanged with the engine")
	flags.VarP(logging.NewLevelFlag(func(level zapcore.Level) {
		c.level = &level
	}), "verbosity", "v", "Log level: debug, info, warn, error or a verbosity number")

	rootCmd.AddCommand(
		newVersionCmd(c),
		newErrorsCmd(c),
		newWatchCmd(c),
	)
	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	c.out = cmd.OutOrStdout()
	c.errOut = cmd.ErrOrStderr()

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.metricsAddr != "" {
		cfg.Metrics.Addr = c.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	log, err := logging.New(logging.Options{
		Name:   "anaclient",
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: c.errOut,
	})
	if err != nil {
		return err
	}
	if c.level != nil {
		log.SetLevel(*c.level)
	}
	c.log = log

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	c.metrics = m

	if cfg.Metrics.Addr != "" {
		if err := c.serveMetrics(reg, cfg.Metrics.Addr); err != nil {
			return err
		}
	}
	if c.configPath != "" {
		go c.watchConfig(cmd.Context())
	}
	return nil
}

func (c *cli) serveMetrics(reg *prometheus.Registry, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	c.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error(err, "Metrics server failed")
		}
	}()
	c.log.Info("Serving metrics", "addr", ln.Addr().String())
	return nil
}

// watchConfig follows log level changes in the config file. A level given on
// the command line wins.
func (c *cli) watchConfig(ctx context.Context) {
	err := config.Watch(ctx, c.configPath, func(cfg *config.Config, err error) {
		if err != nil || c.level != nil {
			return
		}
		level, err := logging.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return
		}
		if level != c.log.Level() {
			c.log.SetLevel(level)
			c.log.Info("Log level changed", "level", cfg.Logging.Level)
		}
	}, config.WithWatchLogger(c.log.WithName("config")))
	if err != nil {
		c.log.Error(err, "Config reload disabled", "path", c.configPath)
	}
}

func (c *cli) teardown() {
	if c.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = c.server.Shutdown(ctx)
		cancel()
	}
	if c.log != nil {
		c.log.Flush()
	}
}
