package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oagw/upstreamd/pkg/config"
	"github.com/oagw/upstreamd/pkg/logging"
	"github.com/oagw/upstreamd/pkg/upstream"
)

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	configFile      string
	host            string
	port            int
	printURL        bool
	logLevel        string
	logFormat       string
	streamDelayMs   int
	timeoutHold     int
	readTimeout     int
	writeTimeout    int
	shutdownTimeout int
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the mock upstream in the foreground",
	Long: `Run the mock upstream server. It binds the configured address, serves the
fixed OpenAI-style route table, and runs in the foreground until SIGTERM
or SIGINT.

Settings are resolved in order: built-in defaults, then the --config file,
then UPSTREAMD_* environment variables, then explicit flags.`,
	Example: `  # Start with defaults on port 19876
  upstreamd serve

  # Auto-assign a port and print it
  upstreamd serve --port 0 --print-url

  # JSON logs for CI parsing
  upstreamd serve --log-format json

  # Slow the SSE stream down to one chunk per 200ms
  upstreamd serve --stream-delay 200`,
	RunE: runServe,
}

func init() {
	registerServeFlags(serveCmd, &serveFlagVals)
	rootCmd.AddCommand(serveCmd)
}

func registerServeFlags(cmd *cobra.Command, f *serveFlags) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to configuration file (YAML)")
	cmd.Flags().StringVar(&f.host, "host", config.DefaultHost, "Bind address")
	cmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP server port (0 = OS auto-assign)")
	cmd.Flags().BoolVar(&f.printURL, "print-url", false, "Print the server URL to stdout on startup")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	cmd.Flags().IntVar(&f.streamDelayMs, "stream-delay", config.DefaultFragmentDelayMs, "Delay between streamed chunks in milliseconds")
	cmd.Flags().IntVar(&f.timeoutHold, "timeout-hold", config.DefaultTimeoutHold, "Seconds /error/timeout holds a request open")
	cmd.Flags().IntVar(&f.readTimeout, "read-timeout", 0, "HTTP read timeout in seconds (0 = none)")
	cmd.Flags().IntVar(&f.writeTimeout, "write-timeout", 0, "HTTP write timeout in seconds (0 = none)")
	cmd.Flags().IntVar(&f.shutdownTimeout, "shutdown-timeout", config.DefaultShutdownTimeout, "Graceful shutdown bound in seconds")
}

// resolveServeConfig layers the settings sources: defaults, config file,
// environment, then flags the user actually set.
func resolveServeConfig(cmd *cobra.Command, f *serveFlags) (config.Config, error) {
	cfg := config.Default()

	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	config.FromEnv(&cfg)

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = f.port
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if flags.Changed("stream-delay") {
		cfg.Stream.FragmentDelayMs = f.streamDelayMs
	}
	if flags.Changed("timeout-hold") {
		cfg.Stream.TimeoutHold = f.timeoutHold
	}
	if flags.Changed("read-timeout") {
		cfg.Server.ReadTimeout = f.readTimeout
	}
	if flags.Changed("write-timeout") {
		cfg.Server.WriteTimeout = f.writeTimeout
	}
	if flags.Changed("shutdown-timeout") {
		cfg.Server.ShutdownTimeout = f.shutdownTimeout
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load(".env")

	cfg, err := resolveServeConfig(cmd, &serveFlagVals)
	if err != nil {
		return err
	}

	log, err := logging.FromStrings(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	srv := upstream.New(cfg, upstream.WithLogger(log.With("component", "upstream")))
	if err := srv.Start(); err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("port %d is already in use (try --port 0 for auto-assign)", cfg.Server.Port)
		}
		return fmt.Errorf("failed to start mock upstream: %w", err)
	}
	defer func() { _ = srv.Stop() }()

	// Print URL if requested (to stdout for programmatic consumption)
	if serveFlagVals.printURL {
		fmt.Println(srv.BaseURL())
	}

	log.Info("mock upstream started",
		"url", srv.BaseURL(),
		"streamDelayMs", cfg.Stream.FragmentDelayMs,
		"timeoutHold", cfg.Stream.TimeoutHold,
	)

	// Wait for shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("shutting down mock upstream")

	return nil
}
