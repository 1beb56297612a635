package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/livetemplate/tinkerpad/internal/config"
	"github.com/livetemplate/tinkerpad/internal/server"
)

// shutdownTimeout bounds how long in-flight requests get on Ctrl+C.
const shutdownTimeout = 5 * time.Second

// serveOptions are the serve flags. Zero values leave the configuration alone.
type serveOptions struct {
	configPath    string
	envFile       string
	host          string
	port          int
	debug         bool
	noCompression bool
	enableAPI     bool
}

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor server",
		Long: `Start the browser editor. Every visitor gets their own in-memory session;
nothing is written to disk by the server.

Configuration is read from --config, or from tinkerpad.yaml / tinkerpad.yml in
the current directory. TINKERPAD_HOST, TINKERPAD_PORT, TINKERPAD_DEBUG and
TINKERPAD_SESSION_TTL override it (also read from a .env file), and flags
override both.

Examples:
  tinkerpad serve
  tinkerpad serve --port 3000
  tinkerpad serve --config ./tinkerpad.yaml --api`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveServeConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: ./tinkerpad.yaml)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "env file to load (default: ./.env)")
	cmd.Flags().StringVar(&opts.host, "host", "", "listen host")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "verbose logging")
	cmd.Flags().BoolVar(&opts.noCompression, "no-compression", false, "disable gzip compression")
	cmd.Flags().BoolVar(&opts.enableAPI, "api", false, "enable the /api endpoints")
	return cmd
}

// resolveServeConfig layers file config, environment and flags.
func resolveServeConfig(cmd *cobra.Command, opts serveOptions) (*config.Config, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		if _, statErr := os.Stat(opts.configPath); statErr != nil {
			return nil, fmt.Errorf("config file: %w", statErr)
		}
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	// CLI flags override config
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = opts.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = opts.port
	}
	if flags.Changed("debug") {
		cfg.Server.Debug = opts.debug
	}
	if opts.noCompression {
		cfg.Features.Compression = false
	}
	if opts.enableAPI {
		if cfg.API == nil {
			cfg.API = &config.APIConfig{}
		}
		cfg.API.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runServer serves until the context is cancelled or SIGINT/SIGTERM arrives.
func runServer(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewWithConfig(cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	addr := cfg.Server.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(out, "🧪 %s\n\n", cfg.Title)
	fmt.Fprintf(out, "🌐 Server running at http://%s\n", addr)
	if cfg.IsAPIEnabled() {
		fmt.Fprintf(out, "🔌 API enabled at /api/validate, /api/assemble, /api/filename\n")
	}
	if cfg.Features.Compression {
		fmt.Fprintf(out, "⚡ Gzip compression enabled\n")
	}
	fmt.Fprintf(out, "Press Ctrl+C to stop\n\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
