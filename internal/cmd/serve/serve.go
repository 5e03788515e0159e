// Package serve runs the simulation HTTP API.
package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/MJE43/gamesim/internal/api"
	"github.com/MJE43/gamesim/internal/platform/config"
	"github.com/MJE43/gamesim/internal/sim"
)

// shutdownTimeout bounds how long in-flight requests may finish after the
// context is cancelled.
const shutdownTimeout = 10 * time.Second

// Config holds API server configuration.
type Config struct {
	Addr        string        `env:"ADDR" envDefault:"127.0.0.1"`
	Port        int           `env:"PORT" envDefault:"8080"`
	Workers     int           `env:"WORKERS"`
	Timeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Address to bind")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Port to listen on")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Default worker goroutines per batch; 0 uses every CPU")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request deadline")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "Request read timeout")
	if err := config.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var err error
	if c.Port < 0 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("port must be in 0..65535, got %d", c.Port))
	}
	if c.Workers < 0 || c.Workers > api.MaxWorkers {
		err = multierr.Append(err, fmt.Errorf("workers must be in 0..%d, got %d", api.MaxWorkers, c.Workers))
	}
	if c.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.ReadTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("read timeout must be positive, got %s", c.ReadTimeout))
	}
	return err
}

// Run listens on the configured address and serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config, logger *log.Logger) error {
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return Serve(ctx, cfg, ln, logger)
}

// Serve serves the API on ln until ctx is cancelled, then shuts down
// gracefully. The listener is closed on return.
func Serve(ctx context.Context, cfg Config, ln net.Listener, logger *log.Logger) error {
	runner := sim.NewRunner(sim.WithWorkers(cfg.Workers), sim.WithLogger(logger))
	srv := &http.Server{
		Handler:     api.NewServer(runner, logger).WithTimeout(cfg.Timeout).Routes(),
		ReadTimeout: cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Printf("server_started addr=%s engine_version=%s", ln.Addr(), api.EngineVersion)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Printf("server_stopping addr=%s", ln.Addr())
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Printf("server_stopped addr=%s", ln.Addr())
	return nil
}
