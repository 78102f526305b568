package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/LotfiJL/Jelo/pkg/application/services/access"
	"github.com/LotfiJL/Jelo/pkg/infrastructure/auth"
	"github.com/LotfiJL/Jelo/pkg/interfaces/http/dashboard"
	"go.uber.org/zap"
)

// ShutdownTimeout bounds how long in-flight requests may run after the context ends
const ShutdownTimeout = 10 * time.Second

// ServeConfig holds configuration for the dashboard server
type ServeConfig struct {
	Project      Config
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Realm        string
	Users        []auth.User
	RateLimit    int
	Burst        int
	// NoAuth serves the dashboard without credentials
	NoAuth bool
}

// ServeCommand projects a planning table once and serves the dashboard until ctx ends
type ServeCommand struct {
	config ServeConfig
	logger *zap.Logger
}

// NewServeCommand creates a new serve command
func NewServeCommand(config ServeConfig, logger *zap.Logger) *ServeCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServeCommand{
		config: config,
		logger: logger,
	}
}

// Execute listens on the configured address
func (c *ServeCommand) Execute(ctx context.Context) error {
	listener, err := net.Listen("tcp", c.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.config.Addr, err)
	}
	return c.Serve(ctx, listener)
}

// Serve projects the table and serves the dashboard on listener until ctx ends
func (c *ServeCommand) Serve(ctx context.Context, listener net.Listener) error {
	project := NewProjectCommand(c.config.Project, c.logger)
	if err := project.validateInputs(); err != nil {
		listener.Close()
		return fmt.Errorf("validation error: %w", err)
	}

	run, err := loadAndProject(ctx, c.config.Project, c.logger)
	if err != nil {
		listener.Close()
		return err
	}

	verifier, err := c.verifier()
	if err != nil {
		listener.Close()
		return err
	}

	handler, err := dashboard.NewHandler(run.Result, run.Journal, c.logger)
	if err != nil {
		listener.Close()
		return err
	}

	server := &http.Server{
		Handler: handler.Routes(dashboard.RouteConfig{
			Verifier:  verifier,
			Realm:     c.config.Realm,
			RateLimit: c.config.RateLimit,
			Burst:     c.config.Burst,
		}),
		ReadTimeout:  c.config.ReadTimeout,
		WriteTimeout: c.config.WriteTimeout,
	}

	c.logger.Info("dashboard listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("rows", len(run.Result.Rows)),
		zap.String("run_id", run.Result.RunID),
		zap.Bool("auth", verifier != nil),
	)
	if c.config.Project.Verbose {
		fmt.Fprintf(c.config.Project.stdout(), "🌐 Dashboard available at http://%s/\n", listener.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
	}

	c.logger.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown failed: %w", err)
	}
	return nil
}

// verifier returns nil for an open dashboard
func (c *ServeCommand) verifier() (access.Verifier, error) {
	if c.config.NoAuth {
		c.logger.Warn("dashboard authentication disabled")
		return nil, nil
	}

	if len(c.config.Users) == 0 {
		c.logger.Warn("no dashboard users configured, every request will be rejected")
		return access.DenyAll, nil
	}

	verifier, err := auth.NewBcryptVerifier(c.config.Users)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard users: %w", err)
	}
	return verifier, nil
}
