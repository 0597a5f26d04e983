package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/frudas24/touchpad/internal/app"
	"github.com/frudas24/touchpad/internal/config"
	"github.com/frudas24/touchpad/internal/transport"
	"github.com/frudas24/touchpad/internal/wininput"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// serveOptions holds the serve command flags.
type serveOptions struct {
	configPath string
	listen     string
}

// newServeCmd returns the command that receives touch pad updates and injects input.
func newServeCmd() *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept a touch pad connection and inject its updates as pointer input",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address (overrides config)")
	return cmd
}

// runServe wires the receiver and blocks until shutdown.
func runServe(parent context.Context, opts serveOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.listen != "" {
		cfg.Receiver.ListenAddr = opts.listen
	}

	log, sync, err := newLogger()
	if err != nil {
		return err
	}
	defer sync()

	injector, err := wininput.NewInjector()
	if err != nil {
		if !errors.Is(err, wininput.ErrUnsupported) {
			return err
		}
		log.Warnw("input injection unavailable, updates will only be logged", "error", err)
	}

	appInstance, err := app.New(cfg, injector, log)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	appInstance.RegisterRoutes(mux)
	server := &http.Server{
		Addr:              cfg.Receiver.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logListenStatus(log, cfg.Receiver.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// logListenStatus reports the listen address and the local touch pad URL.
func logListenStatus(log *zap.SugaredLogger, addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		log.Infow("listening", "addr", addr)
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Infow("listening", "addr", addr, "url", transport.Endpoint(net.JoinHostPort(host, port)))
}
