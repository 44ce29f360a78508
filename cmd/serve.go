package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/showcase/internal/daemon"
	"github.com/joescharf/showcase/internal/server"
	"github.com/joescharf/showcase/internal/site"
)

const shutdownTimeout = 10 * time.Second

var serveForce bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the showcase over HTTP",
	Long: `Start an HTTP server that renders showcase pages per request.

Pages are resolved with the configured resolver policy. Static files are
served from <site.dir>/share at /share/, and a small JSON API lives under
/api/. By default it listens on port 8080. Use --port to change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

func init() {
	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))

	serveStopCmd.Flags().BoolVar(&serveForce, "force", false, "Kill the server instead of asking it to shut down")
}

// pidFile returns the PID file tracking the running server.
func pidFile() *daemon.PIDFile {
	return daemon.NewPIDFile(filepath.Join(viper.GetString("state_dir"), "showcase-serve.pid"))
}

// newHTTPServer builds the showcase handler from config. The render log is
// optional; when it can not be opened renders are simply not recorded.
func newHTTPServer(ctx context.Context, logger *slog.Logger) (*server.Server, error) {
	policy, err := resolverPolicy()
	if err != nil {
		return nil, err
	}
	pages, err := newPages(policy, logger)
	if err != nil {
		return nil, err
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithShareDir(filepath.Join(siteDir(), "share")),
	}
	if rec := recorderFor(ctx); rec != nil {
		opts = append(opts, server.WithRecorder(rec))
	}
	return server.New(pages, policy, opts...), nil
}

func serveRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	pf := pidFile()
	if pid, running := pf.IsRunning(); running {
		return fmt.Errorf("server already running (pid %d)", pid)
	}

	logger := newLogger()
	srv, err := newHTTPServer(ctx, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("port"))
	if dryRun {
		ui.DryRunMsg("Would serve %s at http://localhost%s", siteDir(), addr)
		return nil
	}

	if err := pf.Acquire(); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	defer func() { _ = pf.Release() }()

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	ui.Success("Serving showcase at http://localhost%s", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	ui.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func serveStatusRun() error {
	pf := pidFile()
	pid, running := pf.IsRunning()
	if !running {
		ui.Info("Server not running")
		return nil
	}
	ui.Success("Server running (pid %d)", pid)
	ui.VerboseLog("PID file: %s", pf.Path)
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	pid, running := pf.IsRunning()
	if !running {
		return fmt.Errorf("server not running")
	}

	sig := sigTERM()
	if serveForce {
		sig = sigKILL()
	}

	if dryRun {
		ui.DryRunMsg("Would send %v to pid %d", sig, pid)
		return nil
	}

	if err := pf.Signal(sig); err != nil {
		return fmt.Errorf("signal server: %w", err)
	}
	if serveForce {
		// A killed server can not clean up after itself.
		_ = pf.Remove()
	}
	ui.Success("Stopped server (pid %d)", pid)
	return nil
}

// recorderFor returns the render log as a site.Recorder, or nil when it can
// not be opened.
func recorderFor(ctx context.Context) site.Recorder {
	s, err := getStore(ctx)
	if err != nil {
		ui.Warning("Render log disabled: %v", err)
		return nil
	}
	return s
}
