package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/worldloom/worldloom/internal/server"
	"github.com/worldloom/worldloom/pkg/engine"
	"github.com/worldloom/worldloom/pkg/observability"
	"github.com/worldloom/worldloom/pkg/publish"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		src        string
		publishURL string
		noCache    bool
		noMetrics  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Long: `Serve layouts over HTTP.

Routes:
  GET  /healthz               liveness
  POST /layout                lay out the world in the request body
  GET  /layout/current        most recent layout
  POST /layout/select         select an element of the current layout
  GET  /worlds                list worlds in the configured source
  GET  /worlds/{id}/layout    lay out a world from the configured source
  GET  /metrics               Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if !flags.Changed("source") {
				src = c.Config.Source
			}
			if !flags.Changed("publish") {
				publishURL = c.Config.Server.PublishRedisURL
			}
			return c.runServe(cmd.Context(), addr, src, publishURL, noCache, !noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&src, "source", "", "world source DSN for /worlds routes")
	cmd.Flags().StringVar(&publishURL, "publish", "", "publish every layout to this Redis URL")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable world caching")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable /metrics")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, src, publishURL string, noCache, metrics bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	coord := engine.NewCoordinator(c.Logger)
	defer coord.Wait()

	if publishURL != "" {
		pub, err := publish.NewRedisPublisher(ctx, publishURL, c.Config.Server.PublishChannel, c.Logger)
		if err != nil {
			return fmt.Errorf("connect publisher: %w", err)
		}
		defer pub.Close()
		coord.Subscribe(pub)
	}

	defaults := c.pipelineOptions()
	defaults.Source = src
	srv := server.New(runner, coord, defaults, c.Logger)

	if metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observability.NewPrometheus(reg).Install()
		defer observability.Reset()
		srv.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	printSuccess("Listening on %s", addr)
	if src != "" {
		printKeyValue("source", src)
	}
	if publishURL != "" {
		printKeyValue("publish", c.Config.Server.PublishChannel)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
