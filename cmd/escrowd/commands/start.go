package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creachadair/taskgroup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/abci/server"
	"golang.org/x/net/netutil"

	"github.com/dreamer-zq/nft-escrow/app"
	"github.com/dreamer-zq/nft-escrow/config"
	"github.com/dreamer-zq/nft-escrow/libs/log"
)

const (
	// dbName is the tm-db name of the order database under the db dir.
	dbName = "escrow"

	metricsShutdownTimeout = 5 * time.Second
)

// MakeStartCommand returns the command that serves the escrow application to
// Tendermint until it receives SIGINT or SIGTERM.
func MakeStartCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "start",
		Aliases: []string{"run"},
		Short:   "Run the escrow ABCI application",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runApp(ctx, conf, logger)
		},
	}
	addAppFlags(cmd, conf)
	return cmd
}

// runApp serves the application until ctx ends or a server fails.
func runApp(ctx context.Context, conf *config.Config, logger log.Logger) error {
	db, err := config.DefaultDBProvider(&config.DBContext{ID: dbName, Config: conf})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	metrics := app.NopMetrics()
	if conf.Instrumentation.Prometheus {
		metrics = app.PrometheusMetrics(conf.Instrumentation.Namespace)
	}

	application, err := app.NewApplication(db, conf.Escrow.CustodyAddress,
		app.WithLogger(logger.With("module", "app")),
		app.WithMetrics(metrics),
	)
	if err != nil {
		db.Close()
		return err
	}
	defer application.Close()

	srv, err := server.NewServer(conf.ProxyApp, conf.ABCI, application)
	if err != nil {
		return fmt.Errorf("create abci server: %w", err)
	}
	srv.SetLogger(log.NewTMLogger(logger.With("module", "abci-server")))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g := taskgroup.New(taskgroup.Trigger(cancel))

	g.Go(func() error {
		if err := srv.Start(); err != nil {
			return fmt.Errorf("start abci server: %w", err)
		}
		logger.Info("serving abci", "addr", conf.ProxyApp, "transport", conf.ABCI)

		select {
		case <-ctx.Done():
			return srv.Stop()
		case <-srv.Quit():
			return errors.New("abci server stopped unexpectedly")
		}
	})

	if conf.Instrumentation.Prometheus {
		lis, err := net.Listen("tcp", conf.Instrumentation.PrometheusListenAddr)
		if err != nil {
			cancel()
			g.Wait() //nolint:errcheck
			return fmt.Errorf("listen for metrics: %w", err)
		}
		logger.Info("serving metrics", "addr", lis.Addr().String())
		g.Go(func() error {
			return serveMetrics(ctx, lis, conf.Instrumentation.MaxOpenConnections)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("escrow application stopped", "err", err)
		return err
	}
	logger.Info("escrow application stopped")
	return nil
}

// serveMetrics serves the Prometheus default gatherer under /metrics on lis
// until ctx ends. maxOpen bounds concurrent connections; 0 means unlimited.
func serveMetrics(ctx context.Context, lis net.Listener, maxOpen int) error {
	if maxOpen > 0 {
		lis = netutil.LimitListener(lis, maxOpen)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer, promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{MaxRequestsInFlight: maxOpen},
		),
	))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(lis) }()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shut down metrics server: %w", err)
		}
		<-errc
		return nil
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	}
}
