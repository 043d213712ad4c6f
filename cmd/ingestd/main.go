package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/admin"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/forward"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/gateway"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/logging"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/observability"
)

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to config.toml (defaults apply when empty)")
	flag.StringVar(&opts.addr, "addr", "", "gateway listen address, overrides config")
	flag.StringVar(&opts.adminAddr, "admin-addr", "", "admin HTTP listen address, overrides config")
	flag.Parse()

	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "ingestd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := loadServerConfig(opts)
	if err != nil {
		return err
	}
	logger := logging.Runtime("ingestd")
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	svc := gateway.NewServiceWithConfig(cfg.ServiceConfig(), logger, metrics)
	if mq, enabled := cfg.MQTTConfig(); enabled {
		fwd, err := forward.NewMQTT(mq, logger)
		if err != nil {
			return err
		}
		defer fwd.Close()
		svc.SetForwarder(fwd)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.ListenAndServe(gctx)
	})
	if adminCfg := cfg.AdminConfig(); adminCfg.Addr != "" {
		srv := admin.New(adminCfg, svc, metrics, prometheus.DefaultGatherer, logger)
		g.Go(func() error {
			return srv.ListenAndServe(gctx)
		})
	}
	err = g.Wait()
	logger.Info().Err(err).Interface("stats", svc.Stats()).Msg("ingestd stopped")
	return err
}
