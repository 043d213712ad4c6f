package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/client"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/logging"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/samples"
)

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to client config.toml (defaults apply when empty)")
	flag.StringVar(&opts.host, "host", "", "gateway host, overrides config")
	flag.IntVar(&opts.port, "port", 0, "gateway port, overrides config")
	flag.StringVar(&opts.dataFile, "data", "", "JSON array of readings, overrides config")
	flag.StringVar(&opts.source, "source", "", "source label sent with the batch, overrides config")
	flag.DurationVar(&opts.timeout, "timeout", 0, "connect/read/write timeout, overrides config")
	flag.Parse()

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ingestctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := loadClientConfig(opts)
	if err != nil {
		return err
	}
	logger := logging.Runtime("ingestctl")

	readings, err := samples.Load(cfg.DataFile)
	if err != nil {
		return err
	}
	logger.Info().Str("data", cfg.DataFile).Int("readings", len(readings)).Msg("ingestctl loaded readings")

	c, err := client.New(cfg.ClientConfig(), logger)
	if err != nil {
		return err
	}
	result, err := c.Ingest(ctx, cfg.Source, readings)
	if err != nil {
		logger.Error().Err(err).Str("request_id", result.RequestID).Msg("ingestctl exchange failed")
		return err
	}
	printSummary(out, result)
	logger.Info().
		Str("request_id", result.RequestID).
		Float64("elapsed_ms", float64(result.Elapsed.Microseconds())/1000).
		Msg("ingestctl exchange complete")
	return nil
}
