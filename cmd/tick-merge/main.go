package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ticksession/internal/config"
	"ticksession/internal/metrics"
	"ticksession/internal/publisher"
	"ticksession/internal/ticks/catalog"
	ticksgrpc "ticksession/internal/ticks/transport/grpc"
	"ticksession/utils/async"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	manifestPath := flag.String("manifest", cfg.Manifest, "Path to the YAML source manifest.")
	mode := flag.String("mode", "print", "What to do with the merged ticks: print, publish or serve.")
	port := flag.Int("port", cfg.GRPCPort, "The port for the grpc server to listen on (serve mode).")
	flag.Parse()

	log.Info().
		Str("manifest", *manifestPath).
		Str("mode", *mode).
		Msg("starting tick-merge")

	manifest, err := catalog.LoadManifest(*manifestPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load manifest")
	}

	reg := prometheus.NewRegistry()
	cat, err := catalog.FromManifest(manifest, catalog.Config{
		PrefetchSize: cfg.PrefetchSize,
		Observer:     metrics.NewMerge(reg),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build catalog")
	}

	// Graceful Shutdown signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		async.Go("metrics-server", func() {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		})
		defer srv.Close()
	}

	switch *mode {
	case "print":
		err = printTicks(ctx, cat)
	case "publish":
		err = publish(ctx, cfg, cat, reg)
	case "serve":
		err = serve(ctx, cat, *port)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("tick-merge failed")
	}
}

func printTicks(ctx context.Context, cat *catalog.Catalog) error {
	result, err := cat.ToQueryResult(ctx)
	if err != nil {
		return err
	}
	defer result.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	n := 0
	for d, err := range result.Flatten(ctx) {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, d.String()); err != nil {
			return err
		}
		n++
	}
	log.Info().Int("ticks", n).Msg("merge finished")
	return nil
}

func publish(ctx context.Context, cfg config.Config, cat *catalog.Catalog, reg prometheus.Registerer) error {
	if !cfg.PublishEnabled() {
		return errors.New("KAFKA_BROKERS and KAFKA_TOPIC must be set to publish")
	}
	result, err := cat.ToQueryResult(ctx)
	if err != nil {
		return err
	}
	defer result.Close()

	p := publisher.NewPublisher(publisher.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.BatchSize, metrics.NewPublisher(reg))
	defer p.Close()

	_, err = p.Publish(ctx, result.Flatten(ctx))
	return err
}

func serve(ctx context.Context, cat *catalog.Catalog, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen for grpc server: %w", err)
	}

	s := ticksgrpc.NewServer()
	ticksgrpc.RegisterTicksServiceServer(s, ticksgrpc.NewTicksServer(cat))

	serveErr := make(chan error, 1)
	async.GoWithRecover("grpc-server", func() {
		log.Info().Msgf("grpc server listening at %v", lis.Addr())
		serveErr <- s.Serve(lis)
	}, func(err error) { serveErr <- err })

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve grpc: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down grpc server...")
	s.GracefulStop()
	log.Info().Msg("server gracefully stopped")
	return nil
}
