// Command server runs the matcher as a long-lived gRPC service with a
// Prometheus endpoint and a Kafka trade broadcaster.
package main

import (
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

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"matchbook/api/grpcserver"
	"matchbook/config"
	"matchbook/domain/orderbook"
	"matchbook/infra/kafka"
	"matchbook/infra/logger"
	"matchbook/infra/wal/entry"
	exitwal "matchbook/infra/wal/exit"
	"matchbook/jobs/broadcaster"
	"matchbook/metrics"
	"matchbook/service"
	"matchbook/snapshot"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	snapEvery := flag.Duration("snapshot-interval", time.Minute, "how often to publish depth snapshots")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File, Output: os.Stdout}, "matchbook-server")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, *snapEvery, log); err != nil {
		log.Error("server exited", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, snapEvery time.Duration, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	opts := []service.Option{service.WithLogger(log), service.WithMetrics(m)}
	var engineOpts []orderbook.Option

	// ---------------- Entry WAL ----------------

	if cfg.Journal.Enabled {
		journal, err := entry.Open(entry.Config{
			Dir:             cfg.Journal.Dir,
			SegmentSize:     cfg.Journal.SegmentSize,
			SyncEveryAppend: cfg.Journal.SyncEveryAppend,
		})
		if err != nil {
			return fmt.Errorf("entry WAL init: %w", err)
		}
		defer journal.Close()
		log.Info("journal open", zap.String("dir", journal.Dir()), zap.Uint64("last_seq", journal.LastSeq()))
		opts = append(opts, service.WithJournal(journal))
	}

	// ---------------- Exit WAL ----------------

	var outbox *exitwal.Outbox
	if cfg.Outbox.Enabled {
		var err error
		if outbox, err = exitwal.Open(cfg.Outbox.Dir); err != nil {
			return fmt.Errorf("exit WAL init: %w", err)
		}
		defer outbox.Close()
		last, err := outbox.LastSeq()
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts, orderbook.WithTradeSequence(last))
		opts = append(opts, service.WithOutbox(outbox))
	}

	// ---------------- Service ----------------

	svc := service.New(append(opts, service.WithEngine(orderbook.NewEngine(engineOpts...)))...)

	// ---------------- Background Jobs ----------------

	if outbox != nil && cfg.KafkaEnabled() && cfg.Kafka.TradeTopic != "" {
		bc, err := broadcaster.New(outbox, cfg.Kafka.Brokers, cfg.Kafka.TradeTopic,
			broadcaster.WithInterval(cfg.Kafka.DrainInterval),
			broadcaster.WithBatch(cfg.Kafka.DrainBatch),
			broadcaster.WithLogger(log),
		)
		if err != nil {
			return fmt.Errorf("broadcaster: %w", err)
		}
		defer bc.Close()
		bc.Start(ctx)
	}

	var sinks []service.SnapshotSink
	if cfg.Snapshot.Dir != "" {
		sinks = append(sinks, &snapshot.Writer{Dir: cfg.Snapshot.Dir})
	}
	if cfg.KafkaEnabled() && cfg.Kafka.SnapshotTopic != "" {
		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SnapshotTopic)
		defer p.Close()
		sinks = append(sinks, p)
	}
	snapDone := make(chan struct{})
	go func() {
		defer close(snapDone)
		svc.RunSnapshotJob(ctx, snapEvery, sinks...)
	}()

	// ---------------- Metrics ----------------

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := svc.CheckIntegrity(); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
	}

	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcserver.UnaryLogger(log)))
	grpcserver.Register(grpcSrv, grpcserver.NewServer(svc, log))

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		grpcSrv.GracefulStop()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutCtx)
	}()

	log.Info("matchbook running",
		zap.String("grpc", cfg.GRPC.Addr),
		zap.String("metrics", cfg.Metrics.Addr),
	)
	if err := grpcSrv.Serve(lis); err != nil {
		return fmt.Errorf("gRPC server exited: %w", err)
	}
	<-snapDone
	return nil
}
