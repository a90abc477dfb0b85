// Command matchbook runs one batch of order commands read from stdin and
// prints the resulting trades followed by the final depth snapshot.
//
//	matchbook [-config matchbook.yaml] < commands.txt
//	matchbook -journal-dump data/journal
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"matchbook/config"
	"matchbook/domain/orderbook"
	"matchbook/infra/kafka"
	"matchbook/infra/logger"
	"matchbook/infra/wal/entry"
	exitwal "matchbook/infra/wal/exit"
	"matchbook/jobs/broadcaster"
	"matchbook/service"
	"matchbook/snapshot"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	dumpDir := flag.String("journal-dump", "", "print the command journal in DIR and exit")
	flag.Parse()

	if *dumpDir != "" {
		if _, err := service.DumpJournal(*dumpDir, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "journal dump:", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, File: cfg.Log.File}, "matchbook")
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("batch failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []service.Option{service.WithLogger(log)}
	var engineOpts []orderbook.Option

	// ---------------- Journal ----------------

	if cfg.Journal.Enabled {
		journal, err := entry.Open(entry.Config{
			Dir:             cfg.Journal.Dir,
			SegmentSize:     cfg.Journal.SegmentSize,
			SyncEveryAppend: cfg.Journal.SyncEveryAppend,
		})
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer journal.Close()
		opts = append(opts, service.WithJournal(journal))
	}

	// ---------------- Outbox ----------------

	var outbox *exitwal.Outbox
	if cfg.Outbox.Enabled {
		var err error
		if outbox, err = exitwal.Open(cfg.Outbox.Dir); err != nil {
			return fmt.Errorf("open outbox: %w", err)
		}
		defer outbox.Close()

		last, err := outbox.LastSeq()
		if err != nil {
			return fmt.Errorf("outbox last seq: %w", err)
		}
		engineOpts = append(engineOpts, orderbook.WithTradeSequence(last))
		opts = append(opts, service.WithOutbox(outbox))
	}

	svc := service.New(append(opts, service.WithEngine(orderbook.NewEngine(engineOpts...)))...)

	// ---------------- Batch ----------------

	if _, err := svc.RunBatch(ctx, os.Stdin, os.Stdout); err != nil {
		return err
	}

	// ---------------- Sinks ----------------

	var sinks []service.SnapshotSink
	if cfg.Snapshot.Dir != "" {
		sinks = append(sinks, &snapshot.Writer{Dir: cfg.Snapshot.Dir})
	}
	if cfg.KafkaEnabled() && cfg.Kafka.SnapshotTopic != "" {
		p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SnapshotTopic)
		defer p.Close()
		sinks = append(sinks, p)
	}

	pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if len(sinks) > 0 {
		if err := svc.PublishSnapshot(pubCtx, sinks...); err != nil {
			log.Warn("snapshot not fully published", zap.Error(err))
		}
	}

	if outbox != nil && cfg.KafkaEnabled() && cfg.Kafka.TradeTopic != "" {
		b, err := broadcaster.New(outbox, cfg.Kafka.Brokers, cfg.Kafka.TradeTopic,
			broadcaster.WithLogger(log),
			broadcaster.WithBatch(0),
		)
		if err != nil {
			log.Warn("trade broadcaster unavailable; trades stay in the outbox", zap.Error(err))
			return nil
		}
		defer b.Close()
		n, err := b.DrainOnce(pubCtx)
		if err != nil {
			log.Warn("trade drain", zap.Error(err))
		}
		log.Info("trades delivered", zap.Int("count", n))
	}
	return nil
}
