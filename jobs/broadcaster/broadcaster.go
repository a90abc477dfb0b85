package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	exitwal "matchbook/infra/wal/exit"
)

// Store is the part of the outbox the broadcaster needs.
type Store interface {
	ScanPending(limit int) ([]exitwal.Pending, error)
	UpdateState(seq uint64, state exitwal.State, retries uint32) error
}

type Broadcaster struct {
	store    Store
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	batch    int
	log      *zap.Logger
}

type Option func(*Broadcaster)

func WithInterval(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithBatch caps how many records one pass sends.
func WithBatch(n int) Option {
	return func(b *Broadcaster) { b.batch = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(b *Broadcaster) { b.log = l }
}

// ------------------------------------------------
// CONSTRUCTORS
// ------------------------------------------------

// ProducerConfig is the sarama configuration used for trade delivery.
func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Idempotent = false
	return cfg
}

func New(
	store Store,
	brokers []string,
	topic string,
	opts ...Option,
) (*Broadcaster, error) {
	producer, err := sarama.NewSyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, err
	}
	return NewWithProducer(store, producer, topic, opts...), nil
}

// NewWithProducer wires an existing producer; the broadcaster takes
// ownership and closes it in Close.
func NewWithProducer(
	store Store,
	producer sarama.SyncProducer,
	topic string,
	opts ...Option,
) *Broadcaster {
	b := &Broadcaster{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: 250 * time.Millisecond,
		batch:    512,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(zap.String("component", "broadcaster"))
	return b
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run drains the outbox every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("started", zap.String("topic", b.topic), zap.Duration("interval", b.interval))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped")
			return
		case <-ticker.C:
			if _, err := b.DrainOnce(ctx); err != nil {
				b.log.Warn("drain failed", zap.Error(err))
			}
		}
	}
}

// Start runs the loop in its own goroutine.
func (b *Broadcaster) Start(ctx context.Context) {
	go b.Run(ctx)
}

// DrainOnce sends one batch of pending records and returns how many were
// acknowledged.
func (b *Broadcaster) DrainOnce(ctx context.Context) (int, error) {
	pending, err := b.store.ScanPending(b.batch)
	if err != nil {
		return 0, err
	}

	acked := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return acked, ctx.Err()
		}

		retries := p.Record.Retries
		if err := b.store.UpdateState(p.Seq, exitwal.StateSent, retries); err != nil {
			return acked, err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(p.Seq, 10)),
			Value: sarama.ByteEncoder(p.Record.Payload),
		}
		partition, offset, err := b.producer.SendMessage(msg)
		if err != nil {
			b.log.Warn("send failed",
				zap.Uint64("seq", p.Seq),
				zap.Uint32("retries", retries+1),
				zap.Error(err),
			)
			if err := b.store.UpdateState(p.Seq, exitwal.StateFailed, retries+1); err != nil {
				return acked, err
			}
			continue
		}

		if err := b.store.UpdateState(p.Seq, exitwal.StateAcked, retries); err != nil {
			return acked, err
		}
		acked++
		b.log.Debug("trade delivered",
			zap.Uint64("seq", p.Seq),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset),
		)
	}
	return acked, nil
}

// ------------------------------------------------
// SHUTDOWN
// ------------------------------------------------

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
