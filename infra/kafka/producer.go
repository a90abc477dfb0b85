package kafka

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"matchbook/snapshot"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes depth snapshots, one message per symbol keyed by
// symbol, so a compacted topic keeps the latest view of every book.
type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Send(
	ctx context.Context,
	key []byte,
	value []byte,
) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// PublishSnapshot writes every block in a single batch.
func (p *Producer) PublishSnapshot(ctx context.Context, seq uint64, blocks []snapshot.Block) error {
	msgs := snapshotMessages(seq, blocks)
	if len(msgs) == 0 {
		return nil
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func snapshotMessages(seq uint64, blocks []snapshot.Block) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(blocks))
	seqHeader := []byte(strconv.FormatUint(seq, 10))
	for _, b := range blocks {
		msgs = append(msgs, kafka.Message{
			Key:     []byte(b.Symbol),
			Value:   []byte(strings.Join(b.Lines(), "\n")),
			Headers: []kafka.Header{{Key: "seq", Value: seqHeader}},
		})
	}
	return msgs
}
