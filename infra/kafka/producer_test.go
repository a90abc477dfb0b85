package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/domain/orderbook"
	"matchbook/snapshot"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testBlocks() []snapshot.Block {
	return []snapshot.Block{
		{
			Symbol: "AAPL",
			Rows: []snapshot.Row{
				{Bid: &snapshot.Level{Price: orderbook.NewPrice(100000, 2), Qty: 60}},
			},
		},
		{
			Symbol: "MSFT",
			Rows: []snapshot.Row{
				{Ask: &snapshot.Level{Price: orderbook.NewPrice(50000, 0), Qty: 3}},
			},
		},
	}
}

func TestPublishSnapshot(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.PublishSnapshot(context.Background(), 17, testBlocks()))
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "AAPL", string(w.msgs[0].Key))
	assert.Equal(t, "===AAPL===\n10.00,60,,", string(w.msgs[0].Value))
	assert.Equal(t, "MSFT", string(w.msgs[1].Key))
	assert.Equal(t, "===MSFT===\n,,5,3", string(w.msgs[1].Value))
	assert.Equal(t, []kafka.Header{{Key: "seq", Value: []byte("17")}}, w.msgs[0].Headers)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishEmptySnapshotWritesNothing(t *testing.T) {
	w := &fakeWriter{err: errors.New("must not be called")}
	p := &Producer{writer: w}
	assert.NoError(t, p.PublishSnapshot(context.Background(), 1, nil))
}

func TestSendPropagatesError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}}
	assert.ErrorIs(t, p.Send(context.Background(), []byte("k"), []byte("v")), boom)
}
