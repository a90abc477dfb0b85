package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exitwal "matchbook/infra/wal/exit"
)

func openOutbox(t *testing.T) *exitwal.Outbox {
	t.Helper()
	o, err := exitwal.Open(filepath.Join(t.TempDir(), "outbox"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func payloadIs(want string) func([]byte) error {
	return func(got []byte) error {
		if string(got) != want {
			return fmt.Errorf("payload %q, want %q", got, want)
		}
		return nil
	}
}

func TestDrainOnceAcksAndRetries(t *testing.T) {
	store := openOutbox(t)
	require.NoError(t, store.PutNew(
		exitwal.Entry{Seq: 1, Payload: []byte("t1")},
		exitwal.Entry{Seq: 2, Payload: []byte("t2")},
	))

	producer := mocks.NewSyncProducer(t, ProducerConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(payloadIs("t1"))
	producer.ExpectSendMessageAndFail(errors.New("leader not available"))

	b := NewWithProducer(store, producer, "trades")
	acked, err := b.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, acked)

	rec, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, exitwal.StateAcked, rec.State)

	rec, err = store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, exitwal.StateFailed, rec.State)
	assert.Equal(t, uint32(1), rec.Retries)

	// the failed record is picked up again
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(payloadIs("t2"))
	acked, err = b.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, acked)

	rec, err = store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, exitwal.StateAcked, rec.State)
	assert.Equal(t, uint32(1), rec.Retries)

	// nothing left
	acked, err = b.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, acked)

	require.NoError(t, b.Close())
}

func TestDrainOnceRespectsBatch(t *testing.T) {
	store := openOutbox(t)
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, store.PutNew(exitwal.Entry{Seq: i, Payload: []byte{byte(i)}}))
	}

	producer := mocks.NewSyncProducer(t, ProducerConfig())
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()

	b := NewWithProducer(store, producer, "trades", WithBatch(2))
	acked, err := b.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, acked)

	pending, err := store.ScanPending(0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, uint64(3), pending[0].Seq)

	require.NoError(t, b.Close())
}

func TestRunStopsOnCancel(t *testing.T) {
	store := openOutbox(t)
	require.NoError(t, store.PutNew(exitwal.Entry{Seq: 1, Payload: []byte("x")}))

	producer := mocks.NewSyncProducer(t, ProducerConfig())
	producer.ExpectSendMessageAndSucceed()

	b := NewWithProducer(store, producer, "trades", WithInterval(5*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		rec, err := store.Get(1)
		return err == nil && rec.State == exitwal.StateAcked
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.NoError(t, b.Close())
}
