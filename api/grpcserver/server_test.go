package grpcserver

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"matchbook/service"
)

func startServer(t testing.TB) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)

	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryLogger(zap.NewNop())))
	Register(srv, NewServer(service.New(), nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestSubmitAndSnapshot(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	trades, err := c.Submit(ctx, "INSERT,1,AAPL,BUY,10.00,100")
	require.NoError(t, err)
	assert.Empty(t, trades)

	trades, err = c.Submit(ctx, "INSERT 2 AAPL SELL 9.00 40")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL,10.00,40,2,1"}, trades)

	lines, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"===AAPL===", "10.00,60,,"}, lines)
}

func TestSubmitErrorCodes(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	_, err := c.Submit(ctx, "PULL,9")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Submit(ctx, "HELLO")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Submit(ctx, "INSERT,1,X,BUY,1,1")
	require.NoError(t, err)
	_, err = c.Submit(ctx, "INSERT,1,X,BUY,1,1")
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	lines, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"===X===", "1,1,,"}, lines)
}

func BenchmarkGRPCSubmit(b *testing.B) {
	c := startServer(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Submit(ctx, "INSERT,1,B,BUY,1,1"); err != nil {
			b.Fatal(err)
		}
		if _, err := c.Submit(ctx, "PULL,1"); err != nil {
			b.Fatal(err)
		}
	}
}
