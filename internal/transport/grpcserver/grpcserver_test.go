package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/pribylovaa/notes-backend/internal/pkg/log"
)

// capHandler запоминает последнюю запись и её атрибуты.
type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	lastMsg string
	attrs   map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	h.lastMsg = r.Message
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &capHandler{base: append(append([]slog.Attr{}, h.base...), attrs...), attrs: h.attrs}
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func TestUnaryLogging_RequestIDFromMetadata(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	inter := UnaryLogging(slog.New(h))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(requestIDKey, "rid-1"))
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	var seen string
	_, err := inter(ctx, nil, info, func(ctx context.Context, _ any) (any, error) {
		seen = log.RequestID(ctx)
		return nil, status.Error(codes.Unavailable, "down")
	})
	require.Error(t, err)
	require.Equal(t, "rid-1", seen)
}

func TestUnaryRecover_PanicToInternal(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	inter := UnaryRecover(slog.New(h))

	resp, err := inter(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"},
		func(context.Context, any) (any, error) { panic("boom") })
	require.Nil(t, resp)
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, "panic_recovered", h.lastMsg)
	require.Equal(t, "/x/Y", h.attrs["method"])
}

func TestServer_HealthCheck(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	srv := New(slog.New(&capHandler{}), reg, false)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.GRPC.Serve(lis) }()
	t.Cleanup(srv.GRPC.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := healthpb.NewHealthClient(conn)

	srv.SetServing(true)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	srv.SetServing(false)
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}
