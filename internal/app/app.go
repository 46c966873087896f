// app запускает серверы сервиса и управляет их жизненным циклом:
// публичный REST API, служебный HTTP (/livez, /healthz, /metrics)
// и gRPC health-сервер.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/pribylovaa/notes-backend/internal/config"
	"github.com/pribylovaa/notes-backend/internal/transport/grpcserver"
)

// App держит серверы процесса.
type App struct {
	log       *slog.Logger
	api       *http.Server
	ops       *http.Server
	grpc      *grpcserver.Server
	grpcAddr  string
	readiness *Readiness
	shutdown  time.Duration
}

// New собирает App. api — готовый HTTP-обработчик REST API.
func New(cfg *config.Config, log *slog.Logger, api http.Handler, reg *prometheus.Registry, checks map[string]Pinger) *App {
	readiness := NewReadiness(checks)

	return &App{
		log: log,
		api: &http.Server{
			Addr:              cfg.HTTP.Addr(),
			Handler:           api,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ops: &http.Server{
			Addr:              cfg.Ops.Addr(),
			Handler:           OpsHandler(readiness, reg),
			ReadHeaderTimeout: 5 * time.Second,
		},
		grpc:      grpcserver.New(log, reg, !cfg.IsProd()),
		grpcAddr:  cfg.GRPC.Addr(),
		readiness: readiness,
		shutdown:  cfg.Timeouts.Shutdown,
	}
}

// Run запускает серверы и блокируется до отмены ctx или падения любого из них.
// После этого серверы останавливаются в пределах таймаута shutdown.
func (a *App) Run(ctx context.Context) error {
	const op = "app.Run"

	lis, err := net.Listen("tcp", a.grpcAddr)
	if err != nil {
		return fmt.Errorf("%s: grpc listen %s: %w", op, a.grpcAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.serveHTTP("api", a.api) })
	g.Go(func() error { return a.serveHTTP("ops", a.ops) })
	g.Go(func() error {
		a.log.Info("grpc_listen_start", slog.String("addr", a.grpcAddr))
		if err := a.grpc.GRPC.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc serve: %w", err)
		}
		return nil
	})

	a.grpc.SetServing(true)
	a.readiness.Set(true)

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutdown_requested")

		a.readiness.Set(false)
		a.grpc.SetServing(false)

		return a.stop()
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	a.log.Info("service_stopped")

	return nil
}

func (a *App) serveHTTP(name string, srv *http.Server) error {
	a.log.Info("http_listen_start", slog.String("server", name), slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s http serve: %w", name, err)
	}

	return nil
}

func (a *App) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdown)
	defer cancel()

	done := make(chan struct{})
	go func() {
		a.grpc.GRPC.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		a.log.Info("grpc_stopped")
	case <-ctx.Done():
		a.log.Warn("grpc_force_stop")
		a.grpc.GRPC.Stop()
	}

	return errors.Join(
		a.api.Shutdown(ctx),
		a.ops.Shutdown(ctx),
	)
}
