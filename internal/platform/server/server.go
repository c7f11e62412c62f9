package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

// Server は HTTP API サーバーと gRPC ヘルスチェックサーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	healthAddr string
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *health.Server
}

// New は listenAddr で HTTP を、healthAddr で gRPC ヘルスチェックを待ち受けるサーバーを構築します。
// healthAddr が空の場合、gRPC サーバーは起動しません。
func New(listenAddr, healthAddr string, handler http.Handler, opts ...grpc.ServerOption) *Server {
	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &Server{
		listenAddr: listenAddr,
		healthAddr: healthAddr,
		httpServer: &http.Server{
			Addr:              listenAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpcServer: srv,
		health:     hs,
	}
}

// Run はサーバーを起動し、コンテキストがキャンセルされると両方を停止します。
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}

	var healthLis net.Listener
	if s.healthAddr != "" {
		healthLis, err = net.Listen("tcp", s.healthAddr)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("listen on %s: %w", s.healthAddr, err)
		}
	}

	return s.Serve(ctx, httpLis, healthLis)
}

// Serve は与えられたリスナーで待ち受けます。healthLis は nil でも構いません。
func (s *Server) Serve(ctx context.Context, httpLis, healthLis net.Listener) error {
	errCh := make(chan error, 2)

	go func() {
		if err := s.httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serve HTTP: %w", err)
		}
	}()

	if healthLis != nil {
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		go func() {
			if err := s.grpcServer.Serve(healthLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("serve gRPC health: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	s.shutdown(context.WithoutCancel(ctx))
	return runErr
}

// MonitorHealth は interval ごとに check を実行し、結果を gRPC ヘルスステータスに反映します。
// コンテキストがキャンセルされるまでブロックします。
func (s *Server) MonitorHealth(ctx context.Context, interval time.Duration, check func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.checkHealth(ctx, check)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) checkHealth(ctx context.Context, check func(context.Context) error) {
	if err := check(ctx); err != nil {
		if ctx.Err() == nil {
			log.Printf("health check failed: %v", err)
		}
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

func (s *Server) shutdown(ctx context.Context) {
	s.health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	s.grpcServer.GracefulStop()
}
