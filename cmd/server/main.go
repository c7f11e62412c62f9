package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ogurasousui/codex-timesheet/internal/adapters/http/handler"
	"github.com/ogurasousui/codex-timesheet/internal/app"
	"github.com/ogurasousui/codex-timesheet/internal/platform/config"
	pg "github.com/ogurasousui/codex-timesheet/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-timesheet/internal/platform/server"
)

const (
	healthInterval = 15 * time.Second
	pingTimeout    = 3 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	svc := app.New(dbPool, app.Options{TxTimeout: cfg.Server.RequestTimeout})
	ping := func(ctx context.Context) error {
		return pg.Ping(ctx, dbPool, pingTimeout)
	}

	h := handler.New(handler.Services{
		Employees:     svc.Employees,
		Projects:      svc.Projects,
		Calendar:      svc.Calendar,
		Entries:       svc.Entries,
		Reports:       svc.Reports,
		HolidayRegion: cfg.Holidays.Region,
	})
	router := handler.NewRouter(h, handler.RouterOptions{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		Health:         ping,
	})

	srv := server.New(cfg.Server.ListenAddr, cfg.Server.HealthAddr, router)
	go srv.MonitorHealth(ctx, healthInterval, ping)

	log.Printf("HTTP server listening on %s (gRPC health on %s)", cfg.Server.ListenAddr, cfg.Server.HealthAddr)

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
