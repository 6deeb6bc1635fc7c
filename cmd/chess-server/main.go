package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/vietchess/chess-server/internal/config"
	"github.com/vietchess/chess-server/internal/coordinator"
	"github.com/vietchess/chess-server/internal/directory"
	"github.com/vietchess/chess-server/internal/metrics"
	"github.com/vietchess/chess-server/internal/msgcat"
	"github.com/vietchess/chess-server/internal/obslog"
	"github.com/vietchess/chess-server/internal/room"
	"github.com/vietchess/chess-server/internal/store"
	"github.com/vietchess/chess-server/internal/ws"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	pg, err := store.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := pg.EnsureSchema(ctx)
		cancel()
		if err != nil {
			log.Fatalf("schema init error: %v", err)
		}
	}

	// The room directory is optional; without Redis the server still relays
	// games, it just cannot list open rooms.
	var dir *directory.Directory
	if cfg.RedisURL != "" {
		dir, err = directory.New(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
	}

	cat, err := msgcat.New(cfg.MsgOverrideDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	met := metrics.New()
	reg := room.NewRegistry()
	coord := coordinator.New(coordinator.Options{
		Registry:     reg,
		Store:        pg,
		Directory:    dir,
		Catalog:      cat,
		Metrics:      met,
		StartDelay:   cfg.StartDelay,
		RoomMaxAge:   cfg.RoomMaxAge,
		ReapInterval: cfg.ReapInterval,
	})

	reapCtx, stopReaper := context.WithCancel(context.Background())
	go coord.Run(reapCtx)

	server := ws.NewServer(coord, reg, dir, met, cfg.AllowedOrigin)
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("server_listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("server_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	obslog.L().Info("server_shutdown_begin")

	stopReaper()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	_ = httpSrv.Shutdown(shutdownCtx)
	cancel()

	if dir != nil {
		_ = dir.Close()
	}
	_ = pg.Close()
	obslog.L().Info("server_shutdown_done")
}
