package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cardea-project/cardea/internal/cardea/service"
	"github.com/cardea-project/cardea/internal/cardea/store/sqlite"
	"github.com/cardea-project/cardea/internal/config"
	"github.com/cardea-project/cardea/internal/db"
	"github.com/cardea-project/cardea/internal/faceclient"
	"github.com/cardea-project/cardea/internal/httpapi"
	"github.com/cardea-project/cardea/internal/photostore"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "cardea-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	requestStore := sqlite.NewAccessRequestStore(conn, writer)
	faceChangeStore := sqlite.NewFaceChangeStore(conn, writer)
	userStore := sqlite.NewUserStore(conn, writer)
	locationStore := sqlite.NewLocationStore(conn)
	categoryStore := sqlite.NewCategoryStore(conn)
	transitionStore := sqlite.NewTransitionStore(conn, writer)

	photos, err := photostore.New(cfg.PhotoRoot)
	if err != nil {
		logger.Fatalf("open photo store: %v", err)
	}

	verifier := faceclient.New(faceclient.Config{
		BaseURL:           cfg.FaceServiceURL,
		Timeout:           time.Duration(cfg.VerifyTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.VerifyRatePerSecond,
		Burst:             cfg.VerifyBurst,
	})

	// Services
	accessSvc := service.NewAccessService(service.AccessServiceDeps{
		Users:       userStore,
		Locations:   locationStore,
		Categories:  categoryStore,
		Requests:    requestStore,
		Transitions: transitionStore,
		Verifier:    verifier,
		Photos:      photos,
		Logger:      logger,
	})
	faceSvc := service.NewFaceService(service.FaceServiceDeps{
		Users:    userStore,
		Changes:  faceChangeStore,
		Photos:   photos,
		Verifier: verifier,
		Logger:   logger,
	})

	sweeper := service.NewStagingSweeper(photos, requestStore, service.SweeperConfig{
		RetentionMinutes: cfg.SweepRetentionMinutes,
		IntervalMinutes:  cfg.SweepIntervalMinutes,
	}, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:        logger,
		Addr:          cfg.HTTPAddr,
		AccessService: accessSvc,
		FaceService:   faceSvc,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
