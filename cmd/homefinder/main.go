package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vbonduro/homefinder/internal/catalog"
	"github.com/vbonduro/homefinder/internal/config"
	"github.com/vbonduro/homefinder/internal/db"
	"github.com/vbonduro/homefinder/internal/gateway"
	"github.com/vbonduro/homefinder/internal/listing"
	"github.com/vbonduro/homefinder/internal/logging"
	"github.com/vbonduro/homefinder/internal/photostore/local"
	"github.com/vbonduro/homefinder/internal/scheduler"
	"github.com/vbonduro/homefinder/internal/service"
	"github.com/vbonduro/homefinder/internal/session"
	"github.com/vbonduro/homefinder/internal/store"
	"github.com/vbonduro/homefinder/internal/web"
	"golang.org/x/sync/errgroup"
)

const sessionSweepInterval = time.Minute

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	gw := gateway.New(store.NewPropertyStore(database), store.NewFavoriteStore(database), logger)
	defer gw.Close()

	listings := listing.NewRepository(logger)

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	replyDelay, seed := cfg.ChatReplyDelay, cfg.SeedNotifications
	if cfg.TestMode {
		logger.Info("test mode: instant chat replies, no seeded notifications")
		replyDelay, seed = time.Millisecond, false
	}

	clock := scheduler.NewWall()
	defer clock.Stop()

	sessions := session.NewManager(listings, gw, clock, logger, session.Config{
		IdleTimeout:       cfg.SessionIdleTimeout,
		ReplyDelay:        replyDelay,
		SeedNotifications: seed,
	})
	defer sessions.Close()

	propertyService := service.NewPropertyService(gw, photoStg, cfg.PublicBaseURL, logger)
	if cfg.CatalogFile != "" {
		entries, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			logger.Error("failed to load catalog", "path", cfg.CatalogFile, "error", err)
			return
		}
		if _, err := catalog.Import(ctx, propertyService, entries, logger); err != nil {
			logger.Error("failed to import catalog", "path", cfg.CatalogFile, "error", err)
			return
		}
	}
	server := web.NewServer(propertyService, listings, sessions, cfg.CORSAllowedOrigins, logger)
	httpServer := server.NewHTTPServer(cfg.ListenAddr)

	eg, egCtx := errgroup.WithContext(ctx)

	// A stopped mirror keeps serving its last snapshot; it does not take the
	// server down.
	eg.Go(func() error {
		if err := listings.Run(egCtx, gw); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("property mirror stopped", "error", err)
		}
		return nil
	})
	eg.Go(func() error {
		return sessions.RunSweeper(egCtx, sessionSweepInterval)
	})
	eg.Go(func() error {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		logger.Error("server error", "error", err)
	}
}
