package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buildwise-ai/buildwise-backend/config"
	"github.com/buildwise-ai/buildwise-backend/internal/auth"
	authmw "github.com/buildwise-ai/buildwise-backend/internal/auth/middleware"
	"github.com/buildwise-ai/buildwise-backend/internal/bootstrap"
	"github.com/buildwise-ai/buildwise-backend/internal/logging"
	"github.com/buildwise-ai/buildwise-backend/internal/sweeper"
)

const serviceName = "buildwise-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	log := logging.Init(cfg.App.LogLevel)
	bootstrap.SetGinMode(cfg.App.Environment)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stores.Close(cctx); err != nil {
			log.Warn("closing stores", "error", err)
		}
	}()
	if err := stores.EnsureIndexes(ctx); err != nil {
		return err
	}

	var verifier authmw.TokenVerifier
	if cfg.Firebase.CredentialsPath != "" {
		client, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
		verifier = client
	} else {
		log.Warn("FIREBASE_CREDENTIALS_PATH not set, bearer tokens will be rejected", "dev_header", cfg.Firebase.DevHeader)
	}

	sender, err := bootstrap.NewMailer(ctx, cfg.Mail)
	if err != nil {
		return err
	}
	gen, err := bootstrap.NewGenerator(cfg.AI)
	if err != nil {
		return err
	}
	images, err := bootstrap.NewImageStore(ctx, cfg)
	if err != nil {
		return err
	}
	enhancer := bootstrap.NewEnhancer(cfg.Enhance)
	if err := enhancer.CheckDependencies(ctx); err != nil {
		log.Warn("floor plan enhancement unavailable", "error", err)
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Config:      cfg,
		Stores:      stores,
		Repos:       stores.Repositories(),
		Verifier:    verifier,
		Mailer:      sender,
		Generator:   gen,
		Images:      images,
		Enhancer:    enhancer,
	})

	sweep := sweeper.New(enhancer.WorkDir(), cfg.App.SweepMaxAge)
	if err := sweep.Start(cfg.App.SweepSchedule); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "store", stores.Driver, "ai_provider", gen.Name(), "mail_provider", sender.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	sweep.Stop(sctx)
	return srv.Shutdown(sctx)
}
