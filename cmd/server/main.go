package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sundeep8967/zerobroker/internal/config"
	"github.com/sundeep8967/zerobroker/internal/identity"
	"github.com/sundeep8967/zerobroker/internal/logging"
	"github.com/sundeep8967/zerobroker/internal/payment"
	"github.com/sundeep8967/zerobroker/internal/push"
	"github.com/sundeep8967/zerobroker/internal/repository"
	"github.com/sundeep8967/zerobroker/internal/server"
	"github.com/sundeep8967/zerobroker/internal/service"
	"github.com/sundeep8967/zerobroker/internal/store"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	storeClient, err := store.NewFirestoreClient(ctx, store.Options{
		ProjectID:       cfg.Firebase.ProjectID,
		CredentialsFile: cfg.Firebase.CredentialsFile,
	})
	if err != nil {
		logger.Error("failed to create store client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storeClient.Close(); err != nil {
			logger.Warn("closing store client failed", "error", err)
		}
	}()

	pusher, err := push.NewFCMClient(ctx, push.Options{
		ProjectID:       cfg.Firebase.ProjectID,
		CredentialsFile: cfg.Firebase.CredentialsFile,
	})
	if err != nil {
		logger.Error("failed to create push client", "error", err)
		os.Exit(1)
	}

	authenticator, err := identity.NewFirebaseAuthenticator(ctx, identity.Options{
		ProjectID:       cfg.Firebase.ProjectID,
		CredentialsFile: cfg.Firebase.CredentialsFile,
	})
	if err != nil {
		logger.Error("failed to create authenticator", "error", err)
		os.Exit(1)
	}

	repo := repository.New(storeClient)
	unlockService := service.NewUnlockService(repo, payment.StaticVerifier{}, logger)
	dispatcher := service.NewDispatcher(repo, pusher, logger, cfg.Jobs.DispatchWorkers)
	maintenance := service.NewMaintenance(repo, logger, cfg.Jobs.ListingTTL)

	apiHandlers := server.NewAPIHandlers(logger, authenticator, unlockService, dispatcher, maintenance)

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Client: storeClient},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
