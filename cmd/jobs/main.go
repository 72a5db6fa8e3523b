// Command jobs runs one maintenance job to completion and exits. The external
// scheduler (cron, Cloud Scheduler) invokes it once per day per job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/sundeep8967/zerobroker/internal/config"
	"github.com/sundeep8967/zerobroker/internal/logging"
	"github.com/sundeep8967/zerobroker/internal/repository"
	"github.com/sundeep8967/zerobroker/internal/service"
	"github.com/sundeep8967/zerobroker/internal/store"
)

func main() {
	var job string
	flag.StringVar(&job, "job", "", "job to run: expire | analytics")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	ctx := context.Background()

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

	maintenance := service.NewMaintenance(repository.New(storeClient), logger, cfg.Jobs.ListingTTL)

	switch job {
	case "expire":
		err = maintenance.ExpireListings(ctx)
	case "analytics":
		err = maintenance.GenerateAnalytics(ctx)
	default:
		fmt.Fprintf(os.Stderr, "unknown job %q, expected expire or analytics\n", job)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("job failed", "job", job, "error", err)
		os.Exit(1)
	}
}
