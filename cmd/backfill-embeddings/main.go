// backfill-embeddings enqueues River embedding jobs for content items that have no embedding yet.
// Run it after switching embedding backends or restoring data. Workers in the API process the jobs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/formbricks/feedrank/internal/jobs"
	"github.com/formbricks/feedrank/internal/repository"
	"github.com/formbricks/feedrank/pkg/database"
)

const (
	defaultMaxAttempts = 3
	exitSuccess        = 0
	exitFailure        = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	limit := flag.Int("limit", 0, "maximum number of items to enqueue (0 = all)")
	flag.Parse()

	// Load .env for consistency with the main API server (godotenv.Load() there).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")

		return exitFailure
	}

	maxAttempts := getEnvAsInt("RIVER_MAX_ATTEMPTS", defaultMaxAttempts)
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, databaseURL, database.WithVectorTypes())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	// Insert-only client: no queues, so this process never works jobs.
	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)

		return exitFailure
	}

	stats, err := jobs.Backfill(ctx,
		repository.NewContentItemsRepository(db),
		jobs.NewClientInserter(riverClient, maxAttempts, nil),
		*limit,
	)
	if err != nil {
		slog.Error("Backfill failed", "error", err)

		return exitFailure
	}

	slog.Info("Backfill complete", "enqueued", stats.Enqueued, "errors", stats.Errors)

	fmt.Printf("Enqueued %d embedding job(s), %d error(s).\n", stats.Enqueued, stats.Errors)

	if stats.Errors > 0 {
		return exitFailure
	}

	return exitSuccess
}

func getEnvAsInt(key string, defaultValue int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}

	return n
}
