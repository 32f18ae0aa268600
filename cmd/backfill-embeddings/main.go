// backfill-embeddings enqueues River embedding jobs for reference answers and
// context passages that have a null embedding. Run this as a one-off after an
// outage or a model change; workers in the API process the jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/speakpath/backend/internal/repository"
	"github.com/speakpath/backend/internal/service"
	"github.com/speakpath/backend/pkg/database"
)

const (
	defaultBatchLimit = 1000
	exitSuccess       = 0
	exitFailure       = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env for consistency with the main API server (godotenv.Load() there).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")

		return exitFailure
	}

	limit := getEnvAsInt("BACKFILL_BATCH_LIMIT", defaultBatchLimit)
	if limit <= 0 {
		limit = defaultBatchLimit
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, databaseURL, database.WithVectorTypes())
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			service.EmbeddingsQueueName: {},
		},
		Workers: river.NewWorkers(),
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)

		return exitFailure
	}

	answersRepo := repository.NewReferenceAnswersRepository(db)
	passagesRepo := repository.NewContextPassagesRepository(db)

	answerIDs, err := answersRepo.ListIDsMissingEmbedding(ctx, limit)
	if err != nil {
		slog.Error("Failed to list reference answers missing embeddings", "error", err)

		return exitFailure
	}

	passageIDs, err := passagesRepo.ListPassageIDsMissingEmbedding(ctx, limit)
	if err != nil {
		slog.Error("Failed to list passages missing embeddings", "error", err)

		return exitFailure
	}

	enqueued := 0

	for _, id := range answerIDs {
		_, err := riverClient.Insert(ctx, service.AnswerEmbeddingArgs{ReferenceAnswerID: id},
			&river.InsertOpts{Queue: service.EmbeddingsQueueName})
		if err != nil {
			slog.Error("Failed to enqueue answer embedding job", "error", err, "reference_answer_id", id)

			return exitFailure
		}

		enqueued++
	}

	for _, id := range passageIDs {
		_, err := riverClient.Insert(ctx, service.PassageEmbeddingArgs{PassageID: id},
			&river.InsertOpts{Queue: service.EmbeddingsQueueName})
		if err != nil {
			slog.Error("Failed to enqueue passage embedding job", "error", err, "passage_id", id)

			return exitFailure
		}

		enqueued++
	}

	slog.Info("Backfill complete", "answers", len(answerIDs), "passages", len(passageIDs))

	fmt.Printf("Enqueued %d embedding job(s).\n", enqueued)

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
