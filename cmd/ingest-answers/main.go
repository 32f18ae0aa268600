// ingest-answers loads reference answers from a JSON file. Each entry names a
// question and its expected answers; the rows are stored and an embedding job
// is enqueued per answer for the API workers to process.
//
// Input format:
//
//	[
//	  {
//	    "questionId": "6a0f...",
//	    "questionText": "What did the cat do?",
//	    "answers": ["The cat sat on the mat."]
//	  }
//	]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/speakpath/backend/internal/repository"
	"github.com/speakpath/backend/internal/service"
	"github.com/speakpath/backend/pkg/database"
)

const (
	defaultEmbeddingModel = "text-embedding-3-small"
	exitSuccess           = 0
	exitFailure           = 1
)

type answerEntry struct {
	QuestionID   uuid.UUID `json:"questionId"`   //nolint:tagliatelle // established API naming
	QuestionText string    `json:"questionText"` //nolint:tagliatelle // established API naming
	Answers      []string  `json:"answers"`
}

func main() {
	os.Exit(run())
}

func run() int {
	file := flag.String("file", "answers.json", "JSON file of questions and expected answers")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")

		return exitFailure
	}

	model := os.Getenv("EMBEDDING_MODEL")
	if model == "" {
		model = defaultEmbeddingModel
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		slog.Error("Failed to read input file", "error", err, "file", *file)

		return exitFailure
	}

	var entries []answerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Error("Failed to parse input file", "error", err, "file", *file)

		return exitFailure
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

	answersService := service.NewAnswersService(service.AnswersServiceParams{
		Store:     repository.NewReferenceAnswersRepository(db),
		Questions: repository.NewQuestionsRepository(db),
		Inserter:  riverClient,
		Model:     model,
	})

	total := 0

	for _, entry := range entries {
		if entry.QuestionID == uuid.Nil {
			slog.Error("Entry is missing questionId", "question_text", entry.QuestionText)

			return exitFailure
		}

		ids, err := answersService.Create(ctx, entry.QuestionID, entry.QuestionText, entry.Answers)
		if err != nil {
			if errors.Is(err, service.ErrNoAnswerTexts) {
				slog.Warn("Skipping entry with no usable answers", "question_id", entry.QuestionID)

				continue
			}

			slog.Error("Failed to ingest answers", "error", err, "question_id", entry.QuestionID)

			return exitFailure
		}

		total += len(ids)
	}

	fmt.Printf("Ingested %d reference answer(s) across %d question(s).\n", total, len(entries))

	return exitSuccess
}
