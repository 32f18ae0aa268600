// ingest-documents loads text files from a directory into the context corpus.
// Each file becomes one document; its text is chunked into passages and an
// embedding job is enqueued per passage for the API workers to process.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

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

func main() {
	os.Exit(run())
}

func run() int {
	dir := flag.String("dir", "docs", "directory of .txt/.md files to ingest")
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

	corpusService := service.NewCorpusService(service.CorpusServiceParams{
		Store:    repository.NewContextPassagesRepository(db),
		Inserter: riverClient,
		Model:    model,
	})

	entries, err := os.ReadDir(*dir)
	if err != nil {
		slog.Error("Failed to read input directory", "error", err, "dir", *dir)

		return exitFailure
	}

	documents := 0
	passages := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := filepath.Ext(entry.Name())
		if ext != ".txt" && ext != ".md" {
			continue
		}

		path := filepath.Join(*dir, entry.Name())

		text, err := os.ReadFile(path)
		if err != nil {
			slog.Error("Failed to read file", "error", err, "path", path)

			return exitFailure
		}

		name := strings.TrimSuffix(entry.Name(), ext)

		docID, count, err := corpusService.IngestDocument(ctx, name, string(text))
		if err != nil {
			if errors.Is(err, service.ErrNoChunks) || errors.Is(err, service.ErrEmptyDocumentText) {
				slog.Warn("Skipping file with too little text", "path", path)

				continue
			}

			slog.Error("Failed to ingest document", "error", err, "path", path)

			return exitFailure
		}

		slog.Info("Document ingested", "document_id", docID, "name", name, "passages", count)

		documents++
		passages += count
	}

	fmt.Printf("Ingested %d document(s), %d passage(s).\n", documents, passages)

	return exitSuccess
}
