package service

import "context"

// EmbeddingClient generates embedding vectors for text.
// Implemented by provider-specific clients (e.g. OpenAI).
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// GenerationClient generates feedback text from a system and user prompt.
type GenerationClient interface {
	GenerateFeedback(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
