package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	answerEmbeddingKind  = "answer_embedding"
	passageEmbeddingKind = "passage_embedding"
	// EmbeddingsQueueName is the River queue used for embedding jobs.
	EmbeddingsQueueName = "embeddings"
)

// EmbeddingJobInserter inserts embedding jobs (e.g. River client). Used by the
// ingestion services and the backfill flow.
type EmbeddingJobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// AnswerEmbeddingArgs is the job payload for embedding one reference answer.
// Uniqueness is by ReferenceAnswerID so re-ingesting the same row does not
// create duplicate jobs.
type AnswerEmbeddingArgs struct {
	ReferenceAnswerID uuid.UUID `json:"reference_answer_id" river:"unique"`
}

// Kind returns the River job kind.
func (AnswerEmbeddingArgs) Kind() string { return answerEmbeddingKind }

// PassageEmbeddingArgs is the job payload for embedding one context passage.
type PassageEmbeddingArgs struct {
	PassageID uuid.UUID `json:"passage_id" river:"unique"`
}

// Kind returns the River job kind.
func (PassageEmbeddingArgs) Kind() string { return passageEmbeddingKind }

var (
	_ river.JobArgs = AnswerEmbeddingArgs{}
	_ river.JobArgs = PassageEmbeddingArgs{}
)
