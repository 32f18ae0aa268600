package tests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/repository"
)

func TestQuestionsRepository_Integration(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := repository.NewQuestionsRepository(db)

	t.Run("upsert then get", func(t *testing.T) {
		id := uuid.New()

		require.NoError(t, repo.Upsert(ctx, id, "What did the cat do?"))

		question, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, question.ID)
		assert.Equal(t, "What did the cat do?", question.Text)
		assert.Nil(t, question.MatchThreshold)
	})

	t.Run("upsert updates existing text", func(t *testing.T) {
		id := uuid.New()

		require.NoError(t, repo.Upsert(ctx, id, "first wording"))
		require.NoError(t, repo.Upsert(ctx, id, "second wording"))

		question, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "second wording", question.Text)
	})

	t.Run("get unknown id returns not found", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		require.ErrorIs(t, err, repository.ErrQuestionNotFound)
	})
}

func TestReferenceAnswersRepository_Integration(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	questions := repository.NewQuestionsRepository(db)
	repo := repository.NewReferenceAnswersRepository(db)

	questionID := uuid.New()
	require.NoError(t, questions.Upsert(ctx, questionID, "What did the cat do?"))

	firstID, err := repo.Create(ctx, questionID, "The cat sat on the mat.", "text-embedding-3-small")
	require.NoError(t, err)

	secondID, err := repo.Create(ctx, questionID, "It sat down on the mat.", "text-embedding-3-small")
	require.NoError(t, err)

	t.Run("new row has no embedding", func(t *testing.T) {
		answer, err := repo.Get(ctx, firstID)
		require.NoError(t, err)
		assert.Equal(t, questionID, answer.QuestionID)
		assert.Equal(t, "The cat sat on the mat.", answer.AnswerText)
		assert.Nil(t, answer.Embedding)
	})

	t.Run("set embedding round-trips through pgvector", func(t *testing.T) {
		require.NoError(t, repo.SetEmbedding(ctx, firstID, unitVec(0)))

		answer, err := repo.Get(ctx, firstID)
		require.NoError(t, err)
		require.Len(t, answer.Embedding, testEmbeddingDims)
		assert.InDelta(t, 1.0, answer.Embedding[0], 1e-6)
	})

	t.Run("list preserves insertion order and includes embedding-less rows", func(t *testing.T) {
		answers, err := repo.ListByQuestion(ctx, questionID)
		require.NoError(t, err)
		require.Len(t, answers, 2)
		assert.Equal(t, firstID, answers[0].ID)
		assert.Equal(t, secondID, answers[1].ID)
		assert.NotNil(t, answers[0].Embedding)
		assert.Nil(t, answers[1].Embedding)
	})

	t.Run("missing-embedding listing finds only the unembedded row", func(t *testing.T) {
		ids, err := repo.ListIDsMissingEmbedding(ctx, 1000)
		require.NoError(t, err)
		assert.NotContains(t, ids, firstID)
		assert.Contains(t, ids, secondID)
	})

	t.Run("set embedding on unknown id returns not found", func(t *testing.T) {
		err := repo.SetEmbedding(ctx, uuid.New(), unitVec(0))
		require.ErrorIs(t, err, repository.ErrReferenceAnswerNotFound)
	})
}

func TestContextPassagesRepository_Integration(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := repository.NewContextPassagesRepository(db)

	docID, err := repo.CreateDocument(ctx, "articulation-guidelines")
	require.NoError(t, err)

	exactID, err := repo.CreatePassage(ctx, docID, 0, "Practice the s sound with short words.", "text-embedding-3-small")
	require.NoError(t, err)

	closeID, err := repo.CreatePassage(ctx, docID, 1, "Praise effort before correcting sounds.", "text-embedding-3-small")
	require.NoError(t, err)

	farID, err := repo.CreatePassage(ctx, docID, 2, "Unrelated note about scheduling.", "text-embedding-3-small")
	require.NoError(t, err)

	unembeddedID, err := repo.CreatePassage(ctx, docID, 3, "This one has no embedding yet.", "text-embedding-3-small")
	require.NoError(t, err)

	require.NoError(t, repo.SetEmbedding(ctx, exactID, unitVec(10)))
	require.NoError(t, repo.SetEmbedding(ctx, closeID, blendVec(10, 1, 11, 1)))
	require.NoError(t, repo.SetEmbedding(ctx, farID, unitVec(12)))

	t.Run("nearest ranks by cosine similarity and skips unembedded rows", func(t *testing.T) {
		results, err := repo.NearestByEmbedding(ctx, unitVec(10), 100)
		require.NoError(t, err)

		positions := map[uuid.UUID]int{}
		for i, p := range results {
			positions[p.PassageID] = i
		}

		require.Contains(t, positions, exactID)
		require.Contains(t, positions, closeID)
		assert.NotContains(t, positions, unembeddedID)
		assert.Less(t, positions[exactID], positions[closeID])

		if farPos, ok := positions[farID]; ok {
			assert.Less(t, positions[closeID], farPos)
		}

		exact := results[positions[exactID]]
		assert.Equal(t, docID, exact.DocumentID)
		assert.InDelta(t, 1.0, exact.Score, 1e-6)
		assert.InDelta(t, 0.7071, results[positions[closeID]].Score, 1e-3)
	})

	t.Run("passage round-trip includes the stored embedding", func(t *testing.T) {
		passage, err := repo.GetPassage(ctx, exactID)
		require.NoError(t, err)
		assert.Equal(t, 0, passage.Position)
		require.Len(t, passage.Embedding, testEmbeddingDims)
	})

	t.Run("missing-embedding listing finds the unembedded passage", func(t *testing.T) {
		ids, err := repo.ListPassageIDsMissingEmbedding(ctx, 1000)
		require.NoError(t, err)
		assert.Contains(t, ids, unembeddedID)
		assert.NotContains(t, ids, exactID)
	})

	t.Run("documents listing includes the document", func(t *testing.T) {
		docs, err := repo.ListDocuments(ctx)
		require.NoError(t, err)

		found := false
		for _, d := range docs {
			if d.ID == docID {
				found = true
				assert.Equal(t, "articulation-guidelines", d.Name)
			}
		}
		assert.True(t, found)
	})
}

func TestProgressRepository_Integration(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := repository.NewProgressRepository(db)

	profileID := uuid.New()
	questionID := uuid.New()

	t.Run("records are listed newest first", func(t *testing.T) {
		_, err := repo.CreateRecord(ctx, models.ProgressRecord{
			ProfileID: profileID, QuestionID: questionID,
			Transcript: "the cat sat", Correct: false, Similarity: 0.61,
			MatchedAnswer: "The cat sat on the mat.", Feedback: "Close! Try again.",
		})
		require.NoError(t, err)

		_, err = repo.CreateRecord(ctx, models.ProgressRecord{
			ProfileID: profileID, QuestionID: questionID,
			Transcript: "the cat sat on the mat", Correct: true, Similarity: 0.93,
			MatchedAnswer: "The cat sat on the mat.", Feedback: "Great job!",
		})
		require.NoError(t, err)

		records, err := repo.ListByProfile(ctx, profileID, 10)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.True(t, records[0].Correct)
		assert.False(t, records[1].Correct)
	})

	t.Run("limit caps the history", func(t *testing.T) {
		records, err := repo.ListByProfile(ctx, profileID, 1)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("coin awards accumulate", func(t *testing.T) {
		balance, err := repo.AddCoins(ctx, profileID, 10)
		require.NoError(t, err)
		assert.Equal(t, 10, balance)

		balance, err = repo.AddCoins(ctx, profileID, 10)
		require.NoError(t, err)
		assert.Equal(t, 20, balance)

		balance, err = repo.GetCoins(ctx, profileID)
		require.NoError(t, err)
		assert.Equal(t, 20, balance)
	})

	t.Run("unknown profile has zero coins", func(t *testing.T) {
		balance, err := repo.GetCoins(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 0, balance)
	})
}
