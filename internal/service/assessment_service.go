package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/speakpath/backend/internal/feedback"
	"github.com/speakpath/backend/internal/models"
	"github.com/speakpath/backend/internal/observability"
	"github.com/speakpath/backend/pkg/cache"
	"github.com/speakpath/backend/pkg/vector"
)

const referenceAnswersCacheName = "reference_answers"

// ReferenceAnswerStore provides the reference answers for a question.
type ReferenceAnswerStore interface {
	ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]models.ReferenceAnswer, error)
}

// QuestionStore provides question lookups.
type QuestionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Question, error)
}

// ContextRetriever returns passages relevant to a query, best first.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]models.PassageWithScore, error)
}

// AssessmentInput is one spoken-answer assessment request. QuestionText may be
// empty; the stored question text is used then. IncludeContext echoes the
// retrieved passages in the result for debugging.
type AssessmentInput struct {
	QuestionID     uuid.UUID
	QuestionText   string
	Transcript     string
	Pronunciation  models.PronunciationScores
	IncludeContext bool
}

// AssessmentService runs the full pipeline for one transcript: embed, match
// against reference answers, retrieve grounding passages, generate feedback,
// and normalize it.
type AssessmentService struct {
	questions        QuestionStore
	answers          ReferenceAnswerStore
	answerCache      *cache.LoaderCache[uuid.UUID, []models.ReferenceAnswer]
	retriever        ContextRetriever
	embeddingClient  EmbeddingClient
	generationClient GenerationClient
	matchThreshold   float64
	metrics          observability.AssessmentMetrics
	cacheMetrics     observability.CacheMetrics
	logger           *slog.Logger
}

// AssessmentServiceParams configures AssessmentService. AnswerCache, Metrics,
// and CacheMetrics may be nil.
type AssessmentServiceParams struct {
	Questions        QuestionStore
	Answers          ReferenceAnswerStore
	AnswerCache      *cache.LoaderCache[uuid.UUID, []models.ReferenceAnswer]
	Retriever        ContextRetriever
	EmbeddingClient  EmbeddingClient
	GenerationClient GenerationClient
	MatchThreshold   float64
	Metrics          observability.AssessmentMetrics
	CacheMetrics     observability.CacheMetrics
	Logger           *slog.Logger
}

// NewAssessmentService creates an AssessmentService.
func NewAssessmentService(p AssessmentServiceParams) *AssessmentService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AssessmentService{
		questions:        p.Questions,
		answers:          p.Answers,
		answerCache:      p.AnswerCache,
		retriever:        p.Retriever,
		embeddingClient:  p.EmbeddingClient,
		generationClient: p.GenerationClient,
		matchThreshold:   p.MatchThreshold,
		metrics:          p.Metrics,
		cacheMetrics:     p.CacheMetrics,
		logger:           logger,
	}
}

// Assess runs the pipeline and returns the assessment result. Sentinel errors:
// ErrEmptyTranscript, ErrQuestionNotFound, ErrNoReferenceData,
// ErrProviderUnavailable.
func (s *AssessmentService) Assess(ctx context.Context, in AssessmentInput) (*models.AssessmentResult, error) {
	start := time.Now()

	result, err := s.assess(ctx, in)

	status := "failed"
	if err == nil {
		status = "incorrect"
		if result.Correct {
			status = "correct"
		}
	}

	if s.metrics != nil {
		s.metrics.RecordAssessment(ctx, status)
		s.metrics.RecordAssessmentDuration(ctx, time.Since(start), status)
	}

	return result, err
}

func (s *AssessmentService) assess(ctx context.Context, in AssessmentInput) (*models.AssessmentResult, error) {
	transcript := strings.TrimSpace(in.Transcript)
	if transcript == "" {
		return nil, ErrEmptyTranscript
	}

	question, err := s.questions.Get(ctx, in.QuestionID)
	if err != nil {
		//nolint:wrapcheck // return as-is so handler can map ErrQuestionNotFound to 404
		return nil, err
	}

	questionText := in.QuestionText
	if questionText == "" {
		questionText = question.Text
	}

	answers, err := s.referenceAnswers(ctx, in.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("list reference answers: %w", err)
	}

	embedded := answersWithEmbeddings(answers)
	if len(embedded) == 0 {
		if s.metrics != nil {
			s.metrics.RecordNoReferenceData(ctx)
		}

		s.logger.Warn("assessment: no reference answers", "question_id", in.QuestionID)

		return nil, ErrNoReferenceData
	}

	var (
		transcriptEmbedding []float32
		passages            []models.PassageWithScore
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		vec, embErr := s.embeddingClient.CreateEmbedding(gctx, transcript)
		if embErr != nil {
			return providerError("embed transcript", embErr)
		}

		transcriptEmbedding = vec

		return nil
	})

	g.Go(func() error {
		got, retErr := s.retriever.Retrieve(gctx, retrievalQuery(questionText, transcript))
		if retErr != nil {
			return fmt.Errorf("retrieve context: %w", retErr)
		}

		passages = got

		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("assessment: embedding or retrieval failed", "error", err, "question_id", in.QuestionID)

		return nil, err
	}

	match, err := s.matchAnswer(transcriptEmbedding, embedded, question.MatchThreshold)
	if err != nil {
		s.logger.Error("assessment: matching failed", "error", err, "question_id", in.QuestionID)

		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordSimilarity(ctx, match.Similarity)
	}

	systemPrompt := feedback.BuildSystemPrompt(passages)
	userPrompt := feedback.BuildUserPrompt(feedback.Request{
		QuestionText:  questionText,
		Transcript:    transcript,
		Match:         match,
		Pronunciation: in.Pronunciation,
		Passages:      passages,
	})

	raw, err := s.generationClient.GenerateFeedback(ctx, systemPrompt, userPrompt)
	if err != nil {
		s.logger.Error("assessment: generation failed", "error", err, "question_id", in.QuestionID)

		return nil, providerError("generate feedback", err)
	}

	result := &models.AssessmentResult{
		Transcript:    transcript,
		Correct:       match.Correct,
		Similarity:    roundSimilarity(match.Similarity),
		MatchedAnswer: match.AnswerText,
		Feedback:      feedback.Clean(raw),
	}

	if in.IncludeContext {
		result.Context = joinPassages(passages)
	}

	s.logger.Info("assessment: completed",
		"question_id", in.QuestionID,
		"correct", result.Correct,
		"similarity", result.Similarity,
		"passages", len(passages),
	)

	return result, nil
}

// matchAnswer ranks the reference answers against the transcript embedding and
// applies the correctness threshold. The per-question override wins when set.
func (s *AssessmentService) matchAnswer(embedding []float32, answers []models.ReferenceAnswer, override *float64) (models.MatchResult, error) {
	candidates := make([]vector.Candidate, 0, len(answers))
	byID := make(map[string]models.ReferenceAnswer, len(answers))

	for _, ans := range answers {
		id := ans.ID.String()
		candidates = append(candidates, vector.Candidate{ID: id, Vector: ans.Embedding})
		byID[id] = ans
	}

	ranked, err := vector.Rank(embedding, candidates)
	if err != nil {
		return models.MatchResult{}, fmt.Errorf("rank reference answers: %w", err)
	}

	best := ranked[0]
	bestAnswer := byID[best.ID]

	threshold := s.matchThreshold
	if override != nil {
		threshold = *override
	}

	return models.MatchResult{
		AnswerID:   bestAnswer.ID,
		AnswerText: bestAnswer.AnswerText,
		Similarity: best.Similarity,
		Correct:    best.Similarity >= threshold,
	}, nil
}

func (s *AssessmentService) referenceAnswers(ctx context.Context, questionID uuid.UUID) ([]models.ReferenceAnswer, error) {
	load := func(ctx context.Context, id uuid.UUID) ([]models.ReferenceAnswer, error) {
		return s.answers.ListByQuestion(ctx, id)
	}

	if s.answerCache == nil {
		return load(ctx, questionID)
	}

	answers, hit, err := s.answerCache.GetWithStats(ctx, questionID, load)
	if err != nil {
		return nil, err
	}

	if s.cacheMetrics != nil {
		if hit {
			s.cacheMetrics.RecordHit(ctx, referenceAnswersCacheName)
		} else {
			s.cacheMetrics.RecordMiss(ctx, referenceAnswersCacheName)
		}
	}

	return answers, nil
}

// retrievalQuery builds the composite retrieval query from the question and
// the child's answer, so passages relevant to either are found.
func retrievalQuery(questionText, transcript string) string {
	return fmt.Sprintf("Question: %s\nAnswer: %s", questionText, transcript)
}

func answersWithEmbeddings(answers []models.ReferenceAnswer) []models.ReferenceAnswer {
	embedded := make([]models.ReferenceAnswer, 0, len(answers))

	for _, ans := range answers {
		if len(ans.Embedding) > 0 {
			embedded = append(embedded, ans)
		}
	}

	return embedded
}

func roundSimilarity(similarity float64) float64 {
	return math.Round(similarity*100) / 100
}

func joinPassages(passages []models.PassageWithScore) string {
	contents := make([]string, 0, len(passages))
	for _, p := range passages {
		contents = append(contents, p.Content)
	}

	return strings.Join(contents, "\n\n")
}
