package speakpath

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateAssessment(t *testing.T) {
	questionID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/assessments", r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req AssessmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, questionID, req.QuestionID)
		assert.Equal(t, "the cat sat on the mat", req.Transcript)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(AssessmentResult{
			Transcript:    req.Transcript,
			Correct:       true,
			Similarity:    0.91,
			MatchedAnswer: "The cat sat on the mat.",
			Feedback:      "Great job speaking clearly! Keep practicing!",
		}))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-api-key")

	result, err := client.CreateAssessment(context.Background(), &AssessmentRequest{
		QuestionID: questionID,
		Transcript: "the cat sat on the mat",
	})
	require.NoError(t, err)

	assert.True(t, result.Correct)
	assert.InDelta(t, 0.91, result.Similarity, 1e-9)
	assert.Equal(t, "The cat sat on the mat.", result.MatchedAnswer)
}

func TestClient_CreateAssessment_ProblemResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte(`{
			"type": "about:blank",
			"title": "Not Found",
			"detail": "Question not found",
			"status": 404
		}`))
		require.NoError(t, err)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-api-key")

	_, err := client.CreateAssessment(context.Background(), &AssessmentRequest{
		QuestionID: uuid.New(),
		Transcript: "hello",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Not Found", apiErr.Title)
	assert.Equal(t, "Question not found", apiErr.Detail)
	assert.Contains(t, apiErr.Error(), "Question not found")
}

func TestClient_CreateReferenceAnswers(t *testing.T) {
	questionID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/questions/"+questionID.String()+"/reference-answers", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		require.NoError(t, json.NewEncoder(w).Encode(CreateAnswersResult{IDs: ids}))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-api-key")

	result, err := client.CreateReferenceAnswers(context.Background(), questionID, &CreateAnswersRequest{
		QuestionText: "What did the cat do?",
		Answers:      []string{"The cat sat on the mat.", "It sat down on the mat."},
	})
	require.NoError(t, err)
	assert.Equal(t, ids, result.IDs)
}

func TestClient_GetProgress(t *testing.T) {
	profileID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/progress/"+profileID.String(), r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(Progress{
			Records: []ProgressRecord{{ProfileID: profileID, Correct: true, Similarity: 0.88}},
			Coins:   30,
		}))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-api-key")

	progress, err := client.GetProgress(context.Background(), profileID)
	require.NoError(t, err)
	assert.Equal(t, 30, progress.Coins)
	require.Len(t, progress.Records, 1)
	assert.True(t, progress.Records[0].Correct)
}

func TestNewClientWithOptions_NormalizesBaseURL(t *testing.T) {
	client := NewClientWithOptions(ClientOptions{BaseURL: "https://api.speakpath.dev/v1/", APIKey: "k"})
	assert.Equal(t, "https://api.speakpath.dev/v1", client.v1URL())
}
