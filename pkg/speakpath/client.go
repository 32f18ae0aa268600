// Package speakpath is a small Go client for the SpeakPath assessment API.
package speakpath

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// ClientOptions configures the SpeakPath API client
type ClientOptions struct {
	// BaseURL is the base URL of the API server (e.g. "https://api.speakpath.dev")
	// Do not include /v1 - it is added automatically
	BaseURL string
	// APIKey is the bearer token for the protected endpoints
	APIKey string
	// RetryMax is the maximum number of retries (default: 3)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 60 seconds; feedback
	// generation can take a while)
	Timeout time.Duration
}

// Client is the SpeakPath API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// NewClient creates a new SpeakPath API client with default settings
func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithOptions(ClientOptions{
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
}

// NewClientWithOptions creates a new SpeakPath API client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/v1")

	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil // Disable logging by default

	return &Client{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: retryClient,
	}
}

func (c *Client) v1URL() string {
	return c.baseURL + "/v1"
}

// APIError is a non-2xx response from the server, carrying the RFC 7807
// problem fields when the server sent them.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("API request failed with status %d", e.StatusCode)
}

// PronunciationScores are the speech-assessment sub-scores on a hundred-mark scale.
type PronunciationScores struct {
	Accuracy      float64 `json:"accuracy"`
	Fluency       float64 `json:"fluency"`
	Completeness  float64 `json:"completeness"`
	Pronunciation float64 `json:"pronunciation"`
}

// AssessmentRequest is the body for POST /v1/assessments.
type AssessmentRequest struct {
	QuestionID     uuid.UUID           `json:"questionId"`
	QuestionText   string              `json:"questionText,omitempty"`
	Transcript     string              `json:"transcript"`
	ProfileID      *uuid.UUID          `json:"profileId,omitempty"`
	Pronunciation  PronunciationScores `json:"pronunciation"`
	IncludeContext bool                `json:"includeContext,omitempty"`
}

// AssessmentResult is the assessment verdict and feedback for one transcript.
type AssessmentResult struct {
	Transcript    string  `json:"transcript"`
	Correct       bool    `json:"is_correct"`
	Similarity    float64 `json:"similarity_score"`
	MatchedAnswer string  `json:"matched_answer"`
	Feedback      string  `json:"feedback"`
	Context       string  `json:"context,omitempty"`
}

// CreateAssessment submits a transcript for assessment and returns the verdict
// with generated feedback.
func (c *Client) CreateAssessment(ctx context.Context, request *AssessmentRequest) (*AssessmentResult, error) {
	var result AssessmentResult
	if err := c.do(ctx, http.MethodPost, c.v1URL()+"/assessments", request, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// CreateAnswersRequest is the body for POST /v1/questions/{id}/reference-answers.
type CreateAnswersRequest struct {
	QuestionText string   `json:"questionText,omitempty"`
	Answers      []string `json:"answers"`
}

// CreateAnswersResult carries the IDs of the stored reference answers.
type CreateAnswersResult struct {
	IDs []uuid.UUID `json:"ids"`
}

// CreateReferenceAnswers stores expected answers for a question. Embeddings are
// computed asynchronously; answers become matchable once their jobs complete.
func (c *Client) CreateReferenceAnswers(ctx context.Context, questionID uuid.UUID, request *CreateAnswersRequest) (*CreateAnswersResult, error) {
	reqURL := fmt.Sprintf("%s/questions/%s/reference-answers", c.v1URL(), questionID)

	var result CreateAnswersResult
	if err := c.do(ctx, http.MethodPost, reqURL, request, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ProgressRecord is one stored assessment outcome.
type ProgressRecord struct {
	ID            uuid.UUID `json:"id"`
	ProfileID     uuid.UUID `json:"profile_id"`
	QuestionID    uuid.UUID `json:"question_id"`
	Transcript    string    `json:"transcript"`
	Correct       bool      `json:"correct"`
	Similarity    float64   `json:"similarity"`
	MatchedAnswer string    `json:"matched_answer"`
	Feedback      string    `json:"feedback"`
	CreatedAt     time.Time `json:"created_at"`
}

// Progress is a profile's assessment history and coin balance.
type Progress struct {
	Records []ProgressRecord `json:"records"`
	Coins   int              `json:"coins"`
}

// GetProgress retrieves a profile's recent assessment history and coin balance.
func (c *Client) GetProgress(ctx context.Context, profileID uuid.UUID) (*Progress, error) {
	reqURL := fmt.Sprintf("%s/progress/%s", c.v1URL(), profileID)

	var result Progress
	if err := c.do(ctx, http.MethodGet, reqURL, nil, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) do(ctx context.Context, method, reqURL string, in, out any) error {
	var body io.Reader

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}

		body = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Problem body is best effort; the status code alone is still useful.
		_ = json.Unmarshal(respBody, apiErr)

		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
