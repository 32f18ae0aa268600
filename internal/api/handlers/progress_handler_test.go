package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakpath/backend/internal/models"
)

type mockProgressService struct {
	list     func(ctx context.Context, profileID uuid.UUID, limit int) ([]models.ProgressRecord, error)
	getCoins func(ctx context.Context, profileID uuid.UUID) (int, error)
}

func (m *mockProgressService) ListByProfile(ctx context.Context, profileID uuid.UUID, limit int) ([]models.ProgressRecord, error) {
	return m.list(ctx, profileID, limit)
}

func (m *mockProgressService) GetCoins(ctx context.Context, profileID uuid.UUID) (int, error) {
	return m.getCoins(ctx, profileID)
}

func getProgress(t *testing.T, handler *ProgressHandler, profileID, query string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/v1/progress/"+profileID+query, nil)
	req.SetPathValue("profileId", profileID)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	return rec
}

func TestProgressHandler_Get(t *testing.T) {
	profileID := uuid.New()

	t.Run("returns records and coin balance", func(t *testing.T) {
		handler := NewProgressHandler(&mockProgressService{
			list: func(_ context.Context, id uuid.UUID, limit int) ([]models.ProgressRecord, error) {
				assert.Equal(t, profileID, id)
				assert.Equal(t, 50, limit)

				return []models.ProgressRecord{{ProfileID: id, Correct: true, Similarity: 0.93}}, nil
			},
			getCoins: func(_ context.Context, _ uuid.UUID) (int, error) {
				return 30, nil
			},
		})

		rec := getProgress(t, handler, profileID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ProgressResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Records, 1)
		assert.True(t, resp.Records[0].Correct)
		assert.Equal(t, 30, resp.Coins)
	})

	t.Run("limit query parameter is capped", func(t *testing.T) {
		handler := NewProgressHandler(&mockProgressService{
			list: func(_ context.Context, _ uuid.UUID, limit int) ([]models.ProgressRecord, error) {
				assert.Equal(t, 200, limit)

				return nil, nil
			},
			getCoins: func(_ context.Context, _ uuid.UUID) (int, error) {
				return 0, nil
			},
		})

		rec := getProgress(t, handler, profileID.String(), "?limit=5000")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid profile id is a 400", func(t *testing.T) {
		handler := NewProgressHandler(&mockProgressService{})

		rec := getProgress(t, handler, "not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
