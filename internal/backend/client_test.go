package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "assessment-engine/internal/common/errors"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-key", 5*time.Second, logger.NewTestLogger(t)), server
}

func TestFetchQuestions_SendsInstrumentAndAuth(t *testing.T) {
	var gotPath, gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(questionsResponse{Questions: []models.Question{
			{ID: "q1", Instrument: models.InstrumentInterest, Text: "I enjoy building things", Dimension: "realistic"},
		}})
	}))

	questions, err := client.FetchQuestions(context.Background(), models.InstrumentInterest, FetchOptions{})

	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "q1", questions[0].ID)
	assert.Contains(t, gotPath, "/api/v1/questions")
	assert.Contains(t, gotPath, "instrument=interest")
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestFetchQuestions_ForwardsShuffleAndSeed(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(questionsResponse{})
	}))

	_, err := client.FetchQuestions(context.Background(), models.InstrumentPersonality, FetchOptions{Shuffle: true, Seed: 42})

	require.NoError(t, err)
	assert.Contains(t, gotQuery, "shuffle=true")
	assert.Contains(t, gotQuery, "seed=42")
}

func TestFetchQuestions_ServerErrorIsRetryable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))

	_, err := client.FetchQuestions(context.Background(), models.InstrumentInterest, FetchOptions{})

	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, apperrors.ErrCodeQuestionFetchFailed, apperrors.CodeOf(err))
}

func TestSubmitResponses_ReturnsAssessmentID(t *testing.T) {
	var gotBody submitRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/assessments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(submitResponse{AssessmentID: "asmt-123"})
	}))

	id, err := client.SubmitResponses(context.Background(),
		[]models.Instrument{models.InstrumentInterest, models.InstrumentPersonality},
		[]models.Response{{QuestionID: "q1", Value: 4}})

	require.NoError(t, err)
	assert.Equal(t, "asmt-123", id)
	require.Len(t, gotBody.Responses, 1)
	assert.Equal(t, "q1", gotBody.Responses[0].QuestionID)
}

func TestSubmitResponses_MissingIDFails(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{})
	}))

	_, err := client.SubmitResponses(context.Background(), nil, nil)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSubmissionFailed, apperrors.CodeOf(err))
}

func TestSubmitEssay_PostsToAssessmentPath(t *testing.T) {
	var gotPath string
	var gotBody essayRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusAccepted)
	}))

	err := client.SubmitEssay(context.Background(), "asmt-123", "my essay", "prompt-1", "en")

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/assessments/asmt-123/essay", gotPath)
	assert.Equal(t, "my essay", gotBody.Content)
	assert.Equal(t, "prompt-1", gotBody.PromptID)
}

func TestSubmitEssay_FailureIsRetryable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "timeout", http.StatusGatewayTimeout)
	}))

	err := client.SubmitEssay(context.Background(), "asmt-123", "essay", "", "")

	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, apperrors.ErrCodeEssaySubmitFailed, apperrors.CodeOf(err))
}

func TestFetchResult_DecodesComputedResult(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/assessments/asmt-123/result", r.URL.Path)
		json.NewEncoder(w).Encode(models.ComputedResult{
			AssessmentID:   "asmt-123",
			InterestScores: models.ScoreVector{"realistic": 0.8},
			Recommendations: []models.Recommendation{
				{ProfileID: "engineer", Title: "Engineer", Score: 85},
			},
		})
	}))

	result, err := client.FetchResult(context.Background(), "asmt-123")

	require.NoError(t, err)
	assert.Equal(t, "asmt-123", result.AssessmentID)
	assert.InDelta(t, 0.8, result.InterestScores["realistic"], 1e-9)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, 85, result.Recommendations[0].Score)
}

func TestFetchResult_FailureIsRetryable(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.FetchResult(context.Background(), "asmt-123")

	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Equal(t, apperrors.ErrCodeResultFetchFailed, apperrors.CodeOf(err))
}

func TestDoJSON_RespectsContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.FetchQuestions(ctx, models.InstrumentInterest, FetchOptions{})
	require.Error(t, err)
}
