// Package backend talks to the assessment API: question sets, response
// submission, supplemental essays and computed results. Every failure is
// converted at this boundary into a retryable typed outcome so a network
// hiccup can never terminate a session.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "assessment-engine/internal/common/errors"
	commonhttp "assessment-engine/internal/common/http"
	"assessment-engine/internal/common/logger"
	"assessment-engine/internal/models"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *commonhttp.Client
	logger  logger.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    commonhttp.NewClient(timeout),
		logger:  log.WithFields(map[string]interface{}{"component": "backend-client"}),
	}
}

// FetchQuestions returns the ordered question list for one instrument.
func (c *Client) FetchQuestions(ctx context.Context, instrument models.Instrument, opts FetchOptions) ([]models.Question, error) {
	q := url.Values{}
	q.Set("instrument", string(instrument))
	if opts.Shuffle {
		q.Set("shuffle", "true")
	}
	if opts.Seed != 0 {
		q.Set("seed", strconv.FormatInt(opts.Seed, 10))
	}
	if len(opts.DimensionQuota) > 0 {
		quota, err := json.Marshal(opts.DimensionQuota)
		if err == nil {
			q.Set("quota", string(quota))
		}
	}

	var out questionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/questions?"+q.Encode(), nil, &out); err != nil {
		return nil, apperrors.NewQuestionFetchFailedError(string(instrument), err)
	}
	return out.Questions, nil
}

// SubmitResponses submits the full response list and returns the assessment
// identifier used for all subsequent calls.
func (c *Client) SubmitResponses(ctx context.Context, instruments []models.Instrument, responses []models.Response) (string, error) {
	body := submitRequest{Instruments: instruments, Responses: responses}

	var out submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/assessments", body, &out); err != nil {
		return "", apperrors.NewSubmissionFailedError(err)
	}
	if out.AssessmentID == "" {
		return "", apperrors.NewSubmissionFailedError(fmt.Errorf("response missing assessmentId"))
	}
	return out.AssessmentID, nil
}

// SubmitEssay submits the free-text supplemental input. The backend returns
// no meaningful payload beyond success or failure.
func (c *Client) SubmitEssay(ctx context.Context, assessmentID, content, promptID, language string) error {
	body := essayRequest{Content: content, PromptID: promptID, Language: language}

	path := fmt.Sprintf("/api/v1/assessments/%s/essay", url.PathEscape(assessmentID))
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return apperrors.NewEssaySubmitFailedError(assessmentID, err)
	}
	return nil
}

// FetchResult returns the server-side computed scores and recommendations.
// Callers fall back to the local matching engine when this fails.
func (c *Client) FetchResult(ctx context.Context, assessmentID string) (*models.ComputedResult, error) {
	path := fmt.Sprintf("/api/v1/assessments/%s/result", url.PathEscape(assessmentID))

	var out models.ComputedResult
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, apperrors.NewResultFetchFailedError(assessmentID, err)
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("backend call failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		})
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, string(payload))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
