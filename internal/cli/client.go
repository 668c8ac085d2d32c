package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound reports that the requested review does not exist on the server.
var ErrNotFound = errors.New("review not found")

// Review mirrors the JSON body returned by the review service.
type Review struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	ProblemID   string `json:"problemId"`
	Title       string `json:"title"`
	ContestName string `json:"contestName"`
	Difficulty  int    `json:"difficulty"`
	IsSolved    bool   `json:"isSolved"`
	Notes       string `json:"notes"`
	CreatedAt   string `json:"createdAt"`
}

// CreateReviewInput carries the fields needed to register a review.
type CreateReviewInput struct {
	ProblemID   string `json:"problemId"`
	Title       string `json:"title"`
	ContestName string `json:"contestName"`
	Difficulty  int    `json:"difficulty"`
}

type progressBody struct {
	IsSolved bool   `json:"isSolved"`
	Notes    string `json:"notes"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	TraceID string `json:"trace_id"`
}

// Client is a typed HTTP client for the review service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateReview registers a review and returns the created entity together
// with the Location header pointing at it.
func (c *Client) CreateReview(ctx context.Context, userID string, input CreateReviewInput) (*Review, string, error) {
	resp, err := c.do(ctx, http.MethodPost, c.reviewsPath(userID), input)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, "", c.decodeError(resp)
	}
	var review Review
	if err := json.NewDecoder(resp.Body).Decode(&review); err != nil {
		return nil, "", fmt.Errorf("decode response failed: %w", err)
	}
	return &review, resp.Header.Get("Location"), nil
}

func (c *Client) GetReview(ctx context.Context, userID, id string) (*Review, error) {
	resp, err := c.do(ctx, http.MethodGet, c.reviewPath(userID, id), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, c.decodeError(resp)
	}
	var review Review
	if err := json.NewDecoder(resp.Body).Decode(&review); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	return &review, nil
}

// ListReviews returns the user's reviews, newest first.
func (c *Client) ListReviews(ctx context.Context, userID string) ([]Review, error) {
	resp, err := c.do(ctx, http.MethodGet, c.reviewsPath(userID), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}
	var reviews []Review
	if err := json.NewDecoder(resp.Body).Decode(&reviews); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	return reviews, nil
}

func (c *Client) UpdateProgress(ctx context.Context, userID, id string, isSolved bool, notes string) error {
	resp, err := c.do(ctx, http.MethodPut, c.reviewPath(userID, id)+"/progress", progressBody{IsSolved: isSolved, Notes: notes})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return c.decodeError(resp)
	}
}

func (c *Client) DeleteReview(ctx context.Context, userID, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.reviewPath(userID, id), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return c.decodeError(resp)
	}
	return nil
}

func (c *Client) reviewsPath(userID string) string {
	return fmt.Sprintf("/api/v1/users/%s/reviews", url.PathEscape(userID))
}

func (c *Client) reviewPath(userID, id string) string {
	return c.reviewsPath(userID) + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) decodeError(resp *http.Response) error {
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var apiErr apiError
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		if apiErr.Details != "" {
			return fmt.Errorf("HTTP %d: %s (%s)", resp.StatusCode, apiErr.Message, apiErr.Details)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
}
