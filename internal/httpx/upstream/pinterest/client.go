package pinterest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.pinterest.com/v5"
	defaultTimeout = 30 * time.Second
)

// Client is a Pinterest REST API client for pin creation
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Pinterest API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the Pinterest API
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pinterest API error: %s (status: %d, code: %d)", e.Message, e.Status, e.Code)
}

// Retryable reports whether the error is transient
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Kind maps the response onto the coarse failure classification
func (e *APIError) Kind() string {
	switch {
	case e.Status == http.StatusTooManyRequests:
		return "rate_limited"
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return "auth_revoked"
	case e.Status >= 400 && e.Status < 500:
		return "validation"
	default:
		return "api_error"
	}
}

// CreatePinInput represents input for creating a pin
type CreatePinInput struct {
	AccessToken string
	BoardID     string
	Title       string
	Description string
	MediaURL    string
}

// CreatePinOutput represents output from creating a pin
type CreatePinOutput struct {
	ID string `json:"id"`
}

// CreatePin creates a pin from a single image URL
func (c *Client) CreatePin(ctx context.Context, in CreatePinInput) (*CreatePinOutput, error) {
	payload := map[string]interface{}{
		"board_id":    in.BoardID,
		"title":       in.Title,
		"description": in.Description,
		"media_source": map[string]string{
			"source_type": "image_url",
			"url":         in.MediaURL,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding pin payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pins", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	var out CreatePinOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetDefaultBoardInput represents input for resolving the user's first board
type GetDefaultBoardInput struct {
	AccessToken string
}

// GetDefaultBoard returns the id of the user's first board. Pins require a
// board; board selection per post is not modeled, so the first one wins.
func (c *Client) GetDefaultBoard(ctx context.Context, in GetDefaultBoardInput) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/boards?page_size=1", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+in.AccessToken)

	var out struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}

	if len(out.Items) == 0 {
		return "", &APIError{Status: http.StatusNotFound, Message: "no boards available"}
	}

	return out.Items[0].ID, nil
}

// do executes an HTTP request and decodes the response
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil {
			apiErr.Message = string(body)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
