package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/gameoflife/game/service"
)

// Client calls the board REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("API error %d", e.StatusCode)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) CreateBoard(ctx context.Context, req service.CreateBoardRequest) (*CreateBoardResponse, error) {
	var resp CreateBoardResponse
	if err := c.call(ctx, "POST", "/api/boards", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetBoard(ctx context.Context, boardID string) (*service.BoardInfo, error) {
	var board service.BoardInfo
	if err := c.call(ctx, "GET", "/api/boards/"+url.PathEscape(boardID), nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (c *Client) ListBoards(ctx context.Context) ([]*service.BoardInfo, error) {
	var boards []*service.BoardInfo
	if err := c.call(ctx, "GET", "/api/boards", nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

func (c *Client) NextGeneration(ctx context.Context, boardID string) (*service.BoardInfo, error) {
	var board service.BoardInfo
	if err := c.call(ctx, "GET", "/api/boards/"+url.PathEscape(boardID)+"/next", nil, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

func (c *Client) Advance(ctx context.Context, boardID string, steps int) (*AdvanceResponse, error) {
	var resp AdvanceResponse
	path := fmt.Sprintf("/api/boards/%s/advance/%d", url.PathEscape(boardID), steps)
	if err := c.call(ctx, "POST", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Start(ctx context.Context, boardID string) (*BoardStateResponse, error) {
	var resp BoardStateResponse
	if err := c.call(ctx, "POST", "/api/boards/"+url.PathEscape(boardID)+"/start", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Stop(ctx context.Context, boardID string) (*BoardStateResponse, error) {
	var resp BoardStateResponse
	if err := c.call(ctx, "POST", "/api/boards/"+url.PathEscape(boardID)+"/stop", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListPatterns(ctx context.Context) ([]*service.PatternInfo, error) {
	var patterns []*service.PatternInfo
	if err := c.call(ctx, "GET", "/api/patterns", nil, &patterns); err != nil {
		return nil, err
	}
	return patterns, nil
}

// Ready returns the server status from /health/ready.
func (c *Client) Ready(ctx context.Context) (*service.Status, error) {
	var resp struct {
		Status  string          `json:"status"`
		Details *service.Status `json:"details"`
	}
	if err := c.call(ctx, "GET", "/health/ready", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Details, nil
}

// call sends body as JSON and decodes the data field of the response
// envelope into result.
func (c *Client) call(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []string        `json:"errors"`
	}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &envelope); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Messages: envelope.Errors}
		if len(apiErr.Messages) == 0 && len(respBody) > 0 {
			apiErr.Messages = []string{strings.TrimSpace(string(respBody))}
		}
		return apiErr
	}

	if result != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
