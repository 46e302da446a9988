// Package backend is the HTTP client for the course editing API.
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
)

const maxBodySize = 8 << 20

// APIError is a failed call: a non-2xx status or a 200 response carrying an
// error message.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

// Client talks to the editing API of one course.
type Client struct {
	baseURL    string
	sessKey    string
	courseID   int
	contextID  int
	httpClient *http.Client
}

func NewClient(baseURL, sessKey string, courseID, contextID int) *Client {
	return &Client{
		baseURL:   baseURL,
		sessKey:   sessKey,
		courseID:  courseID,
		contextID: contextID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CourseID returns the course the client is bound to.
func (c *Client) CourseID() int { return c.courseID }

type htmlResponse struct {
	HTML string `json:"html"`
}

// Move moves one section or asset.
func (c *Client) Move(ctx context.Context, req MoveRequest) error {
	return c.do(ctx, "move", http.MethodPost, c.coursePath("/move"), req, nil)
}

// EditModule performs action on asset id. Duplicate returns the markup of
// the original row followed by the copy; the other actions return nothing.
func (c *Client) EditModule(ctx context.Context, action ModuleAction, id int) (string, error) {
	var out htmlResponse
	path := c.coursePath(fmt.Sprintf("/modules/%d/%s", id, action))
	if err := c.do(ctx, "edit module", http.MethodPost, path, nil, &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

// SectionAction performs action on section n with value.
func (c *Client) SectionAction(ctx context.Context, action SectionAction, n, value int) (*SectionActionResponse, error) {
	body := struct {
		Value int `json:"value"`
	}{value}
	var out SectionActionResponse
	path := c.coursePath(fmt.Sprintf("/sections/%d/%s", n, action))
	if err := c.do(ctx, "section "+action.String(), http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchSection returns the rendered fragment of section n.
func (c *Client) FetchSection(ctx context.Context, n int) (string, error) {
	q := url.Values{}
	q.Set("contextid", strconv.Itoa(c.contextID))
	q.Set("courseid", strconv.Itoa(c.courseID))
	q.Set("section", strconv.Itoa(n))
	var out htmlResponse
	if err := c.do(ctx, "fetch section", http.MethodGet, "/api/fragments/section?"+q.Encode(), nil, &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

// FetchChapters returns the rendered chapter list of the table of contents.
func (c *Client) FetchChapters(ctx context.Context) (string, error) {
	var out htmlResponse
	if err := c.do(ctx, "fetch chapters", http.MethodGet, c.coursePath("/chapters"), nil, &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

// FetchPage returns the initial course page.
func (c *Client) FetchPage(ctx context.Context) (string, error) {
	var out htmlResponse
	if err := c.do(ctx, "fetch page", http.MethodGet, c.coursePath("/page"), nil, &out); err != nil {
		return "", err
	}
	return out.HTML, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) coursePath(suffix string) string {
	return fmt.Sprintf("/api/courses/%d%s", c.courseID, suffix)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.sessKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var errBody struct {
		Error string `json:"error"`
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := string(respBody)
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &APIError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read %s: %w", op, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &errBody); err == nil && errBody.Error != "" {
		return &APIError{Op: op, Status: resp.StatusCode, Message: errBody.Error}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s: %w", op, err)
		}
	}
	return nil
}
