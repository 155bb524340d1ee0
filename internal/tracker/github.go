// Package tracker provides the issue-tracker collaborator: a thin
// GitHub REST client used by the create-issue routing action.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// APIError is a non-2xx response from the GitHub API. Client errors
// (except rate limiting) are permanent: retrying an unknown repository
// will not make it exist.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github API returned HTTP %d: %s", e.StatusCode, e.Message)
}

// Permanent reports whether retrying the request is pointless.
func (e *APIError) Permanent() bool {
	if e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Issue is a created issue reference.
type Issue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// Client talks to the GitHub issues API with a bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	labels     []string
}

// New creates a GitHub client authenticated with a static token
func New(token, baseURL string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &Client{
		httpClient: oauth2.NewClient(context.Background(), src),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		labels:     []string{"client-email", "auto-generated"},
	}
}

// CreateIssue opens an issue in the given owner/repo and returns its
// HTML URL. A 404 (unknown repository) comes back as a permanent
// APIError; transport failures are returned as-is for retry.
func (c *Client) CreateIssue(ctx context.Context, repository, title, body string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"title":  title,
		"body":   body,
		"labels": c.labels,
	})
	if err != nil {
		return "", fmt.Errorf("encode issue payload: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues", c.baseURL, repository)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create issue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg := readErrorMessage(resp.Body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var issue Issue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return "", fmt.Errorf("decode issue response: %w", err)
	}
	return issue.HTMLURL, nil
}

// readErrorMessage extracts the "message" field from a GitHub error
// body, tolerating anything unexpected.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message
}
