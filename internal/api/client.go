package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-jira-download/internal/models"

	log "github.com/sirupsen/logrus"
)

// Custom Error Types. The download queue and the UI branch on these;
// the client itself never retries.
var (
	ErrUnauthorized = errors.New("API request unauthorized (check user/token)")
	ErrNotFound     = errors.New("API resource not found")
	ErrServerError  = errors.New("API server error")
	ErrProtocol     = errors.New("malformed API response")
)

// Client is a stateless Jira REST client. The credentials are read-only
// for the lifetime of the session; there is no token refresh flow.
type Client struct {
	BaseURL    string
	User       string
	Token      string
	HttpClient *http.Client
}

// NewClient creates a Jira API client. A nil httpClient gets a default;
// an injected client without a timeout of its own (the usual case, when
// the caller only wants to supply a transport) gets the configured one.
// The default is generous to suit large attachment streams.
func NewClient(cfg models.Config, httpClient *http.Client) *Client {
	timeout := 15 * time.Minute
	if cfg.APIClientTimeoutSec > 0 {
		timeout = time.Duration(cfg.APIClientTimeoutSec) * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	} else if httpClient.Timeout == 0 {
		httpClient.Timeout = timeout
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		User:       cfg.User,
		Token:      cfg.Token,
		HttpClient: httpClient,
	}
}

// authorize sets the Authorization header. With a user configured the
// header is Basic (Jira Server / Data Center API tokens); without one
// the token is sent as a Bearer PAT. Callers never choose explicitly.
func (c *Client) authorize(req *http.Request) {
	if c.Token == "" {
		return
	}
	if c.User != "" {
		req.SetBasicAuth(c.User, c.Token)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
}

// statusToError maps a non-2xx response to the client error taxonomy.
func statusToError(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return fmt.Errorf("%w (status code %d)", ErrServerError, code)
	default:
		return fmt.Errorf("%w (unexpected status code %d)", ErrServerError, code)
	}
}

// GetIssueAttachments fetches the attachment list of one issue. The
// returned slice preserves server order; the catalog is built from it
// exactly once per load.
func (c *Client) GetIssueAttachments(ctx context.Context, issueKey string) ([]models.Attachment, error) {
	reqURL := fmt.Sprintf("%s/rest/api/2/issue/%s?fields=attachment", c.BaseURL, issueKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating issue request for %s: %w", issueKey, err)
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		log.WithError(err).Errorf("Issue request failed for %s", issueKey)
		return nil, fmt.Errorf("%w: %v", ErrServerError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, statusToError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading issue response body: %v", ErrProtocol, err)
	}

	var issue models.IssueResponse
	if err := json.Unmarshal(body, &issue); err != nil {
		log.WithError(err).Errorf("Error unmarshalling issue response for %s", issueKey)
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	log.WithFields(log.Fields{
		"issue":       issueKey,
		"attachments": len(issue.Fields.Attachment),
	}).Info("Issue loaded")
	return issue.Fields.Attachment, nil
}

// GetAttachment opens an authenticated streaming read of an attachment
// content URL. The caller owns the returned body and must close it.
// The reported length is the Content-Length header (-1 if absent); the
// authoritative size check against the descriptor happens at end of
// stream in the download queue.
func (c *Client) GetAttachment(ctx context.Context, contentURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating attachment request for %s: %w", contentURL, err)
	}
	c.authorize(req)

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrServerError, err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, 0, statusToError(resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}
