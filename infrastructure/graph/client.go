package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"spoadmin/domain/records"
	"spoadmin/logging"
)

const (
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	DefaultScope   = "https://graph.microsoft.com/.default"
)

// Config holds Graph client settings.
type Config struct {
	BaseURL           string
	Scope             string
	PublishAfterWrite bool
	FetchConcurrency  int
	RequestTimeout    time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Scope:             DefaultScope,
		PublishAfterWrite: true,
		FetchConcurrency:  4,
		RequestTimeout:    60 * time.Second,
	}
}

// Client talks to the Microsoft Graph sites and pages endpoints. It implements the site
// directory, record source and record writer contracts for web parts.
type Client struct {
	cred       azcore.TokenCredential
	httpClient *http.Client
	cfg        Config
	logger     *logging.Logger
}

// NewClient creates a Graph client. httpClient may be nil.
func NewClient(cred azcore.TokenCredential, httpClient *http.Client, cfg Config) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Scope == "" {
		cfg.Scope = defaults.Scope
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaults.FetchConcurrency
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}
	return &Client{
		cred:       cred,
		httpClient: httpClient,
		cfg:        cfg,
		logger:     logging.Default().WithComponent("graph_client"),
	}
}

// RemoteError is a non-success Graph response.
type RemoteError struct {
	Method     string
	URL        string
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("graph %s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("graph %s %s: %d", e.Method, e.URL, e.StatusCode)
}

// Is lets callers test remote failures with errors.Is(err, records.ErrRemoteFailure).
func (e *RemoteError) Is(target error) bool {
	return target == records.ErrRemoteFailure
}

type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type collectionPage struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// do sends one request. path is either relative to BaseURL or an absolute next link.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{c.cfg.Scope}})
	if err != nil {
		return nil, fmt.Errorf("%w: get token: %w", records.ErrRemoteFailure, err)
	}

	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = strings.TrimRight(c.cfg.BaseURL, "/") + path
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", records.ErrRemoteFailure, method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", records.ErrRemoteFailure, err)
	}
	c.logger.Graph("Graph request", "method", method, "url", url, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remoteErr := &RemoteError{Method: method, URL: url, StatusCode: resp.StatusCode}
		var ge graphErrorBody
		if json.Unmarshal(data, &ge) == nil {
			remoteErr.Code = ge.Error.Code
			remoteErr.Message = ge.Error.Message
		}
		return nil, remoteErr
	}
	return data, nil
}

// getCollection reads every page of a collection by following @odata.nextLink.
func (c *Client) getCollection(ctx context.Context, path string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	next := path
	for next != "" {
		data, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		var page collectionPage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("%w: decode collection %s: %w", records.ErrRemoteFailure, path, err)
		}
		all = append(all, page.Value...)
		next = page.NextLink
	}
	return all, nil
}
