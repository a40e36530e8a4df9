package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

const (
	envAPIURL = "GUATA_API_URL"

	defaultAPIURL = "http://localhost:8080"

	// Resolution on the server is bounded well below this.
	requestTimeout = 60 * time.Second
)

// Version is reported in the User-Agent header.
var Version = "dev"

// APIClient talks to the Guatá HTTP API.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// ResolveAPIURL picks the API base URL: --api-url, then GUATA_API_URL, then
// the saved state, then the local default.
func ResolveAPIURL(cmd *cobra.Command) (string, error) {
	if cmd != nil {
		if flagURL, err := cmd.Flags().GetString("api-url"); err == nil && flagURL != "" {
			return flagURL, nil
		}
	}
	if envURL := os.Getenv(envAPIURL); envURL != "" {
		return envURL, nil
	}

	state, err := LoadState()
	if err != nil {
		return "", err
	}
	if state.APIURL != "" {
		return state.APIURL, nil
	}
	return defaultAPIURL, nil
}

// NewAPIClientWithCmd creates a client for the URL ResolveAPIURL selects.
// cmd may be nil.
func NewAPIClientWithCmd(cmd *cobra.Command) (*APIClient, error) {
	baseURL, err := ResolveAPIURL(cmd)
	if err != nil {
		return nil, err
	}
	return NewAPIClient(baseURL), nil
}

// NewAPIClient creates a client for an explicit base URL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// BaseURL returns the API base URL in use.
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx answer from the API. Code carries the domain error
// code when the server sent one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// Ask sends one question through the resolution pipeline.
func (c *APIClient) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	var resp AskResponse
	if err := c.do(ctx, http.MethodPost, "/v1/ask", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns one page of a session's turns, oldest first.
func (c *APIClient) History(ctx context.Context, sessionID string, limit int, cursor string) (*HistoryResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/turns"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp HistoryResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchKnowledge scores question against the server's local knowledge.
func (c *APIClient) SearchKnowledge(ctx context.Context, question string) (*SearchResponse, error) {
	var resp SearchResponse
	body := map[string]string{"question": question}
	if err := c.do(ctx, http.MethodPost, "/v1/knowledge/search", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends body as JSON and decodes the data member of the response
// envelope into out.
func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "guata-cli/"+Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(resp.StatusCode, payload)
	}

	data := gjson.GetBytes(payload, "data")
	if !data.Exists() {
		return fmt.Errorf("response has no data")
	}
	if err := json.Unmarshal([]byte(data.Raw), out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// newAPIError reads {error, code} from a JSON body and falls back to the
// raw text for proxies that answer in plain text.
func newAPIError(status int, payload []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if gjson.ValidBytes(payload) {
		apiErr.Message = gjson.GetBytes(payload, "error").String()
		apiErr.Code = gjson.GetBytes(payload, "code").String()
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(payload))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
