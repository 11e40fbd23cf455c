// internal/platform/client.go
// Package platform is the REST client for the hosted retrieval platform: it
// creates corpora, imports uploaded documents into them, and serves the two
// calls a query makes (context retrieval and grounded generation). Everything
// heavy happens on the service side; this client is request plumbing plus
// error classification.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/errdefs"
)

const (
	// defaultRequestTimeout bounds a single platform call when no timeout is configured.
	defaultRequestTimeout = 600 * time.Second
	// defaultPollInterval is the delay between operation polls.
	defaultPollInterval = 2 * time.Second
)

// Client talks to the managed RAG platform.
type Client struct {
	BaseURL      string
	Location     string
	APIKey       string
	PollInterval time.Duration

	client         *http.Client
	requestTimeout time.Duration
}

// New builds a client from the application configuration, loading the API key
// from the configured credentials file when one is set.
func New(cfg appconfig.Config) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Platform.Endpoint)
	if endpoint == "" {
		return nil, errdefs.Configuration("platform endpoint is not configured")
	}

	var key string
	if path := strings.TrimSpace(cfg.Platform.CredentialsFile); path != "" {
		creds, err := LoadCredentials(path)
		if err != nil {
			return nil, err
		}
		key = creds.APIKey
	}

	return &Client{
		BaseURL:        strings.TrimRight(endpoint, "/"),
		Location:       cfg.PlatformLocation(),
		APIKey:         key,
		PollInterval:   defaultPollInterval,
		requestTimeout: cfg.RequestTimeout(),
	}, nil
}

// LoadCredentials reads the platform credentials file: JSON with a single
// api_key field, so deployments can mount it as a secret.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, errdefs.Authentication("read credentials file %q: %w", path, err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, errdefs.Authentication("decode credentials file %q: %w", path, err)
	}
	if strings.TrimSpace(creds.APIKey) == "" {
		return Credentials{}, errdefs.Authentication("credentials file %q contains no api_key", path)
	}
	return creds, nil
}

// httpClient returns the explicitly configured HTTP client or the shared default client.
func (c *Client) httpClient() *http.Client {
	if c.client != nil {
		return c.client
	}
	return http.DefaultClient
}

// effectiveTimeout resolves the timeout to use for outbound HTTP requests.
func (c *Client) effectiveTimeout() time.Duration {
	if c.requestTimeout <= 0 {
		return defaultRequestTimeout
	}
	return c.requestTimeout
}

// pollDelay resolves the delay between operation polls.
func (c *Client) pollDelay() time.Duration {
	if c.PollInterval <= 0 {
		return defaultPollInterval
	}
	return c.PollInterval
}

// doRequest executes an HTTP request against the platform API with context
// cancellation support and the bearer credential attached.
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, context.CancelFunc, error) {
	ctx, cancel := context.WithTimeout(ctx, c.effectiveTimeout())
	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s", c.BaseURL, path), body)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return resp, cancel, nil
}

// postJSON marshals payload, posts it, and decodes the 200 response into out.
// Non-2xx statuses come back classified.
func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	resp, cancel, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json")
	if err != nil {
		return errdefs.RemoteService("%s: %w", op, err)
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errdefs.RemoteService("%s: decode response: %w", op, err)
	}
	return nil
}

// getJSON fetches path and decodes the 200 response into out.
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	resp, cancel, err := c.doRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return errdefs.RemoteService("%s: %w", op, err)
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errdefs.RemoteService("%s: decode response: %w", op, err)
	}
	return nil
}

// classifyStatus maps a non-2xx platform response onto the error taxonomy.
func classifyStatus(op string, resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	msg := serviceMessage(body, resp.Status)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errdefs.Authentication("%s: %s", op, msg)
	default:
		return errdefs.RemoteService("%s: %s", op, msg)
	}
}

// serviceMessage extracts the human-readable message from a platform error
// body, falling back to the raw body and then the HTTP status line.
func serviceMessage(body []byte, status string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && strings.TrimSpace(envelope.Error.Message) != "" {
		return envelope.Error.Message
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return status
}

// CreateCorpus registers a new corpus under the project and blocks until the
// platform confirms it, returning the corpus resource name. Creating twice
// with the same display name makes a second corpus; the platform does not
// deduplicate display names.
func (c *Client) CreateCorpus(ctx context.Context, projectID, displayName, embeddingModel string) (string, error) {
	payload := map[string]any{
		"displayName":    displayName,
		"embeddingModel": embeddingModel,
	}
	path := fmt.Sprintf("/v1/projects/%s/locations/%s/ragCorpora", projectID, c.Location)

	var op Operation
	if err := c.postJSON(ctx, "create corpus", path, payload, &op); err != nil {
		return "", err
	}
	done, err := c.waitOperation(ctx, "create corpus", op)
	if err != nil {
		return "", err
	}

	var created struct {
		Name string `json:"name"`
	}
	if len(done.Response) > 0 {
		if err := json.Unmarshal(done.Response, &created); err != nil {
			return "", errdefs.RemoteService("create corpus: decode operation response: %w", err)
		}
	}
	if strings.TrimSpace(created.Name) == "" {
		return "", errdefs.RemoteService("create corpus: operation finished without a corpus resource name")
	}
	return created.Name, nil
}

// ImportFiles asks the platform to pull the uploaded objects into the corpus
// and blocks until the import is terminal. Returns the imported file count
// when the platform reports one.
func (c *Client) ImportFiles(ctx context.Context, corpusName string, sourceURIs []string, opts ImportOptions) (int64, error) {
	payload := map[string]any{
		"sourceUris":                 sourceURIs,
		"chunkSize":                  opts.ChunkSize,
		"chunkOverlap":               opts.ChunkOverlap,
		"maxEmbeddingRequestsPerMin": opts.MaxEmbeddingRequestsPerMinute,
	}
	path := fmt.Sprintf("/v1/%s:importFiles", corpusName)

	var op Operation
	if err := c.postJSON(ctx, "import files", path, payload, &op); err != nil {
		return 0, err
	}
	done, err := c.waitOperation(ctx, "import files", op)
	if err != nil {
		return 0, err
	}

	var imported struct {
		ImportedRagFilesCount int64 `json:"importedRagFilesCount"`
	}
	if len(done.Response) > 0 {
		if err := json.Unmarshal(done.Response, &imported); err != nil {
			return 0, errdefs.RemoteService("import files: decode operation response: %w", err)
		}
	}
	return imported.ImportedRagFilesCount, nil
}

// GetOperation fetches the current state of a long-running operation.
func (c *Client) GetOperation(ctx context.Context, name string) (Operation, error) {
	var op Operation
	if err := c.getJSON(ctx, "get operation", fmt.Sprintf("/v1/%s", name), &op); err != nil {
		return Operation{}, err
	}
	return op, nil
}

// waitOperation polls until the operation is terminal. A finished operation
// carrying an error surfaces it as a remote-service failure.
func (c *Client) waitOperation(ctx context.Context, op string, current Operation) (Operation, error) {
	for {
		if current.Done {
			if current.Error != nil {
				return Operation{}, errdefs.RemoteService("%s: operation failed: %s", op, current.Error.Message)
			}
			return current, nil
		}
		if strings.TrimSpace(current.Name) == "" {
			return Operation{}, errdefs.RemoteService("%s: operation has no name to poll", op)
		}

		select {
		case <-ctx.Done():
			return Operation{}, errdefs.RemoteService("%s: %w", op, ctx.Err())
		case <-time.After(c.pollDelay()):
		}

		next, err := c.GetOperation(ctx, current.Name)
		if err != nil {
			return Operation{}, err
		}
		current = next
	}
}

// RetrieveContexts runs a retrieval query against the corpus and returns the
// passages in the platform's ranking order.
func (c *Client) RetrieveContexts(ctx context.Context, projectID, corpusName, query string, topK int, distanceThreshold float64) ([]Passage, error) {
	payload := map[string]any{
		"ragCorpus": corpusName,
		"query": map[string]any{
			"text":           query,
			"similarityTopK": topK,
		},
		"vectorDistanceThreshold": distanceThreshold,
	}
	path := fmt.Sprintf("/v1/projects/%s/locations/%s:retrieveContexts", projectID, c.Location)

	var result struct {
		Contexts []Passage `json:"contexts"`
	}
	if err := c.postJSON(ctx, "retrieve contexts", path, payload, &result); err != nil {
		return nil, err
	}
	return result.Contexts, nil
}

// GenerateContent asks the hosted model for an answer and returns the first
// candidate's text.
func (c *Client) GenerateContent(ctx context.Context, projectID, model string, systemInstructions []string, prompt string) (string, error) {
	var instructionParts []map[string]string
	for _, instruction := range systemInstructions {
		instructionParts = append(instructionParts, map[string]string{"text": instruction})
	}
	payload := map[string]any{
		"systemInstruction": map[string]any{"parts": instructionParts},
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": prompt}},
			},
		},
	}
	path := fmt.Sprintf("/v1/projects/%s/locations/%s/models/%s:generateContent", projectID, c.Location, model)

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := c.postJSON(ctx, "generate content", path, payload, &result); err != nil {
		return "", err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errdefs.RemoteService("generate content: response contained no candidates")
	}

	var answer strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		answer.WriteString(part.Text)
	}
	return answer.String(), nil
}
