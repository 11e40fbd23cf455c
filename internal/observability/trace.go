// internal/observability/trace.go
package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/errdefs"
)

// Trace is one recorded question/answer exchange.
type Trace struct {
	Project      string    `json:"project"`
	Query        string    `json:"query"`
	Answer       string    `json:"answer"`
	PassageCount int       `json:"passage_count"`
	RetrievalMs  int       `json:"retrieval_ms"`
	TotalMs      int       `json:"total_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// TraceClient ships traces to the configured trace service. A nil client is
// valid and drops every trace, so callers never branch on configuration.
type TraceClient struct {
	endpoint string
	apiKey   string
	project  string
	client   *http.Client
	log      *logrus.Logger
}

// NewTraceClient builds a client from the application configuration. Returns
// nil when no trace endpoint is configured.
func NewTraceClient(cfg appconfig.Config, log *logrus.Logger) *TraceClient {
	if !cfg.ObservabilityEnabled() {
		return nil
	}
	if log == nil {
		log = logrus.New()
	}
	return &TraceClient{
		endpoint: strings.TrimRight(strings.TrimSpace(cfg.Observability.Endpoint), "/"),
		apiKey:   cfg.Observability.APIKey,
		project:  cfg.Observability.Project,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// Record posts one trace. The web form calls this after answering; a failure
// here must never reach the member, so callers log and count instead of
// returning the error.
func (t *TraceClient) Record(ctx context.Context, trace Trace) error {
	if t == nil {
		return nil
	}
	if trace.Project == "" {
		trace.Project = t.project
	}
	if trace.CreatedAt.IsZero() {
		trace.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(trace)
	if err != nil {
		return errdefs.Persistence("encode trace: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/v1/traces", bytes.NewReader(body))
	if err != nil {
		return errdefs.Persistence("build trace request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return errdefs.Persistence("record trace: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errdefs.Persistence("record trace: %s", resp.Status)
	}

	t.log.WithField("project", trace.Project).Debug(fmt.Sprintf("Trace recorded in %dms", trace.TotalMs))
	return nil
}
