// internal/observability/observability_test.go
package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/errdefs"
)

func TestCollectorServesMetrics(t *testing.T) {
	first := NewCollector()
	second := NewCollector()

	first.PersistenceFailures.Inc()
	first.RequestCount.WithLabelValues("POST", "/api/ask", "200").Inc()
	second.TraceFailures.Inc()

	recorder := httptest.NewRecorder()
	first.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(recorder.Result().Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "contact_persistence_failures_total 1")
	assert.Contains(t, text, "http_requests_total")
	assert.NotContains(t, text, "trace_record_failures_total 1", "collectors must not share a registry")
}

func TestNilTraceClientDropsTraces(t *testing.T) {
	var client *TraceClient
	assert.Nil(t, NewTraceClient(appconfig.Config{}, nil))
	assert.NoError(t, client.Record(context.Background(), Trace{Query: "anything"}))
}

func TestTraceClientRecords(t *testing.T) {
	var got Trace
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.HasSuffix(r.URL.Path, "/v1/traces"), r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := appconfig.Config{Observability: appconfig.ObservabilityConfig{
		Endpoint: server.URL,
		APIKey:   "trace-key",
		Project:  "demo-proj",
	}}
	client := NewTraceClient(cfg, nil)
	require.NotNil(t, client)

	err := client.Record(context.Background(), Trace{
		Query:        "What is covered under vision benefits?",
		Answer:       "Vision benefits cover annual exams.",
		PassageCount: 3,
		RetrievalMs:  42,
		TotalMs:      1200,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer trace-key", auth)
	assert.Equal(t, "demo-proj", got.Project)
	assert.Equal(t, "What is covered under vision benefits?", got.Query)
	assert.Equal(t, 3, got.PassageCount)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestTraceClientClassifiesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := appconfig.Config{Observability: appconfig.ObservabilityConfig{Endpoint: server.URL}}
	err := NewTraceClient(cfg, nil).Record(context.Background(), Trace{Query: "q"})
	require.Error(t, err)
	assert.True(t, errdefs.IsPersistence(err))
}
