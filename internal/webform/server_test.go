// internal/webform/server_test.go
package webform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/pythia/internal/database"
	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/mwiater/pythia/internal/observability"
	"github.com/mwiater/pythia/internal/platform"
	"github.com/mwiater/pythia/internal/query"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	answer string
	err    error
	calls  int
	gotQ   string
}

func (f *fakeRunner) Answer(ctx context.Context, question string) (query.Result, error) {
	f.calls++
	f.gotQ = question
	if strings.TrimSpace(question) == "" {
		return query.Result{}, errdefs.Validation("query must not be empty")
	}
	if f.err != nil {
		return query.Result{}, f.err
	}
	return query.Result{
		Answer: f.answer,
		Passages: []platform.Passage{
			{SourceURI: "s3://contact-rag/corpus/vision.txt", Text: "Vision benefits cover annual exams."},
		},
		FinalPrompt: "CONTEXT\n[1] Vision benefits cover annual exams.\n\nQUESTION\n" + strings.TrimSpace(question) + "\n",
		RetrievalMs: 12,
	}, nil
}

type fakeStore struct {
	contacts []*database.Contact
	err      error
}

func (f *fakeStore) Create(ctx context.Context, contact *database.Contact) error {
	if f.err != nil {
		return f.err
	}
	f.contacts = append(f.contacts, contact)
	return nil
}

type fakeTracer struct {
	traces []observability.Trace
	err    error
}

func (f *fakeTracer) Record(ctx context.Context, trace observability.Trace) error {
	if f.err != nil {
		return f.err
	}
	f.traces = append(f.traces, trace)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(t *testing.T, config ServerConfig) *Server {
	t.Helper()
	if config.Logger == nil {
		config.Logger = quietLogger()
	}
	server, err := NewServer(config)
	require.NoError(t, err)
	return server
}

func postForm(router *gin.Engine, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func validForm() url.Values {
	return url.Values{
		"first_name":    {"Alex"},
		"last_name":     {"Rivera"},
		"email":         {"alex.rivera@example.com"},
		"date_of_birth": {"1985-04-12"},
		"contact_type":  {"Benefits"},
		"question":      {"  What is covered under vision benefits?  "},
	}
}

func TestServeFormListsContactTypes(t *testing.T) {
	server := newTestServer(t, ServerConfig{Runner: &fakeRunner{}})
	recorder := httptest.NewRecorder()
	server.Routes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	body := recorder.Body.String()
	for _, contactType := range database.ContactTypes {
		assert.Contains(t, body, contactType)
	}
	assert.Contains(t, body, "How can we help?")
}

func TestContactSubmissionAnswersAndQueues(t *testing.T) {
	runner := &fakeRunner{answer: "Vision benefits cover annual exams."}
	store := &fakeStore{}
	tracer := &fakeTracer{}
	server := newTestServer(t, ServerConfig{Runner: runner, Contacts: store, Traces: tracer, Model: "gemini-1.5-pro-001"})

	recorder := postForm(server.Routes(), validForm())

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Vision benefits cover annual exams.")
	assert.Equal(t, "What is covered under vision benefits?", runner.gotQ, "question reaches the runner trimmed")

	require.Len(t, store.contacts, 1)
	contact := store.contacts[0]
	assert.Equal(t, "Alex", contact.FirstName)
	assert.Equal(t, "1985-04-12", contact.DateOfBirth)
	assert.Equal(t, "Benefits", contact.ContactType)
	assert.Equal(t, "What is covered under vision benefits?", contact.Question)
	assert.Equal(t, "Vision benefits cover annual exams.", contact.Answer)
	assert.Contains(t, contact.FinalPrompt, "QUESTION")
	assert.Contains(t, string(contact.Payload), `"date_of_birth":"1985-04-12"`)

	require.Len(t, tracer.traces, 1)
	assert.Equal(t, 1, tracer.traces[0].PassageCount)
}

func TestContactQueueFailureNeverSurfaces(t *testing.T) {
	runner := &fakeRunner{answer: "Vision benefits cover annual exams."}
	store := &fakeStore{err: errdefs.Persistence("create contact: connection refused")}
	metrics := observability.NewCollector()
	server := newTestServer(t, ServerConfig{Runner: runner, Contacts: store, Metrics: metrics})
	router := server.Routes()

	recorder := postForm(router, validForm())

	require.Equal(t, http.StatusOK, recorder.Code, "queue failure must not fail the member response")
	assert.Contains(t, recorder.Body.String(), "Vision benefits cover annual exams.")
	assert.NotContains(t, recorder.Body.String(), "connection refused")

	scrape := httptest.NewRecorder()
	router.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), "contact_persistence_failures_total 1")
}

func TestContactTraceFailureNeverSurfaces(t *testing.T) {
	runner := &fakeRunner{answer: "Answer."}
	tracer := &fakeTracer{err: errdefs.RemoteService("record trace: 503 Service Unavailable")}
	metrics := observability.NewCollector()
	server := newTestServer(t, ServerConfig{Runner: runner, Traces: tracer, Metrics: metrics})
	router := server.Routes()

	recorder := postForm(router, validForm())
	require.Equal(t, http.StatusOK, recorder.Code)

	scrape := httptest.NewRecorder()
	router.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), "trace_record_failures_total 1")
}

func TestContactRejectsUnknownType(t *testing.T) {
	runner := &fakeRunner{answer: "ignored"}
	server := newTestServer(t, ServerConfig{Runner: runner})

	form := validForm()
	form.Set("contact_type", "Complaint")
	recorder := postForm(server.Routes(), form)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Zero(t, runner.calls, "invalid submissions must not reach the platform")
}

func TestContactSurfacesRemoteFailure(t *testing.T) {
	runner := &fakeRunner{err: errdefs.RemoteService("retrieve contexts: 503 Service Unavailable")}
	server := newTestServer(t, ServerConfig{Runner: runner})

	recorder := postForm(server.Routes(), validForm())

	require.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "could not reach the answer service")
	assert.NotContains(t, recorder.Body.String(), "503", "internal detail stays internal")
}

func TestAskAnswers(t *testing.T) {
	runner := &fakeRunner{answer: "Vision benefits cover annual exams."}
	server := newTestServer(t, ServerConfig{Runner: runner})

	body := strings.NewReader(`{"query": "What is covered under vision benefits?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ask", body)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Routes().ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var response struct {
		Answer       string `json:"answer"`
		PassageCount int    `json:"passage_count"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "Vision benefits cover annual exams.", response.Answer)
	assert.Equal(t, 1, response.PassageCount)
}

func TestAskRejectsWhitespaceQuery(t *testing.T) {
	runner := &fakeRunner{answer: "ignored"}
	server := newTestServer(t, ServerConfig{Runner: runner})

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"query": "   "}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	server.Routes().ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Please enter a question.")
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, ServerConfig{Runner: &fakeRunner{}, CorpusName: "demo-corpus"})
	recorder := httptest.NewRecorder()
	server.Routes().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "demo-corpus")
}

func TestNewServerRequiresRunner(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	require.Error(t, err)
	assert.True(t, errdefs.IsConfiguration(err))
}
