// internal/webform/server.go
// Package webform serves the member-facing contact form: one page that takes
// a question plus contact details, answers it synchronously through the
// corpus, and queues the submission for the helpdesk. Queueing and tracing
// are best-effort; only the answer path can fail a request.
package webform

import (
	"context"
	"html/template"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mwiater/pythia/internal/database"
	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/mwiater/pythia/internal/observability"
	"github.com/mwiater/pythia/internal/query"
)

// Answerer is the slice of the query runner the form needs.
type Answerer interface {
	Answer(ctx context.Context, question string) (query.Result, error)
}

// ContactStore is the slice of the contact repository the form needs.
type ContactStore interface {
	Create(ctx context.Context, contact *database.Contact) error
}

// TraceRecorder ships one question/answer trace.
type TraceRecorder interface {
	Record(ctx context.Context, trace observability.Trace) error
}

// ServerConfig configures the web form server.
type ServerConfig struct {
	Runner     Answerer
	Contacts   ContactStore  // nil disables queueing
	Traces     TraceRecorder // nil disables tracing
	Metrics    *observability.Collector
	Logger     *logrus.Logger
	Model      string
	CorpusName string
}

// Server hosts the contact form endpoints.
type Server struct {
	runner     Answerer
	contacts   ContactStore
	traces     TraceRecorder
	metrics    *observability.Collector
	logger     *logrus.Logger
	model      string
	corpusName string
	templates  *template.Template
}

// NewServer creates a web form server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Runner == nil {
		return nil, errdefs.Configuration("web form needs a query runner")
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.Metrics == nil {
		config.Metrics = observability.NewCollector()
	}

	return &Server{
		runner:     config.Runner,
		contacts:   config.Contacts,
		traces:     config.Traces,
		metrics:    config.Metrics,
		logger:     config.Logger,
		model:      config.Model,
		corpusName: config.CorpusName,
		templates:  template.Must(template.New("form").Parse(formHTML)),
	}, nil
}

// Routes builds the gin engine with all endpoints attached.
func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.observe)
	router.SetHTMLTemplate(s.templates)

	router.GET("/", s.serveForm)
	router.POST("/contact", s.handleContact)
	router.POST("/api/ask", s.handleAsk)
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return router
}

// Run serves the form until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.WithField("address", addr).Info("Contact form listening")
	return s.Routes().Run(addr)
}

// observe times every request and feeds the Prometheus collector.
func (s *Server) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	endpoint := c.FullPath()
	if endpoint == "" {
		endpoint = c.Request.URL.Path
	}
	status := strconv.Itoa(c.Writer.Status())
	s.metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint, status).Observe(time.Since(start).Seconds())
	s.metrics.RequestCount.WithLabelValues(c.Request.Method, endpoint, status).Inc()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status": "healthy",
		"corpus": s.corpusName,
	})
}
