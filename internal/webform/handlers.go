// internal/webform/handlers.go
package webform

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mwiater/pythia/internal/database"
	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/mwiater/pythia/internal/observability"
	"github.com/mwiater/pythia/internal/query"
)

// ContactRequest is one form submission.
type ContactRequest struct {
	FirstName   string `form:"first_name" json:"first_name" binding:"required"`
	LastName    string `form:"last_name" json:"last_name" binding:"required"`
	Email       string `form:"email" json:"email" binding:"required,email"`
	DateOfBirth string `form:"date_of_birth" json:"date_of_birth"`
	ContactType string `form:"contact_type" json:"contact_type" binding:"required"`
	Question    string `form:"question" json:"question" binding:"required"`
}

// AskRequest is one bare question for the JSON API.
type AskRequest struct {
	Query string `json:"query" binding:"required"`
}

// serveForm renders the empty contact form.
// GET /
func (s *Server) serveForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form", formData{ContactTypes: database.ContactTypes})
}

// handleContact answers a submission synchronously, then queues it and ships
// a trace. Queue and trace failures are logged and counted, never surfaced.
// POST /contact
func (s *Server) handleContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBind(&req); err != nil {
		s.renderForm(c, http.StatusBadRequest, req, "", err.Error())
		return
	}
	if !database.ValidContactType(req.ContactType) {
		s.renderForm(c, http.StatusBadRequest, req, "", "Please pick one of the offered request types.")
		return
	}

	start := time.Now()
	result, err := s.runner.Answer(c.Request.Context(), req.Question)
	if err != nil {
		s.logger.WithError(err).Warn("Contact question failed")
		s.renderForm(c, statusFor(err), req, "", userMessage(err))
		return
	}
	totalMs := int(time.Since(start) / time.Millisecond)
	if s.model != "" {
		s.metrics.QueryLatency.WithLabelValues(s.model).Observe(time.Since(start).Seconds())
	}

	s.queueContact(c, req, result)
	s.recordTrace(c, strings.TrimSpace(req.Question), result.Answer, len(result.Passages), result.RetrievalMs, totalMs)

	s.renderForm(c, http.StatusOK, req, result.Answer, "")
}

// handleAsk answers a bare question without touching the queue.
// POST /api/ask
func (s *Server) handleAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := s.runner.Answer(c.Request.Context(), req.Query)
	if err != nil {
		s.logger.WithError(err).Warn("Ask failed")
		c.JSON(statusFor(err), gin.H{"error": userMessage(err)})
		return
	}
	totalMs := int(time.Since(start) / time.Millisecond)
	if s.model != "" {
		s.metrics.QueryLatency.WithLabelValues(s.model).Observe(time.Since(start).Seconds())
	}

	s.recordTrace(c, strings.TrimSpace(req.Query), result.Answer, len(result.Passages), result.RetrievalMs, totalMs)

	c.JSON(http.StatusOK, gin.H{
		"query":         strings.TrimSpace(req.Query),
		"answer":        result.Answer,
		"passage_count": len(result.Passages),
		"retrieval_ms":  result.RetrievalMs,
	})
}

// queueContact writes the submission to the contact queue when one is
// configured. The member already has their answer; a queue failure stays on
// our side of the fence.
func (s *Server) queueContact(c *gin.Context, req ContactRequest, result query.Result) {
	if s.contacts == nil {
		return
	}

	payload, _ := json.Marshal(req)
	contact := &database.Contact{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		ContactType: req.ContactType,
		Question:    strings.TrimSpace(req.Question),
		Answer:      result.Answer,
		FinalPrompt: result.FinalPrompt,
		Payload:     payload,
	}
	if err := s.contacts.Create(c.Request.Context(), contact); err != nil {
		s.metrics.PersistenceFailures.Inc()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"email":        req.Email,
			"contact_type": req.ContactType,
		}).Error("Failed to queue contact")
	}
}

// recordTrace ships the exchange to the trace service when one is configured.
func (s *Server) recordTrace(c *gin.Context, question, answer string, passages, retrievalMs, totalMs int) {
	if s.traces == nil {
		return
	}
	err := s.traces.Record(c.Request.Context(), observability.Trace{
		Query:        question,
		Answer:       answer,
		PassageCount: passages,
		RetrievalMs:  retrievalMs,
		TotalMs:      totalMs,
	})
	if err != nil {
		s.metrics.TraceFailures.Inc()
		s.logger.WithError(err).Warn("Failed to record trace")
	}
}

func (s *Server) renderForm(c *gin.Context, status int, req ContactRequest, answer, errMsg string) {
	c.HTML(status, "form", formData{
		ContactTypes: database.ContactTypes,
		Request:      req,
		Answer:       answer,
		Error:        errMsg,
		Submitted:    answer != "" || errMsg != "",
	})
}

// statusFor maps classified errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errdefs.IsValidation(err):
		return http.StatusBadRequest
	case errdefs.IsAuthentication(err), errdefs.IsRemoteService(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage keeps internal detail out of member-facing errors.
func userMessage(err error) string {
	switch {
	case errdefs.IsValidation(err):
		return "Please enter a question."
	case errdefs.IsAuthentication(err), errdefs.IsRemoteService(err):
		return "We could not reach the answer service. Please try again in a moment."
	default:
		return "Something went wrong on our side. Please try again."
	}
}
