// internal/query/query.go
// Package query answers questions against an existing corpus: it retrieves
// the closest passages from the managed platform, assembles a grounded
// prompt, and asks the hosted model for an answer.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/corpusconfig"
	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/mwiater/pythia/internal/platform"
)

// RetrievalGenerator is the slice of the platform client querying needs.
type RetrievalGenerator interface {
	RetrieveContexts(ctx context.Context, projectID, corpusName, query string, topK int, distanceThreshold float64) ([]platform.Passage, error)
	GenerateContent(ctx context.Context, projectID, model string, systemInstructions []string, prompt string) (string, error)
}

// Runner executes retrieval-augmented queries against one corpus.
type Runner struct {
	cfg      appconfig.Config
	corpus   corpusconfig.CorpusConfig
	platform RetrievalGenerator
}

// NewRunner builds a Runner for the corpus the record points at.
func NewRunner(cfg appconfig.Config, corpus corpusconfig.CorpusConfig, rg RetrievalGenerator) (*Runner, error) {
	if rg == nil {
		return nil, errdefs.Configuration("query runner needs a platform client")
	}
	if strings.TrimSpace(corpus.CorpusResourceName) == "" {
		return nil, errdefs.Configuration("corpus config has no resource name")
	}
	return &Runner{cfg: cfg, corpus: corpus, platform: rg}, nil
}

// Result carries the generated answer plus the passages that grounded it.
// FinalPrompt is the exact prompt the model saw, kept for the audit trail.
type Result struct {
	Answer      string
	Passages    []platform.Passage
	FinalPrompt string
	RetrievalMs int
}

// Answer validates the question, retrieves grounding passages, and generates
// an answer. A blank question fails before any remote call. Retrieval coming
// back empty is not an error; the model is asked anyway and will say it does
// not know.
func (r *Runner) Answer(ctx context.Context, question string) (Result, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return Result{}, errdefs.Validation("query must not be empty")
	}

	start := time.Now()
	passages, err := r.platform.RetrieveContexts(ctx, r.corpus.ProjectID, r.corpus.CorpusResourceName, trimmed, r.cfg.TopK(), r.cfg.VectorDistanceThreshold())
	if err != nil {
		return Result{}, err
	}
	retrievalMs := int(time.Since(start) / time.Millisecond)

	prompt := BuildPrompt(trimmed, passages)
	answer, err := r.platform.GenerateContent(ctx, r.corpus.ProjectID, r.cfg.GenerationModel(), SystemInstructions(), prompt)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Answer:      answer,
		Passages:    passages,
		FinalPrompt: prompt,
		RetrievalMs: retrievalMs,
	}, nil
}

// Corpus returns the record the runner was built from.
func (r *Runner) Corpus() corpusconfig.CorpusConfig {
	return r.corpus
}

// SystemInstructions returns the fixed behavioral instructions sent with
// every generation request.
func SystemInstructions() []string {
	return []string{
		"You are a customer service agent for a health insurance company. Answer member questions using only the provided context.",
		"If the context does not contain the answer, say that you do not know and suggest contacting the support team.",
	}
}

// BuildPrompt assembles the CONTEXT block and the question handed to the
// model. Passages keep their retrieval order and each block names its source.
func BuildPrompt(question string, passages []platform.Passage) string {
	var b strings.Builder
	b.WriteString("CONTEXT\n")
	n := 0
	for _, passage := range passages {
		text := strings.TrimSpace(passage.Text)
		if text == "" {
			continue
		}
		n++
		if source := strings.TrimSpace(passage.SourceURI); source != "" {
			b.WriteString(fmt.Sprintf("[%d] (source: %s) %s\n", n, source, text))
		} else {
			b.WriteString(fmt.Sprintf("[%d] %s\n", n, text))
		}
	}
	b.WriteString("\nQUESTION\n")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}
