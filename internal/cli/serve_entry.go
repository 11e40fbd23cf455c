// internal/cli/serve_entry.go
package pythia

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/database"
	"github.com/mwiater/pythia/internal/observability"
	"github.com/mwiater/pythia/internal/platform"
	"github.com/mwiater/pythia/internal/query"
	"github.com/mwiater/pythia/internal/webform"
	"github.com/sirupsen/logrus"
)

func runServe(ctx context.Context, cfg *appconfig.Config, address, corpusConfigPath string) error {
	server, cleanup, err := buildServer(ctx, cfg, corpusConfigPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if strings.TrimSpace(address) == "" {
		address = cfg.ServeAddress()
	}
	return server.Run(address)
}

// buildServer wires the query runner, the contact queue, the trace client and
// the metrics collector into a web form server. The contact queue and the
// trace client stay off when unconfigured or unreachable; the form answers
// questions either way. The returned cleanup closes whatever got opened.
func buildServer(ctx context.Context, cfg *appconfig.Config, corpusConfigPath string) (*webform.Server, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is nil")
	}

	record, err := loadCorpusRecord(cfg, corpusConfigPath)
	if err != nil {
		return nil, nil, err
	}

	client, err := platform.New(*cfg)
	if err != nil {
		return nil, nil, err
	}
	runner, err := query.NewRunner(*cfg, record, client)
	if err != nil {
		return nil, nil, err
	}

	log := newComponentLogger(cfg)
	cleanup := func() {}

	var contacts webform.ContactStore
	if cfg.DatabaseEnabled() {
		pool, err := database.Connect(ctx, cfg.Database.URL, log)
		if err != nil {
			log.WithError(err).Warn("Contact queue unavailable; answering without persistence")
		} else {
			repo := database.NewContactRepository(pool, log)
			if err := repo.EnsureSchema(ctx); err != nil {
				log.WithError(err).Warn("Contact queue schema unavailable; answering without persistence")
				pool.Close()
			} else {
				contacts = repo
				cleanup = pool.Close
			}
		}
	}

	var traces webform.TraceRecorder
	if tc := observability.NewTraceClient(*cfg, log); tc != nil {
		traces = tc
	}

	server, err := webform.NewServer(webform.ServerConfig{
		Runner:     runner,
		Contacts:   contacts,
		Traces:     traces,
		Metrics:    observability.NewCollector(),
		Logger:     log,
		Model:      cfg.GenerationModel(),
		CorpusName: record.DisplayName,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	log.WithFields(logrus.Fields{
		"corpus":  record.CorpusResourceName,
		"queue":   contacts != nil,
		"tracing": traces != nil,
	}).Info("Web form ready")

	return server, cleanup, nil
}
