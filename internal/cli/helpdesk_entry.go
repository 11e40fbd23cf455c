// internal/cli/helpdesk_entry.go
package pythia

import (
	"context"
	"fmt"

	"github.com/mwiater/pythia/internal/appconfig"
	"github.com/mwiater/pythia/internal/database"
	"github.com/mwiater/pythia/internal/errdefs"
	"github.com/mwiater/pythia/internal/helpdesk"
	"github.com/mwiater/pythia/internal/mailer"
	"github.com/mwiater/pythia/internal/platform"
	"github.com/mwiater/pythia/internal/query"
)

var (
	connectQueue  = database.Connect
	startHelpdesk = helpdesk.Start
)

func runHelpdesk(ctx context.Context, cfg *appconfig.Config, corpusConfigPath string) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if !cfg.DatabaseEnabled() {
		return errdefs.Configuration("helpdesk needs a contact queue; configure a database url")
	}

	log := newComponentLogger(cfg)
	pool, err := connectQueue(ctx, cfg.Database.URL, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}
	queue := database.NewContactRepository(pool, log)

	record, err := loadCorpusRecord(cfg, corpusConfigPath)
	if err != nil {
		return err
	}
	client, err := platform.New(*cfg)
	if err != nil {
		return err
	}
	runner, err := query.NewRunner(*cfg, record, client)
	if err != nil {
		return err
	}

	var notices helpdesk.NoticeSender
	if mc := mailer.NewClient(*cfg, log); mc != nil {
		notices = mc
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return startHelpdesk(ctx, queue, runner, notices)
}
