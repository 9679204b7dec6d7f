package database

import (
	"context"
	"database/sql"

	"github.com/mbolis/quick-forms/log"
	"github.com/robfig/cron/v3"
)

// StartTokenReaper schedules the removal of expired refresh tokens. The
// returned cron must be stopped on shutdown.
func StartTokenReaper(db *sql.DB, schedule string) (*cron.Cron, error) {
	logger := cron.VerbosePrintfLogger(log.Logger)
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(schedule, func() {
		reapTokens(context.Background(), db)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}

func reapTokens(ctx context.Context, db *sql.DB) {
	n, err := DeleteExpiredTokens(ctx, db, now())
	if err != nil {
		log.Errorf("db.reap_tokens: %s", err)
		return
	}
	if n > 0 {
		log.WithFields(map[string]any{"removed": n}).Debug("db.reap_tokens")
	}
}
