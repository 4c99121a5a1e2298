package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-crm/meridian-crm/internal/jobs"
)

// SessionPurger deletes session audit rows whose tokens already expired.
// Satisfied by the auth service.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// NewSessionPurgeHandler builds the handler for TaskTypeSessionPurge.
func NewSessionPurgeHandler(purger SessionPurger, logger *slog.Logger) asynq.HandlerFunc {
	metrics := jobmetrics.NewMetrics(nil)
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("session_purge")
		removed, err := purger.PurgeExpiredSessions(ctx)
		if err != nil {
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("expired sessions purged", slog.Int64("removed", removed))
		}
		return tracker.End(nil)
	}
}
