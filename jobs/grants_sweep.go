package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// GrantArchive purges grant rows revoked before a cutoff. Implemented by the
// rbac grant store.
type GrantArchive interface {
	PurgeRevokedGrants(ctx context.Context, cutoff time.Time) (direct, role int64, err error)
}

// GrantSweepJob hard-deletes grant rows that were revoked long enough ago.
// Revocation only soft-deletes so the audit trail can reference the row; the
// sweep is what eventually reclaims the space. The retention window is
// measured from the revocation timestamp, not the grant's creation time.
type GrantSweepJob struct {
	archive          GrantArchive
	logger           *slog.Logger
	defaultRetention time.Duration
}

// NewGrantSweepJob builds GrantSweepJob instance.
func NewGrantSweepJob(archive GrantArchive, logger *slog.Logger, defaultRetention time.Duration) *GrantSweepJob {
	if defaultRetention <= 0 {
		defaultRetention = 30 * 24 * time.Hour
	}
	return &GrantSweepJob{archive: archive, logger: logger, defaultRetention: defaultRetention}
}

// Handle processes one sweep task.
func (j *GrantSweepJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload GrantSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.defaultRetention
	}
	cutoff := time.Now().UTC().Add(-retention)

	direct, role, err := j.archive.PurgeRevokedGrants(ctx, cutoff)
	if err != nil {
		return err
	}

	j.logger.Info("grant sweep complete",
		slog.Int64("direct_grants_purged", direct),
		slog.Int64("role_grants_purged", role),
		slog.Time("cutoff", cutoff))
	return nil
}
