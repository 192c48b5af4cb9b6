// Package jobs contains background task processing built on Asynq.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// QueueDefault is the queue used for portal maintenance tasks.
const QueueDefault = "default"

// TaskGrantSweep purges soft-deleted grant rows past the retention window.
const TaskGrantSweep = "rbac:grant_sweep"

// GrantSweepPayload parameterizes one sweep run.
type GrantSweepPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewGrantSweepTask builds the sweep task with its JSON payload.
func NewGrantSweepTask(retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(GrantSweepPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGrantSweep, payload), nil
}
