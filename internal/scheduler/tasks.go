// Package scheduler runs the periodic jobs: the twice-daily action digests
// and the per-minute reminder scan.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskMorningDigest = "digests.morning"

const TaskEveningDigest = "digests.evening"

const TaskReminderScan = "reminders.scan"

// DigestPayload names the slot so one handler serves both entries.
// Slot "morning" covers the current day, "evening" the next.
type DigestPayload struct {
	Slot string `json:"slot"`
}

func NewDigestTask(taskType string, payload DigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}

func ParseDigestPayload(task *asynq.Task) (DigestPayload, error) {
	var payload DigestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DigestPayload{}, err
	}
	return payload, nil
}

func NewReminderScanTask() *asynq.Task {
	return asynq.NewTask(TaskReminderScan, nil)
}
