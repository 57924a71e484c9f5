package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadInitialTouch = "leads.initial_touch"

type InitialTouchPayload struct {
	LeadID   string `json:"leadId"`
	TenantID string `json:"tenantId"`
}

func NewInitialTouchTask(payload InitialTouchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadInitialTouch, data), nil
}

func ParseInitialTouchPayload(task *asynq.Task) (InitialTouchPayload, error) {
	var payload InitialTouchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return InitialTouchPayload{}, err
	}
	return payload, nil
}
