package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDistributionPass = "distribution.pass"

type DistributionPassPayload struct {
	StaleWindowDays int    `json:"staleWindowDays"`
	TriggeredBy     string `json:"triggeredBy"`
}

func NewDistributionPassTask(payload DistributionPassPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistributionPass, data), nil
}

func ParseDistributionPassPayload(task *asynq.Task) (DistributionPassPayload, error) {
	var payload DistributionPassPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DistributionPassPayload{}, err
	}
	return payload, nil
}
