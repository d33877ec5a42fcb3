package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup pre-populates the payload cache for every tenant user.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskDashboardInvalidate bumps the payload cache version.
	TaskDashboardInvalidate = "dashboard:invalidate"
)

// DefaultWarmupWindows are the range lengths, in days, warmed when a payload names none.
var DefaultWarmupWindows = []int{7, 30, 90}

// DashboardWarmupPayload selects what the warmup job loads.
type DashboardWarmupPayload struct {
	Windows []int  `json:"windows,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// NewDashboardWarmupTask constructs a warmup task. A blank userID warms every user.
func NewDashboardWarmupTask(userID string, windows ...int) (*asynq.Task, error) {
	data, err := json.Marshal(DashboardWarmupPayload{Windows: windows, UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// NewDashboardInvalidateTask constructs a cache invalidation task.
func NewDashboardInvalidateTask() *asynq.Task {
	return asynq.NewTask(TaskDashboardInvalidate, nil)
}
