package dashboard

import (
	"go-taskhub/internal/task"
	"go-taskhub/internal/user"
)

type TaskStats struct {
	Total        int64 `json:"total"`
	Todo         int64 `json:"todo"`
	InProgress   int64 `json:"in_progress"`
	Review       int64 `json:"review"`
	Completed    int64 `json:"completed"`
	HighPriority int64 `json:"high_priority"`
	Overdue      int64 `json:"overdue"`
}

type BossDashboardResponse struct {
	Stats       TaskStats           `json:"stats"`
	TeamMembers []user.UserResponse `json:"team_members"`
	RecentTasks []task.TaskResponse `json:"recent_tasks"`
	Overdue     []task.TaskResponse `json:"overdue_tasks"`
}

type EmployeeDashboardResponse struct {
	Stats           TaskStats           `json:"stats"`
	RecentCompleted []task.TaskResponse `json:"recent_completed"`
	Overdue         []task.TaskResponse `json:"overdue_tasks"`
}
