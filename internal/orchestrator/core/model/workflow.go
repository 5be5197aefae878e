package model

import "time"

// WorkflowStatus is the aggregate state derived from constituent missions.
type WorkflowStatus string

const (
	WorkflowStatusCreated   WorkflowStatus = "created"
	WorkflowStatusActive    WorkflowStatus = "active"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusAborted   WorkflowStatus = "aborted"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

// Workflow is a named composite of missions. It stores only references;
// its status is derived on read from the missions' current statuses.
type Workflow struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MissionIDs []string  `json:"missionIDs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DeriveWorkflowStatus aggregates mission statuses:
// any failed mission fails the workflow; otherwise any aborted mission
// aborts it; otherwise any assigned/active mission makes it active; all
// completed completes it; anything else leaves it created.
func DeriveWorkflowStatus(statuses []MissionStatus) WorkflowStatus {
	if len(statuses) == 0 {
		return WorkflowStatusCreated
	}

	completed := 0
	active := false
	aborted := false

	for _, s := range statuses {
		switch s {
		case MissionStatusFailed:
			return WorkflowStatusFailed
		case MissionStatusAborted:
			aborted = true
		case MissionStatusAssigned, MissionStatusActive:
			active = true
		case MissionStatusCompleted:
			completed++
		}
	}

	switch {
	case aborted:
		return WorkflowStatusAborted
	case active:
		return WorkflowStatusActive
	case completed == len(statuses):
		return WorkflowStatusCompleted
	default:
		return WorkflowStatusCreated
	}
}
