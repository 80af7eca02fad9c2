package models

// JobStatus represents the lifecycle of a background import job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// String implements fmt.Stringer for logging
func (s JobStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsTerminal reports whether the job can no longer change state
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// SyncAction is what a directory sync did with one file
type SyncAction string

const (
	SyncActionCreated   SyncAction = "created"
	SyncActionUpdated   SyncAction = "updated"
	SyncActionUnchanged SyncAction = "unchanged"
	SyncActionDeleted   SyncAction = "deleted"
	SyncActionFailed    SyncAction = "failed"
)
