package models

import "time"

// Outcome names the path that produced a classification result.
type Outcome string

const (
	OutcomeRemote    Outcome = "remote"
	OutcomeHeuristic Outcome = "heuristic"
	OutcomeDefault   Outcome = "default"
)

// JobStatus is the lifecycle state of an asynchronous classification job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is the transient state of an asynchronous classification request.
type Job struct {
	ID           string        `json:"jobId"`
	Status       JobStatus     `json:"status"`
	Filename     string        `json:"filename"`
	FileType     FileType      `json:"fileType"`
	Outcome      Outcome       `json:"outcome,omitempty"`
	Error        string        `json:"error,omitempty"`
	Requirements []Requirement `json:"requirements,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}
