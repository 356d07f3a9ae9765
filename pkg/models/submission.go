package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Submission is a ledger entry for a job dispatched through the gateway or
// the jobs service. The remote service owns the job; this row only mirrors
// what the client has observed.
type Submission struct {
	ID           uuid.UUID       `db:"id"            json:"id"`
	TaskType     string          `db:"task_type"     json:"task_type"`
	StatusURL    string          `db:"status_url"    json:"status_url"`
	Status       JobStatus       `db:"status"        json:"status"`
	RemoteID     *string         `db:"remote_id"     json:"remote_id,omitempty"`
	Result       json.RawMessage `db:"result"        json:"result,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	SubmittedBy  *uuid.UUID      `db:"submitted_by"  json:"submitted_by,omitempty"`
	SubmittedAt  time.Time       `db:"submitted_at"  json:"submitted_at"`
	CompletedAt  *time.Time      `db:"completed_at"  json:"completed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at"    json:"updated_at"`
}

// Record converts the ledger row into a JobRecord.
func (s *Submission) Record() *JobRecord {
	rec := &JobRecord{Type: s.TaskType, Status: s.Status}
	if s.RemoteID != nil {
		rec.ID = *s.RemoteID
	}
	if s.Status == JobStatusSuccess {
		rec.Result = s.Result
	}
	return rec
}
