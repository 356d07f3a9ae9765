// Package models contains the data types shared by the client, the gateway and the CLI.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
)

// JobStatus is the remote status of a dispatched job.
type JobStatus string

const (
	JobStatusNew     JobStatus = "new"
	JobStatusPending JobStatus = "pending"
	JobStatusFailed  JobStatus = "failed"
	JobStatusSuccess JobStatus = "success"
)

// IsTerminal reports whether polling can stop at this status.
// Anything other than failed or success, including unknown values, is non-terminal.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusFailed || s == JobStatusSuccess
}

// JobHandle is the status URL returned by a submission. The client only ever
// polls it; it never builds or edits one.
type JobHandle string

func (h JobHandle) String() string { return string(h) }

// ErrNoResult is returned by DecodeResult when the record carries no result.
var ErrNoResult = errors.New("job record has no result")

// JobRecord is the client-side view of a remote job, built from the last
// status response observed while polling.
//
// Result holds the verbatim "result" payload and is only set when Status is
// success. A record whose Status is still new or pending means the poller gave
// up before the job finished; the same handle can be polled again.
type JobRecord struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Status JobStatus       `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// HasResult reports whether the record carries a result payload.
func (r *JobRecord) HasResult() bool {
	return len(r.Result) > 0 && !bytes.Equal(r.Result, []byte("null"))
}

// ResultJSON returns the result as indented JSON, or "" when there is none.
func (r *JobRecord) ResultJSON() string {
	if !r.HasResult() {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Result, "", "  "); err != nil {
		return string(r.Result)
	}
	return buf.String()
}

// DecodeResult unmarshals the result payload into v.
func (r *JobRecord) DecodeResult(v any) error {
	if !r.HasResult() {
		return ErrNoResult
	}
	return json.Unmarshal(r.Result, v)
}
