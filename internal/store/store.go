package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInvalidTransition = errors.New("invalid submission status transition")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetGatewayKeyByPrefix(ctx context.Context, prefix string) ([]*models.GatewayKey, error)
	UpdateGatewayKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateGatewayKey(ctx context.Context, key *models.GatewayKey) error
	ListGatewayKeys(ctx context.Context) ([]*models.GatewayKey, error)
	RevokeGatewayKey(ctx context.Context, id uuid.UUID) error

	CreateSubmission(ctx context.Context, sub *models.Submission) error
	GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	GetSubmissionByStatusURL(ctx context.Context, statusURL string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*models.Submission, int, error)
	UpdateSubmissionStatus(ctx context.Context, id uuid.UUID, status models.JobStatus, opts ...SubmissionUpdateOption) error
}

type SubmissionFilter struct {
	TaskType    string
	Status      models.JobStatus
	SubmittedBy *uuid.UUID
	Page        int
	Limit       int
}

type submissionUpdateParams struct {
	RemoteID     *string
	Result       json.RawMessage
	ErrorMessage *string
}

type SubmissionUpdateOption func(*submissionUpdateParams)

// WithResult stores the verbatim result payload of a successful job.
func WithResult(result json.RawMessage) SubmissionUpdateOption {
	return func(p *submissionUpdateParams) {
		p.Result = result
	}
}

func WithRemoteID(id string) SubmissionUpdateOption {
	return func(p *submissionUpdateParams) {
		p.RemoteID = &id
	}
}

func WithErrorMessage(msg string) SubmissionUpdateOption {
	return func(p *submissionUpdateParams) {
		p.ErrorMessage = &msg
	}
}

var validTransitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusNew:     {models.JobStatusPending, models.JobStatusSuccess, models.JobStatusFailed},
	models.JobStatusPending: {models.JobStatusPending, models.JobStatusSuccess, models.JobStatusFailed},
}

// CanTransition reports whether a ledger row may move from one status to another.
// Terminal rows are never rewritten.
func CanTransition(from, to models.JobStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
