package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/sharpjobs/internal/api/middleware"
	"github.com/kiranshivaraju/sharpjobs/internal/api/response"
	"github.com/kiranshivaraju/sharpjobs/internal/poller"
	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/internal/store"
	"github.com/kiranshivaraju/sharpjobs/internal/tasks"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

const maxUploadBytes = 32 << 20

// JobService is the part of jobs.Service the job endpoints use.
type JobService interface {
	Submit(ctx context.Context, req tasks.Request, submittedBy *uuid.UUID) (*models.Submission, error)
	AwaitCompletion(ctx context.Context, handle models.JobHandle, policy poller.Policy) (*models.JobRecord, error)
	Policy() poller.Policy
}

// SubmissionReader reads the submission ledger.
type SubmissionReader interface {
	GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error)
	ListSubmissions(ctx context.Context, filter store.SubmissionFilter) ([]*models.Submission, int, error)
}

type jobResponse struct {
	ID          uuid.UUID        `json:"id"`
	TaskType    string           `json:"task_type"`
	StatusURL   string           `json:"status_url"`
	Status      models.JobStatus `json:"status"`
	RemoteID    string           `json:"remote_id,omitempty"`
	Result      json.RawMessage  `json:"result,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

func newJobResponse(sub *models.Submission, rec *models.JobRecord) jobResponse {
	out := jobResponse{
		ID:          sub.ID,
		TaskType:    sub.TaskType,
		StatusURL:   sub.StatusURL,
		Status:      rec.Status,
		RemoteID:    rec.ID,
		SubmittedAt: sub.SubmittedAt,
		CompletedAt: sub.CompletedAt,
	}
	if rec.HasResult() {
		out.Result = rec.Result
	}
	return out
}

// NewSubmitJobHandler returns POST /api/v1/tasks/{taskType}. The body is a JSON
// object of task fields, or a multipart form carrying the upload under "file"
// and the fields as form values.
func NewSubmitJobHandler(svc JobService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskType, err := tasks.ParseType(chi.URLParam(r, "taskType"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		req := tasks.Request{Type: taskType}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid multipart body", nil)
				return
			}
			params := make(map[string]any, len(r.MultipartForm.Value))
			for k, v := range r.MultipartForm.Value {
				if len(v) > 0 {
					params[k] = v[0]
				}
			}
			req.Params = params

			if f, hdr, err := r.FormFile("file"); err == nil {
				defer f.Close()
				req.File = &sharpapi.File{Name: hdr.Filename, Reader: f}
			}
		} else {
			params := map[string]any{}
			if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
				return
			}
			req.Params = params
		}

		var submittedBy *uuid.UUID
		if id, ok := mw.GetKeyID(r); ok {
			submittedBy = &id
		}

		sub, err := svc.Submit(r.Context(), req, submittedBy)
		if err != nil {
			writeError(w, r, err)
			return
		}

		response.Accepted(w, map[string]any{
			"id":         sub.ID,
			"task_type":  sub.TaskType,
			"status_url": sub.StatusURL,
			"status":     sub.Status,
		})
	}
}

// NewGetJobHandler returns GET /api/v1/jobs/{jobID}. A finished submission is
// answered from the ledger; otherwise the job is polled with the service
// policy. The max_wait query parameter (seconds) can shorten the wait.
// Submissions made with another key are answered with 404.
func NewGetJobHandler(svc JobService, ledger SubmissionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a UUID", nil)
			return
		}

		policy := svc.Policy()
		if v := r.URL.Query().Get("max_wait"); v != "" {
			secs, err := strconv.Atoi(v)
			if err != nil || secs < 0 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"max_wait must be a non-negative number of seconds", nil)
				return
			}
			if d := time.Duration(secs) * time.Second; d < policy.MaxWait {
				policy.MaxWait = d
			}
		}

		sub, err := ledger.GetSubmission(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ownedBy(sub, r) {
			writeError(w, r, store.ErrNotFound)
			return
		}

		if sub.Status.IsTerminal() {
			response.JSON(w, newJobResponse(sub, sub.Record()))
			return
		}

		rec, err := svc.AwaitCompletion(r.Context(), models.JobHandle(sub.StatusURL), policy)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if rec.Status.IsTerminal() && sub.CompletedAt == nil {
			now := time.Now().UTC()
			sub.CompletedAt = &now
		}
		response.JSON(w, newJobResponse(sub, rec))
	}
}

// ownedBy reports whether the calling key may read sub. Other keys' submissions
// are reported as missing.
func ownedBy(sub *models.Submission, r *http.Request) bool {
	id, ok := mw.GetKeyID(r)
	if !ok {
		return true
	}
	return sub.SubmittedBy != nil && *sub.SubmittedBy == id
}

// NewListJobsHandler returns GET /api/v1/jobs. Callers only see their own
// submissions.
func NewListJobsHandler(ledger SubmissionReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page, err := queryInt(q.Get("page"), 1)
		if err != nil || page < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
			return
		}
		limit, err := queryInt(q.Get("limit"), 20)
		if err != nil || limit < 1 || limit > 100 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 100", nil)
			return
		}

		filter := store.SubmissionFilter{
			TaskType: q.Get("task_type"),
			Status:   models.JobStatus(q.Get("status")),
			Page:     page,
			Limit:    limit,
		}
		if filter.TaskType != "" {
			if _, err := tasks.ParseType(filter.TaskType); err != nil {
				writeError(w, r, err)
				return
			}
		}
		if id, ok := mw.GetKeyID(r); ok {
			filter.SubmittedBy = &id
		}

		subs, total, err := ledger.ListSubmissions(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}

		items := make([]jobResponse, 0, len(subs))
		for _, sub := range subs {
			items = append(items, newJobResponse(sub, sub.Record()))
		}
		response.Collection(w, items, response.NewPaginationMeta(page, limit, total))
	}
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
