// Package jobs is the submit and await pipeline between callers and the
// SharpAPI dispatcher. It optionally mirrors submissions into a ledger and
// caches finished records.
package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/sharpjobs/internal/cache"
	"github.com/kiranshivaraju/sharpjobs/internal/poller"
	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/internal/store"
	"github.com/kiranshivaraju/sharpjobs/internal/tasks"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

// RecordTTL is how long finished job records stay cached.
const RecordTTL = 30 * time.Minute

var (
	ErrMissingStatusURL = errors.New("submission response has no status_url")
	ErrNoLedger         = errors.New("jobs: no submission ledger configured")
)

// Service submits tasks and waits for their results. It is safe for
// concurrent use.
type Service struct {
	client  sharpapi.Client
	ledger  store.Store
	cache   cache.Cache
	policy  poller.Policy
	sleeper poller.Sleeper
	logger  *slog.Logger
	poller  *poller.Poller
}

// Option configures a Service.
type Option func(*Service)

// WithLedger records every submission in st.
func WithLedger(st store.Store) Option {
	return func(s *Service) { s.ledger = st }
}

// WithCache caches terminal job records in c.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithPolicy sets the polling policy used by Await and Run.
func WithPolicy(p poller.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithSleeper replaces the wall-clock wait between polls.
func WithSleeper(sl poller.Sleeper) Option {
	return func(s *Service) { s.sleeper = sl }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service on top of client.
func NewService(client sharpapi.Client, opts ...Option) *Service {
	s := &Service{
		client: client,
		policy: poller.DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	popts := []poller.Option{poller.WithLogger(s.logger)}
	if s.sleeper != nil {
		popts = append(popts, poller.WithSleeper(s.sleeper))
	}
	s.poller = poller.New(client, popts...)
	return s
}

// Policy returns the service's default polling policy.
func (s *Service) Policy() poller.Policy {
	return s.policy
}

// SubmitJob validates and dispatches req and returns the job's status handle.
// When a ledger is configured the submission is recorded; a ledger failure is
// logged and does not fail the call.
func (s *Service) SubmitJob(ctx context.Context, req tasks.Request) (models.JobHandle, error) {
	handle, err := s.dispatch(ctx, req)
	if err != nil {
		return "", err
	}

	if s.ledger != nil {
		if _, err := s.record(ctx, req.Type, handle, nil); err != nil {
			s.logger.Warn("failed to record submission",
				"task", req.Type.String(),
				"handle", handle.String(),
				"error", err,
			)
		}
	}
	return handle, nil
}

// Submit dispatches req and records it in the ledger on behalf of
// submittedBy. Unlike SubmitJob it requires a ledger and fails when the row
// cannot be written.
func (s *Service) Submit(ctx context.Context, req tasks.Request, submittedBy *uuid.UUID) (*models.Submission, error) {
	if s.ledger == nil {
		return nil, ErrNoLedger
	}
	handle, err := s.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	sub, err := s.record(ctx, req.Type, handle, submittedBy)
	if err != nil {
		return nil, fmt.Errorf("record submission: %w", err)
	}
	return sub, nil
}

func (s *Service) dispatch(ctx context.Context, req tasks.Request) (models.JobHandle, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	spec, err := req.Spec()
	if err != nil {
		return "", err
	}

	resp, err := s.client.Post(ctx, spec.Path, req.Params, req.File)
	if err != nil {
		return "", err
	}
	statusURL, err := resp.StatusURL()
	if err != nil {
		return "", err
	}
	if statusURL == "" {
		return "", ErrMissingStatusURL
	}

	s.logger.Info("job submitted", "task", req.Type.String(), "handle", statusURL)
	return models.JobHandle(statusURL), nil
}

func (s *Service) record(ctx context.Context, t tasks.Type, handle models.JobHandle, submittedBy *uuid.UUID) (*models.Submission, error) {
	now := time.Now().UTC()
	sub := &models.Submission{
		ID:          uuid.New(),
		TaskType:    t.String(),
		StatusURL:   handle.String(),
		Status:      models.JobStatusNew,
		SubmittedBy: submittedBy,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := s.ledger.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// AwaitCompletion polls handle under policy. A cached terminal record is
// returned without contacting the remote service. Terminal records are
// cached and every observed status is mirrored into the ledger.
func (s *Service) AwaitCompletion(ctx context.Context, handle models.JobHandle, policy poller.Policy) (*models.JobRecord, error) {
	if rec, ok := s.cachedRecord(ctx, handle); ok {
		return rec, nil
	}

	rec, err := s.poller.AwaitCompletion(ctx, handle, policy)
	if err != nil {
		return nil, err
	}

	if rec.Status.IsTerminal() && s.cache != nil {
		if err := s.cache.SetJobRecord(ctx, handle, rec, RecordTTL); err != nil {
			s.logger.Warn("failed to cache job record", "handle", handle.String(), "error", err)
		}
	}
	s.syncLedger(ctx, handle, rec)
	return rec, nil
}

// Await polls handle with the service policy.
func (s *Service) Await(ctx context.Context, handle models.JobHandle) (*models.JobRecord, error) {
	return s.AwaitCompletion(ctx, handle, s.policy)
}

// Run submits req and waits for it with the service policy.
func (s *Service) Run(ctx context.Context, req tasks.Request) (*models.JobRecord, error) {
	handle, err := s.SubmitJob(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Await(ctx, handle)
}

func (s *Service) cachedRecord(ctx context.Context, handle models.JobHandle) (*models.JobRecord, bool) {
	if s.cache == nil {
		return nil, false
	}
	rec, found, err := s.cache.GetJobRecord(ctx, handle)
	if err != nil {
		s.logger.Warn("job record cache read failed", "handle", handle.String(), "error", err)
		return nil, false
	}
	if !found || !rec.Status.IsTerminal() {
		return nil, false
	}
	return rec, true
}

func (s *Service) syncLedger(ctx context.Context, handle models.JobHandle, rec *models.JobRecord) {
	if s.ledger == nil {
		return
	}
	sub, err := s.ledger.GetSubmissionByStatusURL(ctx, handle.String())
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("ledger lookup failed", "handle", handle.String(), "error", err)
		return
	}
	if !store.CanTransition(sub.Status, rec.Status) {
		return
	}

	var opts []store.SubmissionUpdateOption
	if rec.ID != "" {
		opts = append(opts, store.WithRemoteID(rec.ID))
	}
	if rec.HasResult() {
		opts = append(opts, store.WithResult(rec.Result))
	}
	if rec.Status == models.JobStatusFailed {
		opts = append(opts, store.WithErrorMessage("remote job failed"))
	}
	if err := s.ledger.UpdateSubmissionStatus(ctx, sub.ID, rec.Status, opts...); err != nil && !errors.Is(err, store.ErrInvalidTransition) {
		s.logger.Warn("ledger update failed", "submission_id", sub.ID, "error", err)
	}
}

// Ping checks that the remote service answers.
func (s *Service) Ping(ctx context.Context) (*models.PingResponse, error) {
	resp, err := s.client.Get(ctx, "/ping", nil)
	if err != nil {
		return nil, err
	}
	var ping models.PingResponse
	if err := resp.Decode(&ping); err != nil {
		return nil, err
	}
	return &ping, nil
}

// Quota returns the subscription usage snapshot. A response without a
// timestamp yields nil and no error.
func (s *Service) Quota(ctx context.Context) (*models.SubscriptionInfo, error) {
	resp, err := s.client.Get(ctx, "/quota", nil)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := resp.Decode(&probe); err != nil {
		return nil, err
	}
	if isBlank(probe.Timestamp) {
		return nil, nil
	}

	var info models.SubscriptionInfo
	if err := resp.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func isBlank(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}
