package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/sharpjobs/internal/api/middleware"
	"github.com/kiranshivaraju/sharpjobs/internal/jobs"
	"github.com/kiranshivaraju/sharpjobs/internal/poller"
	"github.com/kiranshivaraju/sharpjobs/internal/sharpapi"
	"github.com/kiranshivaraju/sharpjobs/internal/store"
	"github.com/kiranshivaraju/sharpjobs/internal/tasks"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const statusURL = "https://sharpapi.com/api/v1/content/summarize/job/status/5de4887a"

// --- mocks ---

type mockJobService struct {
	submitFn func(ctx context.Context, req tasks.Request, by *uuid.UUID) (*models.Submission, error)
	awaitFn  func(ctx context.Context, handle models.JobHandle, policy poller.Policy) (*models.JobRecord, error)
	policy   poller.Policy

	gotReq    tasks.Request
	gotFile   string
	gotPolicy poller.Policy
	awaited   bool
}

func (m *mockJobService) Submit(ctx context.Context, req tasks.Request, by *uuid.UUID) (*models.Submission, error) {
	m.gotReq = req
	if req.File != nil {
		b, _ := io.ReadAll(req.File.Reader)
		m.gotFile = string(b)
	}
	return m.submitFn(ctx, req, by)
}

func (m *mockJobService) AwaitCompletion(ctx context.Context, handle models.JobHandle, policy poller.Policy) (*models.JobRecord, error) {
	m.awaited = true
	m.gotPolicy = policy
	return m.awaitFn(ctx, handle, policy)
}

func (m *mockJobService) Policy() poller.Policy { return m.policy }

type mockLedger struct {
	subs      map[uuid.UUID]*models.Submission
	list      []*models.Submission
	total     int
	listErr   error
	gotFilter store.SubmissionFilter
}

func (m *mockLedger) GetSubmission(_ context.Context, id uuid.UUID) (*models.Submission, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return sub, nil
}

func (m *mockLedger) ListSubmissions(_ context.Context, f store.SubmissionFilter) ([]*models.Submission, int, error) {
	m.gotFilter = f
	return m.list, m.total, m.listErr
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(context.Context) error { return m.err }

type mockRemote struct {
	ping       *models.PingResponse
	quota      *models.SubscriptionInfo
	err        error
	quotaCalls int
}

func (m *mockRemote) Ping(context.Context) (*models.PingResponse, error) { return m.ping, m.err }

func (m *mockRemote) Quota(context.Context) (*models.SubscriptionInfo, error) {
	m.quotaCalls++
	return m.quota, m.err
}

type mockByteCache struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newByteCache() *mockByteCache {
	return &mockByteCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockByteCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockByteCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type mockKeyAdmin struct {
	keys      []*models.GatewayKey
	created   *models.GatewayKey
	createErr error
	revokeErr error
	revoked   uuid.UUID
}

func (m *mockKeyAdmin) CreateGatewayKey(_ context.Context, key *models.GatewayKey) error {
	m.created = key
	return m.createErr
}

func (m *mockKeyAdmin) ListGatewayKeys(context.Context) ([]*models.GatewayKey, error) {
	return m.keys, nil
}

func (m *mockKeyAdmin) RevokeGatewayKey(_ context.Context, id uuid.UUID) error {
	m.revoked = id
	return m.revokeErr
}

// --- helpers ---

func newSubmission(status models.JobStatus) *models.Submission {
	return &models.Submission{
		ID:          uuid.New(),
		TaskType:    string(tasks.ContentSummarize),
		StatusURL:   statusURL,
		Status:      status,
		SubmittedAt: time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
}

func acceptingService() *mockJobService {
	return &mockJobService{
		policy: poller.DefaultPolicy(),
		submitFn: func(_ context.Context, req tasks.Request, by *uuid.UUID) (*models.Submission, error) {
			sub := newSubmission(models.JobStatusNew)
			sub.TaskType = req.Type.String()
			sub.SubmittedBy = by
			return sub, nil
		},
	}
}

func serve(method, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func withKey(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(mw.SetKeyID(req.Context(), id))
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env.Error.Code
}

// ========================================
// writeError
// ========================================

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown task", fmt.Errorf("%w: %q", tasks.ErrUnknownTask, "x"), http.StatusNotFound, "UNKNOWN_TASK"},
		{"missing field", tasks.ErrMissingField, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unexpected field", tasks.ErrUnexpectedField, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"file mismatch", tasks.ErrFileMismatch, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invalid params", tasks.ErrInvalidParams, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not found", store.ErrNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"timeout", &sharpapi.TransportError{Err: fmt.Errorf("%w: slow", sharpapi.ErrTimeout)}, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"},
		{"canceled", &sharpapi.TransportError{Err: context.Canceled}, 499, "REQUEST_CANCELED"},
		{"canceled while waiting", context.Canceled, 499, "REQUEST_CANCELED"},
		{"upstream status", &sharpapi.TransportError{StatusCode: 422, Body: []byte(`{"error":"bad"}`)}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"unreachable", &sharpapi.TransportError{Err: fmt.Errorf("%w: refused", sharpapi.ErrUnreachable)}, http.StatusBadGateway, "UPSTREAM_UNREACHABLE"},
		{"decode", fmt.Errorf("%w: eof", sharpapi.ErrDecode), http.StatusBadGateway, "UPSTREAM_INVALID_RESPONSE"},
		{"no status url", jobs.ErrMissingStatusURL, http.StatusBadGateway, "UPSTREAM_INVALID_RESPONSE"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestWriteError_UpstreamDetails(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, httptest.NewRequest(http.MethodGet, "/", nil),
		&sharpapi.TransportError{StatusCode: 401, Body: []byte("Unauthenticated")})

	var env struct {
		Error struct {
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, float64(401), env.Error.Details["upstream_status"])
	assert.Equal(t, "Unauthenticated", env.Error.Details["body"])
}

// ========================================
// Health and catalog
// ========================================

func TestHealth_OK(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(mockPinger{}, mockPinger{})(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", dataOf(t, w)["status"])
}

func TestHealth_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(mockPinger{}, mockPinger{err: errors.New("down")})(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "DEGRADED", errorCode(t, w))
}

func TestListTasks(t *testing.T) {
	w := httptest.NewRecorder()
	NewListTasksHandler()(w, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data []tasks.Spec `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Len(t, env.Data, len(tasks.Types()))
	assert.Equal(t, tasks.Types()[0], env.Data[0].Type)
}

// ========================================
// Submit
// ========================================

const submitPattern = "/api/v1/tasks/{taskType}"

func TestSubmitJob_JSON(t *testing.T) {
	svc := acceptingService()
	keyID := uuid.New()

	body := `{"content":"Long article text","max_length":200}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/content_summarize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := serve(http.MethodPost, submitPattern, NewSubmitJobHandler(svc), withKey(req, keyID))

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	data := dataOf(t, w)
	assert.Equal(t, statusURL, data["status_url"])
	assert.Equal(t, "new", data["status"])
	assert.Equal(t, "content_summarize", data["task_type"])
	assert.NotEmpty(t, data["id"])

	assert.Equal(t, tasks.ContentSummarize, svc.gotReq.Type)
	assert.Equal(t, "Long article text", svc.gotReq.Params["content"])
	assert.Equal(t, float64(200), svc.gotReq.Params["max_length"])
	assert.Nil(t, svc.gotReq.File)
}

func TestSubmitJob_PassesKeyID(t *testing.T) {
	keyID := uuid.New()
	var got *uuid.UUID
	svc := acceptingService()
	inner := svc.submitFn
	svc.submitFn = func(ctx context.Context, req tasks.Request, by *uuid.UUID) (*models.Submission, error) {
		got = by
		return inner(ctx, req, by)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/content_summarize", strings.NewReader(`{"content":"x"}`))
	serve(http.MethodPost, submitPattern, NewSubmitJobHandler(svc), withKey(req, keyID))

	require.NotNil(t, got)
	assert.Equal(t, keyID, *got)
}

func TestSubmitJob_Multipart(t *testing.T) {
	svc := acceptingService()

	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	require.NoError(t, mpw.WriteField("language", "English"))
	fw, err := mpw.CreateFormFile("file", "cv.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 resume"))
	require.NoError(t, err)
	require.NoError(t, mpw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/hr_parse_resume", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	w := serve(http.MethodPost, submitPattern, NewSubmitJobHandler(svc), req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, tasks.HRParseResume, svc.gotReq.Type)
	assert.Equal(t, "English", svc.gotReq.Params["language"])
	require.NotNil(t, svc.gotReq.File)
	assert.Equal(t, "cv.pdf", svc.gotReq.File.Name)
	assert.Equal(t, "%PDF-1.4 resume", svc.gotFile)
}

func TestSubmitJob_EmptyBodyIsEmptyParams(t *testing.T) {
	svc := acceptingService()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/content_summarize", nil)

	serve(http.MethodPost, submitPattern, NewSubmitJobHandler(svc), req)

	assert.NotNil(t, svc.gotReq.Params)
	assert.Empty(t, svc.gotReq.Params)
}

func TestSubmitJob_UnknownTask(t *testing.T) {
	svc := acceptingService()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/nope", strings.NewReader(`{}`))

	w := serve(http.MethodPost, submitPattern, NewSubmitJobHandler(svc), req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_TASK", errorCode(t, w))
}

func TestSubmitJob_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/content_summarize", strings.NewReader(`{bad`))

	w := serve(http.MethodPost, submitPattern, NewSubmitJobHandler(acceptingService()), req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestSubmitJob_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: content", tasks.ErrMissingField), http.StatusBadRequest},
		{"upstream", &sharpapi.TransportError{StatusCode: 500}, http.StatusBadGateway},
		{"timeout", &sharpapi.TransportError{Err: sharpapi.ErrTimeout}, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockJobService{submitFn: func(context.Context, tasks.Request, *uuid.UUID) (*models.Submission, error) {
				return nil, tt.err
			}}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks/content_summarize", strings.NewReader(`{}`))
			w := serve(http.MethodPost, submitPattern, NewSubmitJobHandler(svc), req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

// ========================================
// Get job
// ========================================

const jobPattern = "/api/v1/jobs/{jobID}"

func TestGetJob_TerminalServedFromLedger(t *testing.T) {
	sub := newSubmission(models.JobStatusSuccess)
	remote := "5de4887a-0dfd-49b6-8edb-9280e468c210"
	sub.RemoteID = &remote
	sub.Result = json.RawMessage(`{"summary":"short"}`)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}
	svc := acceptingService()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String(), nil)
	w := serve(http.MethodGet, jobPattern, NewGetJobHandler(svc, ledger), req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, svc.awaited)
	data := dataOf(t, w)
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, remote, data["remote_id"])
	assert.Equal(t, map[string]any{"summary": "short"}, data["result"])
}

func TestGetJob_PendingIsAwaited(t *testing.T) {
	sub := newSubmission(models.JobStatusNew)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}
	svc := acceptingService()
	svc.awaitFn = func(_ context.Context, handle models.JobHandle, _ poller.Policy) (*models.JobRecord, error) {
		assert.Equal(t, models.JobHandle(statusURL), handle)
		return &models.JobRecord{ID: "r1", Type: "content_summarize", Status: models.JobStatusSuccess, Result: json.RawMessage(`[1,2]`)}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String(), nil)
	w := serve(http.MethodGet, jobPattern, NewGetJobHandler(svc, ledger), req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, svc.awaited)
	assert.Equal(t, poller.DefaultPolicy(), svc.gotPolicy)
	data := dataOf(t, w)
	assert.Equal(t, "success", data["status"])
	assert.Equal(t, []any{float64(1), float64(2)}, data["result"])
}

func TestGetJob_MaxWaitShortensPolicy(t *testing.T) {
	sub := newSubmission(models.JobStatusPending)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}
	svc := acceptingService()
	svc.awaitFn = func(context.Context, models.JobHandle, poller.Policy) (*models.JobRecord, error) {
		return &models.JobRecord{Status: models.JobStatusPending}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String()+"?max_wait=0", nil)
	w := serve(http.MethodGet, jobPattern, NewGetJobHandler(svc, ledger), req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Duration(0), svc.gotPolicy.MaxWait)
	assert.Equal(t, "pending", dataOf(t, w)["status"])
	_, hasResult := dataOf(t, w)["result"]
	assert.False(t, hasResult)
}

func TestGetJob_MaxWaitNeverExtendsPolicy(t *testing.T) {
	sub := newSubmission(models.JobStatusPending)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}
	svc := acceptingService()
	svc.awaitFn = func(context.Context, models.JobHandle, poller.Policy) (*models.JobRecord, error) {
		return &models.JobRecord{Status: models.JobStatusPending}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String()+"?max_wait=100000", nil)
	serve(http.MethodGet, jobPattern, NewGetJobHandler(svc, ledger), req)

	assert.Equal(t, poller.DefaultPolicy().MaxWait, svc.gotPolicy.MaxWait)
}

func TestGetJob_BadRequests(t *testing.T) {
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{}}
	h := NewGetJobHandler(acceptingService(), ledger)

	w := serve(http.MethodGet, jobPattern, h, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(http.MethodGet, jobPattern, h, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+uuid.NewString()+"?max_wait=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(http.MethodGet, jobPattern, h, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJob_OtherKeysSubmissionIsNotFound(t *testing.T) {
	owner := uuid.New()
	sub := newSubmission(models.JobStatusSuccess)
	sub.SubmittedBy = &owner
	sub.Result = json.RawMessage(`{"secret":"owner-only"}`)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}
	svc := acceptingService()
	h := NewGetJobHandler(svc, ledger)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String(), nil)
	w := serve(http.MethodGet, jobPattern, h, withKey(req, uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "owner-only")
	assert.False(t, svc.awaited)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String(), nil)
	w = serve(http.MethodGet, jobPattern, h, withKey(req, owner))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"secret": "owner-only"}, dataOf(t, w)["result"])
}

func TestGetJob_UnownedSubmissionHiddenFromKeys(t *testing.T) {
	sub := newSubmission(models.JobStatusSuccess)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String(), nil)
	w := serve(http.MethodGet, jobPattern, NewGetJobHandler(acceptingService(), ledger), withKey(req, uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJob_AwaitedTerminalHasCompletedAt(t *testing.T) {
	sub := newSubmission(models.JobStatusPending)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}
	svc := acceptingService()
	svc.awaitFn = func(context.Context, models.JobHandle, poller.Policy) (*models.JobRecord, error) {
		return &models.JobRecord{Status: models.JobStatusFailed}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String(), nil)
	w := serve(http.MethodGet, jobPattern, NewGetJobHandler(svc, ledger), req)

	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, w)
	assert.Equal(t, "failed", data["status"])
	assert.NotEmpty(t, data["completed_at"])
}

func TestGetJob_AwaitedPendingHasNoCompletedAt(t *testing.T) {
	sub := newSubmission(models.JobStatusPending)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}
	svc := acceptingService()
	svc.awaitFn = func(context.Context, models.JobHandle, poller.Policy) (*models.JobRecord, error) {
		return &models.JobRecord{Status: models.JobStatusPending}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String(), nil)
	w := serve(http.MethodGet, jobPattern, NewGetJobHandler(svc, ledger), req)

	_, has := dataOf(t, w)["completed_at"]
	assert.False(t, has)
}

func TestGetJob_AwaitError(t *testing.T) {
	sub := newSubmission(models.JobStatusNew)
	ledger := &mockLedger{subs: map[uuid.UUID]*models.Submission{sub.ID: sub}}
	svc := acceptingService()
	svc.awaitFn = func(context.Context, models.JobHandle, poller.Policy) (*models.JobRecord, error) {
		return nil, fmt.Errorf("%w: truncated", sharpapi.ErrDecode)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+sub.ID.String(), nil)
	w := serve(http.MethodGet, jobPattern, NewGetJobHandler(svc, ledger), req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "UPSTREAM_INVALID_RESPONSE", errorCode(t, w))
}

// ========================================
// List jobs
// ========================================

func TestListJobs(t *testing.T) {
	keyID := uuid.New()
	ledger := &mockLedger{
		list:  []*models.Submission{newSubmission(models.JobStatusNew), newSubmission(models.JobStatusFailed)},
		total: 12,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs?page=1&limit=2&task_type=content_summarize&status=new", nil)
	w := httptest.NewRecorder()
	NewListJobsHandler(ledger)(w, withKey(req, keyID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var env struct {
		Data []map[string]any `json:"data"`
		Meta map[string]any   `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Len(t, env.Data, 2)
	assert.Equal(t, true, env.Meta["has_next"])
	assert.Equal(t, float64(12), env.Meta["total"])

	assert.Equal(t, "content_summarize", ledger.gotFilter.TaskType)
	assert.Equal(t, models.JobStatusNew, ledger.gotFilter.Status)
	require.NotNil(t, ledger.gotFilter.SubmittedBy)
	assert.Equal(t, keyID, *ledger.gotFilter.SubmittedBy)
}

func TestListJobs_Defaults(t *testing.T) {
	ledger := &mockLedger{}

	w := httptest.NewRecorder()
	NewListJobsHandler(ledger)(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ledger.gotFilter.Page)
	assert.Equal(t, 20, ledger.gotFilter.Limit)
	assert.Nil(t, ledger.gotFilter.SubmittedBy)
}

func TestListJobs_InvalidQuery(t *testing.T) {
	for _, q := range []string{"page=0", "page=x", "limit=101", "limit=0", "task_type=nope"} {
		w := httptest.NewRecorder()
		NewListJobsHandler(&mockLedger{})(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?"+q, nil))
		assert.NotEqual(t, http.StatusOK, w.Code, q)
	}
}

// ========================================
// Ping and quota
// ========================================

func TestPing(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	remote := &mockRemote{ping: &models.PingResponse{Ping: "pong", Timestamp: ts}}

	w := httptest.NewRecorder()
	NewPingHandler(remote)(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", dataOf(t, w)["ping"])
}

func TestPing_Upstream401(t *testing.T) {
	remote := &mockRemote{err: &sharpapi.TransportError{StatusCode: 401}}

	w := httptest.NewRecorder()
	NewPingHandler(remote)(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestQuota_CachesSnapshot(t *testing.T) {
	remote := &mockRemote{quota: &models.SubscriptionInfo{
		Timestamp:              time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Subscribed:             true,
		SubscriptionWordsQuota: 100000,
		SubscriptionWordsUsed:  2500,
	}}
	c := newByteCache()
	h := NewQuotaHandler(remote, c)

	for range 2 {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/api/v1/quota", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2500), dataOf(t, w)["subscription_words_used"])
	}

	assert.Equal(t, 1, remote.quotaCalls)
	assert.Equal(t, QuotaTTL, c.ttls["sharpapi:quota"])
}

func TestQuota_CacheErrorFallsBack(t *testing.T) {
	remote := &mockRemote{quota: &models.SubscriptionInfo{Subscribed: true}}
	c := newByteCache()
	c.getErr = errors.New("redis down")

	w := httptest.NewRecorder()
	NewQuotaHandler(remote, c)(w, httptest.NewRequest(http.MethodGet, "/api/v1/quota", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, remote.quotaCalls)
}

func TestQuota_NoSubscriptionData(t *testing.T) {
	c := newByteCache()
	w := httptest.NewRecorder()
	NewQuotaHandler(&mockRemote{}, c)(w, httptest.NewRequest(http.MethodGet, "/api/v1/quota", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":null}`, w.Body.String())
	assert.Empty(t, c.data)
}

func TestQuota_NilCache(t *testing.T) {
	remote := &mockRemote{quota: &models.SubscriptionInfo{OnTrial: true}}
	w := httptest.NewRecorder()
	NewQuotaHandler(remote, nil)(w, httptest.NewRequest(http.MethodGet, "/api/v1/quota", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataOf(t, w)["on_trial"])
}

// ========================================
// Admin keys
// ========================================

func TestCreateKey(t *testing.T) {
	admin := &mockKeyAdmin{}
	body := `{"name":"billing-service","scopes":["submit"]}`

	w := httptest.NewRecorder()
	NewCreateKeyHandler(admin)(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/keys", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataOf(t, w)
	rawKey, _ := data["key"].(string)
	require.True(t, strings.HasPrefix(rawKey, KeyPrefix), rawKey)
	assert.Equal(t, rawKey[:mw.KeyPrefixLen], data["key_prefix"])
	assert.Equal(t, "billing-service", data["name"])
	_, leaksHash := data["key_hash"]
	assert.False(t, leaksHash)

	require.NotNil(t, admin.created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.created.KeyHash), []byte(rawKey)))
	assert.Equal(t, []string{"submit"}, admin.created.Scopes)
}

func TestCreateKey_Validation(t *testing.T) {
	for _, body := range []string{
		`{"scopes":["submit"]}`,
		`{"name":"x"}`,
		`{"name":"x","scopes":["root"]}`,
		`{"name":"x","scopes":[]}`,
	} {
		w := httptest.NewRecorder()
		NewCreateKeyHandler(&mockKeyAdmin{})(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/keys", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w), body)
	}
}

func TestCreateKey_Duplicate(t *testing.T) {
	admin := &mockKeyAdmin{createErr: store.ErrDuplicateKey}

	w := httptest.NewRecorder()
	NewCreateKeyHandler(admin)(w, httptest.NewRequest(http.MethodPost, "/api/v1/admin/keys",
		strings.NewReader(`{"name":"x","scopes":["admin"]}`)))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGenerateKey_Unique(t *testing.T) {
	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len(KeyPrefix)+48)
}

func TestListKeys_EmptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	NewListKeysHandler(&mockKeyAdmin{})(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/keys", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestRevokeKey(t *testing.T) {
	admin := &mockKeyAdmin{}
	id := uuid.New()

	w := serve(http.MethodDelete, "/api/v1/admin/keys/{keyID}", NewRevokeKeyHandler(admin),
		httptest.NewRequest(http.MethodDelete, "/api/v1/admin/keys/"+id.String(), nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, id, admin.revoked)
}

func TestRevokeKey_NotFound(t *testing.T) {
	admin := &mockKeyAdmin{revokeErr: store.ErrNotFound}

	w := serve(http.MethodDelete, "/api/v1/admin/keys/{keyID}", NewRevokeKeyHandler(admin),
		httptest.NewRequest(http.MethodDelete, "/api/v1/admin/keys/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
