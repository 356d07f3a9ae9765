package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/sharpjobs/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Gateway Keys ---

const gatewayKeyColumns = `id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func scanGatewayKeys(rows pgx.Rows) ([]*models.GatewayKey, error) {
	defer rows.Close()

	var keys []*models.GatewayKey
	for rows.Next() {
		var k models.GatewayKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan gateway key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) GetGatewayKeyByPrefix(ctx context.Context, prefix string) ([]*models.GatewayKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+gatewayKeyColumns+` FROM gateway_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get gateway key by prefix: %w", err)
	}
	return scanGatewayKeys(rows)
}

func (s *PostgresStore) UpdateGatewayKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE gateway_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update gateway key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateGatewayKey(ctx context.Context, key *models.GatewayKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO gateway_keys (id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create gateway key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListGatewayKeys(ctx context.Context) ([]*models.GatewayKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+gatewayKeyColumns+` FROM gateway_keys WHERE deleted_at IS NULL ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list gateway keys: %w", err)
	}
	return scanGatewayKeys(rows)
}

func (s *PostgresStore) RevokeGatewayKey(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE gateway_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("revoke gateway key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Submissions ---

const submissionColumns = `id, task_type, status_url, status, remote_id, result, error_message,
	submitted_by, submitted_at, completed_at, updated_at`

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var sub models.Submission
	err := row.Scan(&sub.ID, &sub.TaskType, &sub.StatusURL, &sub.Status, &sub.RemoteID,
		&sub.Result, &sub.ErrorMessage, &sub.SubmittedBy, &sub.SubmittedAt,
		&sub.CompletedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	if sub.Status == "" {
		sub.Status = models.JobStatusNew
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO submissions (id, task_type, status_url, status, submitted_by, submitted_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.TaskType, sub.StatusURL, sub.Status, sub.SubmittedBy, sub.SubmittedAt, sub.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	sub, err := scanSubmission(s.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) GetSubmissionByStatusURL(ctx context.Context, statusURL string) (*models.Submission, error) {
	sub, err := scanSubmission(s.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE status_url = $1`, statusURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission by status url: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]*models.Submission, int, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.TaskType != "" {
		conditions = append(conditions, fmt.Sprintf("task_type = $%d", argIdx))
		args = append(args, filter.TaskType)
		argIdx++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.SubmittedBy != nil {
		conditions = append(conditions, fmt.Sprintf("submitted_by = $%d", argIdx))
		args = append(args, *filter.SubmittedBy)
		argIdx++
	}

	where := "TRUE"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM submissions WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM submissions WHERE %s ORDER BY submitted_at DESC LIMIT $%d OFFSET $%d`,
		submissionColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate submissions: %w", err)
	}
	return subs, total, nil
}

// UpdateSubmissionStatus moves a ledger row forward. The current status is
// read under a row lock so concurrent pollers cannot rewrite a terminal row.
func (s *PostgresStore) UpdateSubmissionStatus(ctx context.Context, id uuid.UUID, status models.JobStatus, opts ...SubmissionUpdateOption) error {
	params := &submissionUpdateParams{}
	for _, opt := range opts {
		opt(params)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin submission update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current models.JobStatus
	err = tx.QueryRow(ctx, `SELECT status FROM submissions WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get submission status: %w", err)
	}

	if !CanTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	now := time.Now().UTC()
	query := `UPDATE submissions SET status = $2, updated_at = $3`
	args := []any{id, status, now}
	argIdx := 4

	if status.IsTerminal() {
		query += fmt.Sprintf(", completed_at = $%d", argIdx)
		args = append(args, now)
		argIdx++
	}
	if params.RemoteID != nil {
		query += fmt.Sprintf(", remote_id = $%d", argIdx)
		args = append(args, *params.RemoteID)
		argIdx++
	}
	if params.Result != nil && status == models.JobStatusSuccess {
		query += fmt.Sprintf(", result = $%d", argIdx)
		args = append(args, params.Result)
		argIdx++
	}
	if params.ErrorMessage != nil {
		query += fmt.Sprintf(", error_message = $%d", argIdx)
		args = append(args, *params.ErrorMessage)
		argIdx++
	}

	query += " WHERE id = $1"

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit submission update: %w", err)
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
