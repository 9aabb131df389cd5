package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidooo/analysis-service/internal/analysis/domain"
)

// PostgresStore keeps the job collection in a jobs table. Structured fields
// (progress log, scores, contexts) are stored as JSONB so the record layout
// stays forward-compatible with additive fields. Per-record updates run in a
// transaction with a row lock, giving the same no-lost-update guarantee as
// the file store's single-writer mutex.
type PostgresStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresStore creates a Postgres-backed job store.
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

type jobRow struct {
	ID             int            `db:"id"`
	SourceFileName string         `db:"source_file_name"`
	Kind           string         `db:"kind"`
	SubmittedAt    time.Time      `db:"submitted_at"`
	State          string         `db:"state"`
	SizeMetrics    []byte         `db:"size_metrics"`
	CompletedAt    sql.NullTime   `db:"completed_at"`
	FailureReason  sql.NullString `db:"failure_reason"`
	ProgressLog    []byte         `db:"progress_log"`
	Scenario       []byte         `db:"scenario"`
	Subject        []byte         `db:"subject"`
	Scores         []byte         `db:"scores"`
	Narrative      sql.NullString `db:"narrative"`
	BriefSummary   sql.NullString `db:"brief_summary"`
}

const jobColumns = `
	id, source_file_name, kind, submitted_at, state,
	size_metrics, completed_at, failure_reason, progress_log,
	scenario, subject, scores, narrative, brief_summary
`

// Load returns the full collection ordered by id.
func (s *PostgresStore) Load(ctx context.Context) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY id`

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load jobs: %w", err)
	}

	jobs := make([]domain.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toJob()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// Get returns one job by id, or domain.ErrJobNotFound.
func (s *PostgresStore) Get(ctx context.Context, id int) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return row.toJob()
}

// Create assigns the next id and inserts the job.
func (s *PostgresStore) Create(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.GetContext(ctx, &job.ID, `SELECT COALESCE(MAX(id), 0) + 1 FROM jobs`); err != nil {
		return nil, fmt.Errorf("failed to compute next job id: %w", err)
	}

	row, err := fromJob(job)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO jobs (
			id, source_file_name, kind, submitted_at, state,
			size_metrics, completed_at, failure_reason, progress_log,
			scenario, subject, scores, narrative, brief_summary
		) VALUES (
			:id, :source_file_name, :kind, :submitted_at, :state,
			:size_metrics, :completed_at, :failure_reason, :progress_log,
			:scenario, :subject, :scores, :narrative, :brief_summary
		)
	`
	if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit job creation: %w", err)
	}
	return job, nil
}

// Update applies mutate to one record under a row lock.
func (s *PostgresStore) Update(ctx context.Context, id int, mutate func(*domain.Job) error) (*domain.Job, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to lock job: %w", err)
	}

	job, err := row.toJob()
	if err != nil {
		return nil, err
	}
	if err := mutate(job); err != nil {
		return nil, err
	}

	updated, err := fromJob(job)
	if err != nil {
		return nil, err
	}

	update := `
		UPDATE jobs SET
			state = :state,
			size_metrics = :size_metrics,
			completed_at = :completed_at,
			failure_reason = :failure_reason,
			progress_log = :progress_log,
			scores = :scores,
			narrative = :narrative,
			brief_summary = :brief_summary
		WHERE id = :id
	`
	if _, err := tx.NamedExecContext(ctx, update, updated); err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit job update: %w", err)
	}
	return job, nil
}

func (r *jobRow) toJob() (*domain.Job, error) {
	job := &domain.Job{
		ID:             r.ID,
		SourceFileName: r.SourceFileName,
		Kind:           r.Kind,
		SubmittedAt:    r.SubmittedAt,
		State:          r.State,
		FailureReason:  r.FailureReason.String,
		Narrative:      r.Narrative.String,
		BriefSummary:   r.BriefSummary.String,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		job.CompletedAt = &t
	}
	for _, field := range []struct {
		data []byte
		dest any
	}{
		{r.SizeMetrics, &job.SizeMetrics},
		{r.ProgressLog, &job.ProgressLog},
		{r.Scenario, &job.Scenario},
		{r.Subject, &job.Subject},
		{r.Scores, &job.Scores},
	} {
		if len(field.data) == 0 {
			continue
		}
		if err := json.Unmarshal(field.data, field.dest); err != nil {
			return nil, fmt.Errorf("failed to decode job %d: %w", r.ID, err)
		}
	}
	return job, nil
}

func fromJob(job *domain.Job) (*jobRow, error) {
	row := &jobRow{
		ID:             job.ID,
		SourceFileName: job.SourceFileName,
		Kind:           job.Kind,
		SubmittedAt:    job.SubmittedAt,
		State:          job.State,
	}
	if job.CompletedAt != nil {
		row.CompletedAt = sql.NullTime{Time: *job.CompletedAt, Valid: true}
	}
	if job.FailureReason != "" {
		row.FailureReason = sql.NullString{String: job.FailureReason, Valid: true}
	}
	if job.Narrative != "" {
		row.Narrative = sql.NullString{String: job.Narrative, Valid: true}
	}
	if job.BriefSummary != "" {
		row.BriefSummary = sql.NullString{String: job.BriefSummary, Valid: true}
	}

	progressLog, err := json.Marshal(job.ProgressLog)
	if err != nil {
		return nil, fmt.Errorf("failed to encode progress log: %w", err)
	}
	row.ProgressLog = progressLog

	for _, field := range []struct {
		value any
		dest  *[]byte
	}{
		{job.SizeMetrics, &row.SizeMetrics},
		{job.Scenario, &row.Scenario},
		{job.Subject, &row.Subject},
		{job.Scores, &row.Scores},
	} {
		if field.value == nil || isNilPointer(field.value) {
			continue
		}
		data, err := json.Marshal(field.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode job field: %w", err)
		}
		*field.dest = data
	}
	return row, nil
}

func isNilPointer(v any) bool {
	switch p := v.(type) {
	case *domain.SizeMetrics:
		return p == nil
	case *domain.ScenarioContext:
		return p == nil
	case *domain.SubjectContext:
		return p == nil
	case *domain.Scores:
		return p == nil
	}
	return false
}
