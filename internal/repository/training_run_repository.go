package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/flight-delay-backend-go/internal/models"
)

// ErrRunNotFound is returned when no training run has the requested ID
var ErrRunNotFound = errors.New("training run not found")

const defaultRunLimit = 20

// TrainingRunRepository handles database operations for training runs
type TrainingRunRepository struct {
	db *sql.DB
}

// NewTrainingRunRepository creates a new training run repository
func NewTrainingRunRepository(db *sql.DB) *TrainingRunRepository {
	return &TrainingRunRepository{db: db}
}

// Create inserts a run in the running state
func (r *TrainingRunRepository) Create(ctx context.Context, run *models.TrainingRun) error {
	if run.StartTime == 0 {
		run.StartTime = time.Now().Unix()
	}
	run.Status = models.RunStatusRunning

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO training_runs (run_id, status, start_time) VALUES (?, ?, ?)`,
		run.RunID, run.Status, run.StartTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create training run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// GetByRunID retrieves a training run by its public ID
func (r *TrainingRunRepository) GetByRunID(ctx context.Context, runID string) (*models.TrainingRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, run_id, status, samples, delayed, accuracy,
			   result_summary, error_message, start_time, end_time
		FROM training_runs
		WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}
	return run, nil
}

// List retrieves training runs, newest first
func (r *TrainingRunRepository) List(ctx context.Context, filter models.RunFilter) ([]models.TrainingRun, error) {
	query := `
		SELECT id, run_id, status, samples, delayed, accuracy,
			   result_summary, error_message, start_time, end_time
		FROM training_runs
		WHERE 1=1`

	args := []interface{}{}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	defer rows.Close()

	runs := []models.TrainingRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// MarkAsCompleted stores the outcome of a successful run
func (r *TrainingRunRepository) MarkAsCompleted(ctx context.Context, id int64, samples, delayed int, accuracy *float64, resultSummary string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE training_runs
		SET status = ?, samples = ?, delayed = ?, accuracy = ?,
			result_summary = ?, end_time = ?
		WHERE id = ?`,
		models.RunStatusCompleted, samples, delayed, accuracy, resultSummary, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark training run as completed: %w", err)
	}
	return nil
}

// MarkAsFailed marks a run as failed with an error message
func (r *TrainingRunRepository) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE training_runs
		SET status = ?, error_message = ?, end_time = ?
		WHERE id = ?`,
		models.RunStatusFailed, errorMessage, time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark training run as failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.TrainingRun, error) {
	run := &models.TrainingRun{}
	var accuracy sql.NullFloat64
	err := row.Scan(
		&run.ID,
		&run.RunID,
		&run.Status,
		&run.Samples,
		&run.Delayed,
		&accuracy,
		&run.ResultSummary,
		&run.ErrorMessage,
		&run.StartTime,
		&run.EndTime,
	)
	if err != nil {
		return nil, err
	}
	if accuracy.Valid {
		run.Accuracy = &accuracy.Float64
	}
	return run, nil
}
