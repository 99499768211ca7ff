package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WorkflowCheckpointsRepository persists completed workflow step results.
type WorkflowCheckpointsRepository struct {
	db *pgxpool.Pool
}

// NewWorkflowCheckpointsRepository creates a new checkpoint repository.
func NewWorkflowCheckpointsRepository(db *pgxpool.Pool) *WorkflowCheckpointsRepository {
	return &WorkflowCheckpointsRepository{db: db}
}

// Load returns the stored result for a step, or found=false when the step has not completed yet.
func (r *WorkflowCheckpointsRepository) Load(
	ctx context.Context, workflow, runKey, step string,
) (json.RawMessage, bool, error) {
	var result json.RawMessage

	err := r.db.QueryRow(ctx, `
		SELECT result FROM workflow_checkpoints
		WHERE workflow = $1 AND run_key = $2 AND step = $3`,
		workflow, runKey, step,
	).Scan(&result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	return result, true, nil
}

// Save records a step result. The first completion wins; later saves for the same step are ignored.
func (r *WorkflowCheckpointsRepository) Save(
	ctx context.Context, workflow, runKey, step string, result json.RawMessage,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO workflow_checkpoints (workflow, run_key, step, result)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (workflow, run_key, step) DO NOTHING`,
		workflow, runKey, step, result,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	return nil
}
