// Package workflow runs multi-step jobs whose completed steps are checkpointed, so a retried run
// resumes after the last persisted step instead of repeating it.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// CheckpointStore persists step results keyed by (workflow, run key, step).
type CheckpointStore interface {
	Load(ctx context.Context, workflow, runKey, step string) (json.RawMessage, bool, error)
	Save(ctx context.Context, workflow, runKey, step string, result json.RawMessage) error
}

// Run is one execution of a named workflow, identified by a caller-chosen key
// (for example the feedback id). Re-creating a Run with the same key replays completed steps.
type Run struct {
	store    CheckpointStore
	workflow string
	key      string
}

// NewRun creates a run handle.
func NewRun(store CheckpointStore, workflow, key string) *Run {
	return &Run{store: store, workflow: workflow, key: key}
}

// Step executes fn once per run. When a checkpoint for name already exists its decoded value is
// returned and fn is not called (replayed=true). A failing fn is not checkpointed, so the next
// attempt runs it again.
func Step[T any](ctx context.Context, run *Run, name string, fn func(context.Context) (T, error)) (T, bool, error) {
	var zero T

	raw, found, err := run.store.Load(ctx, run.workflow, run.key, name)
	if err != nil {
		return zero, false, fmt.Errorf("load checkpoint %s/%s: %w", run.workflow, name, err)
	}

	if found {
		var out T
		if err := json.Unmarshal(raw, &out); err != nil {
			return zero, false, fmt.Errorf("decode checkpoint %s/%s: %w", run.workflow, name, err)
		}

		slog.DebugContext(ctx, "workflow: step replayed", "workflow", run.workflow, "run_key", run.key, "step", name)

		return out, true, nil
	}

	out, err := fn(ctx)
	if err != nil {
		return zero, false, fmt.Errorf("step %s: %w", name, err)
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return zero, false, fmt.Errorf("encode checkpoint %s/%s: %w", run.workflow, name, err)
	}

	if err := run.store.Save(ctx, run.workflow, run.key, name, encoded); err != nil {
		return zero, false, fmt.Errorf("save checkpoint %s/%s: %w", run.workflow, name, err)
	}

	return out, false, nil
}
