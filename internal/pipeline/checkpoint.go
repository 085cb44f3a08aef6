package pipeline

import (
	"context"
	"errors"

	"github.com/lehen20/dpr-auto/internal/workflow"
	"github.com/lehen20/dpr-auto/pkg/jsonstore"
)

// storeCheckpoints persists workflow checkpoints alongside run records
// in the JSON store.
type storeCheckpoints struct {
	store jsonstore.System
}

// NewCheckpointStore adapts the JSON store to the workflow engine's
// checkpoint interface.
func NewCheckpointStore(store jsonstore.System) workflow.CheckpointStore {
	return &storeCheckpoints{store: store}
}

const checkpointPrefix = "checkpoint_"

func (s *storeCheckpoints) SaveCheckpoint(ctx context.Context, cp workflow.Checkpoint) error {
	return s.store.WriteRun(ctx, checkpointPrefix+cp.RunID, cp)
}

func (s *storeCheckpoints) LoadCheckpoint(ctx context.Context, runID string) (workflow.Checkpoint, error) {
	var cp workflow.Checkpoint
	if err := s.store.ReadRun(ctx, checkpointPrefix+runID, &cp); err != nil {
		if errors.Is(err, jsonstore.ErrNotFound) {
			return workflow.Checkpoint{}, workflow.ErrNoCheckpoint
		}
		return workflow.Checkpoint{}, err
	}
	return cp, nil
}
