package workflow

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoCheckpoint indicates no checkpoint exists for a run.
var ErrNoCheckpoint = errors.New("no checkpoint for run")

// Checkpoint captures the durable state of a run at a checkpoint node.
// A resumed run replays from here instead of re-executing finished work.
type Checkpoint struct {
	RunID   string                    `json:"run_id"`
	GraphID string                    `json:"graph_id"`
	Nodes   map[string]NodeState      `json:"nodes"`
	Outputs map[string]map[string]any `json:"outputs"`
	SavedAt time.Time                 `json:"saved_at"`
}

// CheckpointStore persists checkpoints between runs.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, cp Checkpoint) error
	LoadCheckpoint(ctx context.Context, runID string) (Checkpoint, error)
}

// MemoryCheckpointStore keeps checkpoints in memory. Useful for tests
// and single-process runs without durability requirements.
type MemoryCheckpointStore struct {
	mu   sync.Mutex
	data map[string]Checkpoint
}

// NewMemoryCheckpointStore creates an empty in-memory checkpoint store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{data: make(map[string]Checkpoint)}
}

func (s *MemoryCheckpointStore) SaveCheckpoint(_ context.Context, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[cp.RunID] = cp
	return nil
}

func (s *MemoryCheckpointStore) LoadCheckpoint(_ context.Context, runID string) (Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.data[runID]
	if !ok {
		return Checkpoint{}, ErrNoCheckpoint
	}
	return cp, nil
}

func checkpointFrom(runID string, g *Graph, state *RunState) Checkpoint {
	nodes, _ := state.Snapshot()
	cp := Checkpoint{
		RunID:   runID,
		GraphID: g.ID,
		Nodes:   make(map[string]NodeState, len(nodes)),
		Outputs: make(map[string]map[string]any),
		SavedAt: time.Now().UTC(),
	}
	for id, st := range nodes {
		if st.Status != StatusSucceeded && st.Status != StatusSkipped {
			continue
		}
		cp.Nodes[id] = st
		if out, ok := state.Outputs(id); ok {
			cp.Outputs[id] = out
		}
	}
	return cp
}

// restore seeds run state from a checkpoint. Only nodes recorded as
// succeeded or skipped are restored; everything else runs again.
func (s *RunState) restore(cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, saved := range cp.Nodes {
		st, ok := s.nodes[id]
		if !ok {
			continue
		}
		*st = saved
		if out, ok := cp.Outputs[id]; ok {
			s.outputs[id] = out
		}
		s.order = append(s.order, id)
	}
}
