// Package pipeline drives document extraction runs through the
// workflow engine and records their results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lehen20/dpr-auto/internal/documents"
	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/workflow"
	"github.com/lehen20/dpr-auto/pkg/jsonstore"
	"github.com/lehen20/dpr-auto/pkg/pagination"
)

// RunRecord is the stored outcome of one extraction run.
type RunRecord struct {
	ID         string              `json:"id"`
	DocumentID string              `json:"document_id"`
	ProjectID  string              `json:"project_id"`
	Result     *workflow.RunResult `json:"result,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// ExtractResult is the outcome of a synchronous one-document extraction.
type ExtractResult struct {
	DocumentID string                       `json:"document_id"`
	DocType    string                       `json:"doc_type"`
	Fields     map[fields.Name]fields.Field `json:"fields"`
}

// System starts and inspects extraction runs.
type System interface {
	Run(ctx context.Context, documentID uuid.UUID, projectID string) (RunRecord, error)
	Resume(ctx context.Context, runID string) (RunRecord, error)
	Extract(ctx context.Context, documentID uuid.UUID) (ExtractResult, error)
	Find(ctx context.Context, runID string) (RunRecord, error)
	List(ctx context.Context, req pagination.PageRequest) (pagination.PageResult[RunRecord], error)
	Handler() *Handler
}

type system struct {
	store      jsonstore.System
	documents  documents.System
	runtime    *Runtime
	logger     *slog.Logger
	pagination pagination.Config
	graph      *workflow.Graph
	executor   *workflow.Executor
	cache      *workflow.Cache
}

// New wires the extraction pipeline: the runtime's runners, the domain
// conditions, a shared result cache, store-backed checkpoints, and a
// rollback hook that reinstates the project's prior version when a
// critical node fails.
func New(store jsonstore.System, docs documents.System, rt *Runtime, graph *workflow.Graph, logger *slog.Logger, pageCfg pagination.Config) System {
	s := &system{
		store:      store,
		documents:  docs,
		runtime:    rt,
		logger:     logger.With("system", "pipeline"),
		pagination: pageCfg,
		graph:      graph,
		cache:      workflow.NewCache(),
	}

	s.executor = workflow.NewExecutor(
		logger,
		NewConditions(),
		rt.Runners(),
		workflow.WithCache(s.cache),
		workflow.WithCheckpoints(NewCheckpointStore(store)),
		workflow.WithRollback(s.rollback),
	)
	return s
}

// Run executes the extraction graph for one document against a project
// and persists the outcome.
func (s *system) Run(ctx context.Context, documentID uuid.UUID, projectID string) (RunRecord, error) {
	doc, err := s.documents.Find(ctx, documentID)
	if err != nil {
		return RunRecord{}, err
	}

	path := s.documents.FilePath(doc.ID)
	if _, err := os.Stat(path); err != nil {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrDocumentNotReady, doc.ID)
	}

	rec := RunRecord{
		ID:         uuid.New().String(),
		DocumentID: doc.ID.String(),
		ProjectID:  projectID,
		CreatedAt:  time.Now().UTC(),
	}
	// Persisted before execution so the rollback hook can resolve the
	// run's project mid-flight.
	if err := s.store.WriteRun(ctx, rec.ID, rec); err != nil {
		return RunRecord{}, fmt.Errorf("persist run %s: %w", rec.ID, err)
	}

	return s.execute(ctx, rec, path, false)
}

// Extract segments, classifies, and runs every deterministic extractor
// for one document synchronously, without recording a workflow run.
// Nothing is persisted; the caller gets the raw extraction to inspect.
func (s *system) Extract(ctx context.Context, documentID uuid.UUID) (ExtractResult, error) {
	doc, err := s.documents.Find(ctx, documentID)
	if err != nil {
		return ExtractResult{}, err
	}

	path := s.documents.FilePath(doc.ID)
	if _, err := os.Stat(path); err != nil {
		return ExtractResult{}, fmt.Errorf("%w: %s", ErrDocumentNotReady, doc.ID)
	}

	docType, extracted, err := s.runtime.ExtractDocument(ctx, doc.ID.String(), path)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("extract document %s: %w", doc.ID, err)
	}

	return ExtractResult{
		DocumentID: doc.ID.String(),
		DocType:    string(docType),
		Fields:     extracted,
	}, nil
}

// Resume restarts a previous run from its last checkpoint.
func (s *system) Resume(ctx context.Context, runID string) (RunRecord, error) {
	rec, err := s.Find(ctx, runID)
	if err != nil {
		return RunRecord{}, err
	}

	id, err := uuid.Parse(rec.DocumentID)
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s has malformed document id: %w", runID, err)
	}
	return s.execute(ctx, rec, s.documents.FilePath(id), true)
}

func (s *system) execute(ctx context.Context, rec RunRecord, path string, resume bool) (RunRecord, error) {
	// Sweep expired cache entries before the run consults it.
	s.cache.Purge()

	inputs := map[string]any{
		keyDocumentID: rec.DocumentID,
		keyProjectID:  rec.ProjectID,
		keyFilePath:   path,
	}

	var (
		result *workflow.RunResult
		err    error
	)
	if resume {
		result, err = s.executor.Resume(ctx, rec.ID, s.graph, inputs)
	} else {
		result, err = s.executor.Execute(ctx, rec.ID, s.graph, inputs)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("run %s: %w", rec.ID, err)
	}

	rec.Result = result
	if err := s.store.WriteRun(ctx, rec.ID, rec); err != nil {
		return RunRecord{}, fmt.Errorf("persist run %s: %w", rec.ID, err)
	}

	if result.Status == workflow.RunFailed {
		if id, parseErr := uuid.Parse(rec.DocumentID); parseErr == nil {
			if _, statusErr := s.documents.UpdateStatus(ctx, id, documents.StatusFailed); statusErr != nil {
				s.logger.WarnContext(ctx, "document status update failed", "document", rec.DocumentID, "error", statusErr)
			}
		}
	}
	return rec, nil
}

// rollback reinstates the project record that was current before the
// failed run's merge. A project that was never overwritten has no
// backup, which is fine.
func (s *system) rollback(ctx context.Context, runID string) error {
	var rec RunRecord
	if err := s.store.ReadRun(ctx, runID, &rec); err != nil {
		return fmt.Errorf("resolving run %s for rollback: %w", runID, err)
	}

	if err := s.store.RestoreProject(ctx, rec.ProjectID); err != nil {
		if errors.Is(err, jsonstore.ErrNoBackup) {
			return nil
		}
		return err
	}
	s.logger.InfoContext(ctx, "project rolled back", "run", runID, "project", rec.ProjectID)
	return nil
}

func (s *system) Find(ctx context.Context, runID string) (RunRecord, error) {
	var rec RunRecord
	if err := s.store.ReadRun(ctx, runID, &rec); err != nil {
		if errors.Is(err, jsonstore.ErrNotFound) {
			return RunRecord{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return RunRecord{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	return rec, nil
}

func (s *system) List(ctx context.Context, req pagination.PageRequest) (pagination.PageResult[RunRecord], error) {
	ids, err := s.store.ListRuns(ctx)
	if err != nil {
		return pagination.PageResult[RunRecord]{}, fmt.Errorf("list runs: %w", err)
	}

	recs := make([]RunRecord, 0, len(ids))
	for _, id := range ids {
		if strings.HasPrefix(id, checkpointPrefix) {
			continue
		}
		var rec RunRecord
		if err := s.store.ReadRun(ctx, id, &rec); err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable run record", "run", id, "error", err)
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })

	return pagination.Slice(recs, req), nil
}

// Handler returns the HTTP handler for run endpoints.
func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination)
}
