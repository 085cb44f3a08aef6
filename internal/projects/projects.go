// Package projects owns the consolidated project record: merge
// serialization, human field updates, and persistence.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lehen20/dpr-auto/internal/enrich"
	"github.com/lehen20/dpr-auto/internal/fields"
	"github.com/lehen20/dpr-auto/internal/merge"
	"github.com/lehen20/dpr-auto/pkg/jsonstore"
	"github.com/lehen20/dpr-auto/pkg/pagination"
)

// Drafter generates report sections from consolidated company details.
// *enrich.Adapter satisfies it.
type Drafter interface {
	DraftSections(ctx context.Context, name, registration, companyType, objectives string) []enrich.DraftSection
}

// System manages consolidated project records.
type System interface {
	Get(ctx context.Context, projectID string) (Record, error)
	List(ctx context.Context, req pagination.PageRequest) (pagination.PageResult[Record], error)
	MergeDocuments(ctx context.Context, projectID string, docs []merge.DocumentFields) (Record, error)
	UpdateField(ctx context.Context, projectID, fieldPath string, newValue fields.Value) (Record, error)
	Restore(ctx context.Context, projectID string) (Record, error)
	Generate(ctx context.Context, projectID string) ([]enrich.DraftSection, error)
	Handler() *Handler
}

type system struct {
	store      jsonstore.System
	drafter    Drafter
	logger     *slog.Logger
	pagination pagination.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates the project system.
func New(store jsonstore.System, drafter Drafter, logger *slog.Logger, pageCfg pagination.Config) System {
	return &system{
		store:      store,
		drafter:    drafter,
		logger:     logger.With("system", "projects"),
		pagination: pageCfg,
		locks:      make(map[string]*sync.Mutex),
	}
}

// projectLock returns the mutex serializing merges for one project.
func (s *system) projectLock(projectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[projectID] = lock
	}
	return lock
}

func (s *system) Get(ctx context.Context, projectID string) (Record, error) {
	var record Record
	if err := s.store.ReadProject(ctx, projectID, &record); err != nil {
		if errors.Is(err, jsonstore.ErrNotFound) {
			return Record{}, fmt.Errorf("%w: %s", ErrNotFound, projectID)
		}
		return Record{}, fmt.Errorf("read project %s: %w", projectID, err)
	}
	return record, nil
}

func (s *system) List(ctx context.Context, req pagination.PageRequest) (pagination.PageResult[Record], error) {
	ids, err := s.store.ListProjects(ctx)
	if err != nil {
		return pagination.PageResult[Record]{}, fmt.Errorf("list projects: %w", err)
	}
	sort.Strings(ids)

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		var record Record
		if err := s.store.ReadProject(ctx, id, &record); err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable project", "project", id, "error", err)
			continue
		}
		if req.Search != nil && !strings.Contains(strings.ToLower(record.ProjectID), strings.ToLower(*req.Search)) {
			continue
		}
		records = append(records, record)
	}

	return pagination.Slice(records, req), nil
}

// MergeDocuments attaches the incoming per-document extractor outputs and
// recomputes the consolidated record. At most one merge runs per project
// at a time; a missing record is created rather than an error.
func (s *system) MergeDocuments(ctx context.Context, projectID string, docs []merge.DocumentFields) (Record, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.Get(ctx, projectID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return Record{}, err
		}
		record = NewRecord(projectID)
	}

	record.attach(docs)
	record.remerge()

	if err := s.store.WriteProject(ctx, projectID, record); err != nil {
		return Record{}, fmt.Errorf("persist project %s: %w", projectID, err)
	}

	s.logger.InfoContext(ctx, "merged project record",
		"project", projectID,
		"documents", len(record.Documents),
		"fields_extracted", record.Summary.FieldsExtracted,
	)
	return record, nil
}

// UpdateField applies a human edit: navigate the record by dot-separated
// path, replace the leaf field's value, boost confidence, clear the review
// flag, and persist.
func (s *system) UpdateField(ctx context.Context, projectID, fieldPath string, newValue fields.Value) (Record, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	record, err := s.Get(ctx, projectID)
	if err != nil {
		return Record{}, err
	}

	name, err := resolveFieldPath(fieldPath)
	if err != nil {
		return Record{}, err
	}

	f, ok := record.Fields[name]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	record.Fields[name] = f.WithValue(newValue).Boost()
	record.ExtractionTime = record.ExtractionTime.UTC()

	if err := s.store.WriteProject(ctx, projectID, record); err != nil {
		return Record{}, fmt.Errorf("persist project %s: %w", projectID, err)
	}

	s.logger.InfoContext(ctx, "field updated", "project", projectID, "field", string(name))
	return record, nil
}

// Restore replaces the record with its prior persisted version.
func (s *system) Restore(ctx context.Context, projectID string) (Record, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.RestoreProject(ctx, projectID); err != nil {
		return Record{}, fmt.Errorf("restore project %s: %w", projectID, err)
	}
	return s.Get(ctx, projectID)
}

// Generate drafts report sections from the consolidated record. The
// drafter degrades internally, so a reachable record always yields
// sections.
func (s *system) Generate(ctx context.Context, projectID string) ([]enrich.DraftSection, error) {
	record, err := s.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	str := func(name fields.Name) string {
		if f, ok := record.Fields[name]; ok {
			if v, ok := f.Value.AsString(); ok {
				return v
			}
		}
		return ""
	}

	objectives := str(fields.MainObjectivesSummary)
	if objectives == "" {
		objectives = str(fields.MainObjectivesRaw)
	}

	sections := s.drafter.DraftSections(ctx,
		str(fields.EntityName),
		str(fields.RegistrationNumber),
		str(fields.CompanyType),
		objectives,
	)
	s.logger.InfoContext(ctx, "draft generated", "project", projectID, "sections", len(sections))
	return sections, nil
}

// Handler returns the HTTP handler for project endpoints.
func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination)
}

// resolveFieldPath maps a dot-separated path to a logical field name. The
// leaf segment must name a known field; intermediate segments address the
// record's field container.
func resolveFieldPath(path string) (fields.Name, error) {
	parts := strings.Split(path, ".")
	leaf := strings.TrimSpace(parts[len(parts)-1])
	if leaf == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	name, err := fields.ParseName(leaf)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return name, nil
}
