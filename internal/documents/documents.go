// Package documents owns uploaded document files and their metadata.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/lehen20/dpr-auto/pkg/jsonstore"
	"github.com/lehen20/dpr-auto/pkg/pagination"
)

// Document is the stored metadata for one uploaded file.
type Document struct {
	ID         uuid.UUID `json:"id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	PageCount  int       `json:"page_count"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateCommand carries an upload's content and metadata.
type CreateCommand struct {
	Data     []byte
	Filename string
}

// System manages document files and metadata.
type System interface {
	Create(ctx context.Context, cmd CreateCommand) (Document, error)
	Find(ctx context.Context, id uuid.UUID) (Document, error)
	List(ctx context.Context, req pagination.PageRequest) (pagination.PageResult[Document], error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Document, error)
	FilePath(id uuid.UUID) string
	Handler() *Handler
}

type system struct {
	store      jsonstore.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the document system.
func New(store jsonstore.System, logger *slog.Logger, pageCfg pagination.Config) System {
	return &system{
		store:      store,
		logger:     logger.With("system", "documents"),
		pagination: pageCfg,
	}
}

// Create validates the upload as a PDF, records its page count, writes the
// file under the data directory, and persists metadata.
func (s *system) Create(ctx context.Context, cmd CreateCommand) (Document, error) {
	pageCount, err := api.PageCount(bytes.NewReader(cmd.Data), nil)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	now := time.Now().UTC()
	doc := Document{
		ID:         uuid.New(),
		Filename:   cmd.Filename,
		SizeBytes:  int64(len(cmd.Data)),
		PageCount:  pageCount,
		Status:     StatusUploaded,
		UploadedAt: now,
		UpdatedAt:  now,
	}

	path := s.store.DocumentFile(doc.ID.String(), ".pdf")
	if err := os.WriteFile(path, cmd.Data, 0o644); err != nil {
		return Document{}, fmt.Errorf("write document file: %w", err)
	}

	if err := s.store.WriteDocument(ctx, doc.ID.String(), doc); err != nil {
		os.Remove(path)
		return Document{}, fmt.Errorf("persist document metadata: %w", err)
	}

	s.logger.InfoContext(ctx, "document uploaded", "document", doc.ID, "filename", doc.Filename, "pages", doc.PageCount)
	return doc, nil
}

func (s *system) Find(ctx context.Context, id uuid.UUID) (Document, error) {
	var doc Document
	if err := s.store.ReadDocument(ctx, id.String(), &doc); err != nil {
		if errors.Is(err, jsonstore.ErrNotFound) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Document{}, fmt.Errorf("read document %s: %w", id, err)
	}
	return doc, nil
}

func (s *system) List(ctx context.Context, req pagination.PageRequest) (pagination.PageResult[Document], error) {
	ids, err := s.store.ListDocuments(ctx)
	if err != nil {
		return pagination.PageResult[Document]{}, fmt.Errorf("list documents: %w", err)
	}
	sort.Strings(ids)

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		var doc Document
		if err := s.store.ReadDocument(ctx, id, &doc); err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable document metadata", "document", id, "error", err)
			continue
		}
		if req.Search != nil && !strings.Contains(strings.ToLower(doc.Filename), strings.ToLower(*req.Search)) {
			continue
		}
		docs = append(docs, doc)
	}

	return pagination.Slice(docs, req), nil
}

func (s *system) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteDocument(ctx, id.String()); err != nil {
		if errors.Is(err, jsonstore.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	if err := os.Remove(s.store.DocumentFile(id.String(), ".pdf")); err != nil && !os.IsNotExist(err) {
		s.logger.WarnContext(ctx, "document file removal failed", "document", id, "error", err)
	}
	return nil
}

// UpdateStatus transitions a document's processing status.
func (s *system) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Document, error) {
	doc, err := s.Find(ctx, id)
	if err != nil {
		return Document{}, err
	}

	doc.Status = status
	doc.UpdatedAt = time.Now().UTC()
	if err := s.store.WriteDocument(ctx, doc.ID.String(), doc); err != nil {
		return Document{}, fmt.Errorf("update document %s status: %w", id, err)
	}

	s.logger.InfoContext(ctx, "document status updated", "document", doc.ID, "status", status)
	return doc, nil
}

// FilePath returns the on-disk location of a document's uploaded file.
func (s *system) FilePath(id uuid.UUID) string {
	return s.store.DocumentFile(id.String(), ".pdf")
}

// Handler returns the HTTP handler for document endpoints.
func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination)
}
