package documents_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/lehen20/dpr-auto/internal/documents"
	"github.com/lehen20/dpr-auto/pkg/jsonstore"
	"github.com/lehen20/dpr-auto/pkg/lifecycle"
	"github.com/lehen20/dpr-auto/pkg/pagination"
)

func newSystem(t *testing.T) documents.System {
	t.Helper()
	cfg := &jsonstore.Config{BasePath: t.TempDir()}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := jsonstore.New(cfg, logger)

	lc := lifecycle.New()
	if err := store.Start(lc); err != nil {
		t.Fatalf("start store: %v", err)
	}
	lc.WaitForStartup()

	pageCfg := pagination.Config{}
	if err := pageCfg.Finalize(nil); err != nil {
		t.Fatalf("finalize pagination: %v", err)
	}
	return documents.New(store, logger, pageCfg)
}

// minimalPDF assembles a one-page PDF with a correct xref table.
func minimalPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	objs := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n",
	}
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		buf.WriteString(obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(t)
	data := minimalPDF()

	doc, err := sys.Create(ctx, documents.CreateCommand{Data: data, Filename: "certificate.pdf"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if doc.Filename != "certificate.pdf" {
		t.Errorf("Filename = %q", doc.Filename)
	}
	if doc.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", doc.PageCount)
	}
	if doc.SizeBytes != int64(len(data)) {
		t.Errorf("SizeBytes = %d, want %d", doc.SizeBytes, len(data))
	}
	if doc.Status != documents.StatusUploaded {
		t.Errorf("Status = %q, want %q", doc.Status, documents.StatusUploaded)
	}

	stored, err := os.ReadFile(sys.FilePath(doc.ID))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Error("stored file differs from upload")
	}
}

func TestCreateRejectsNonPDF(t *testing.T) {
	sys := newSystem(t)

	_, err := sys.Create(context.Background(), documents.CreateCommand{
		Data:     []byte("this is not a pdf"),
		Filename: "notes.txt",
	})
	if !errors.Is(err, documents.ErrInvalidFile) {
		t.Errorf("err = %v, want ErrInvalidFile", err)
	}
}

func TestFindMissing(t *testing.T) {
	sys := newSystem(t)

	_, err := sys.Find(context.Background(), uuid.New())
	if !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(t)

	doc, err := sys.Create(ctx, documents.CreateCommand{Data: minimalPDF(), Filename: "a.pdf"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := sys.UpdateStatus(ctx, doc.ID, documents.StatusProcessed)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != documents.StatusProcessed {
		t.Errorf("Status = %q, want %q", updated.Status, documents.StatusProcessed)
	}
	if !updated.UpdatedAt.After(doc.UpdatedAt) && !updated.UpdatedAt.Equal(doc.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v -> %v", doc.UpdatedAt, updated.UpdatedAt)
	}

	got, err := sys.Find(ctx, doc.ID)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Status != documents.StatusProcessed {
		t.Errorf("persisted Status = %q, want %q", got.Status, documents.StatusProcessed)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(t)

	doc, err := sys.Create(ctx, documents.CreateCommand{Data: minimalPDF(), Filename: "a.pdf"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := sys.Delete(ctx, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(sys.FilePath(doc.ID)); !os.IsNotExist(err) {
		t.Error("uploaded file still on disk after delete")
	}
	if _, err := sys.Find(ctx, doc.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("Find after delete: err = %v, want ErrNotFound", err)
	}
	if err := sys.Delete(ctx, doc.ID); !errors.Is(err, documents.ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
}

func TestListSearch(t *testing.T) {
	ctx := context.Background()
	sys := newSystem(t)

	for _, name := range []string{"certificate.pdf", "memorandum.pdf"} {
		if _, err := sys.Create(ctx, documents.CreateCommand{Data: minimalPDF(), Filename: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	page, err := sys.List(ctx, pagination.PageRequest{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}

	search := "MEMO"
	page, err = sys.List(ctx, pagination.PageRequest{Page: 1, PageSize: 10, Search: &search})
	if err != nil {
		t.Fatalf("List with search: %v", err)
	}
	if page.Total != 1 || page.Data[0].Filename != "memorandum.pdf" {
		t.Errorf("search matched %d records, want just memorandum.pdf", page.Total)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{documents.ErrNotFound, http.StatusNotFound},
		{documents.ErrInvalidFile, http.StatusBadRequest},
		{documents.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := documents.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
