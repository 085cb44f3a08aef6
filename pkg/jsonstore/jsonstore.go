// Package jsonstore provides key-value JSON persistence on the local
// filesystem with atomic writes, single prior-version backups, and
// advisory read locking.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/lehen20/dpr-auto/pkg/lifecycle"
)

// System manages JSON record persistence and lifecycle coordination.
// Documents and projects occupy separate namespaces keyed by ID; the runs
// namespace holds workflow checkpoint state.
type System interface {
	// Start registers a startup hook that creates the store directories.
	Start(lc *lifecycle.Coordinator) error

	WriteDocument(ctx context.Context, id string, v any) error
	ReadDocument(ctx context.Context, id string, out any) error
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context) ([]string, error)

	// WriteProject keeps a single prior-version backup of any overwritten
	// record; RestoreProject reinstates it.
	WriteProject(ctx context.Context, id string, v any) error
	ReadProject(ctx context.Context, id string, out any) error
	DeleteProject(ctx context.Context, id string) error
	ListProjects(ctx context.Context) ([]string, error)
	RestoreProject(ctx context.Context, id string) error

	WriteRun(ctx context.Context, id string, v any) error
	ReadRun(ctx context.Context, id string, out any) error
	DeleteRun(ctx context.Context, id string) error
	ListRuns(ctx context.Context) ([]string, error)

	// DocumentFile returns the path reserved for a document's raw file.
	DocumentFile(id, ext string) string
}

type fileStore struct {
	cfg    *Config
	logger *slog.Logger
}

// New creates a file-backed store from the given configuration.
// Directories are not created until Start is called.
func New(cfg *Config, logger *slog.Logger) System {
	return &fileStore{
		cfg:    cfg,
		logger: logger.With("system", "jsonstore"),
	}
}

func (s *fileStore) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting json store", "base_path", s.cfg.BasePath)

	lc.OnStartup(func() {
		for _, dir := range []string{
			s.cfg.DocumentsPath(),
			s.cfg.ProjectsPath(),
			s.cfg.RunsPath(),
		} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				s.logger.Error("store directory initialization failed", "dir", dir, "error", err)
				return
			}
		}
		s.logger.Info("store directories ready")
	})

	return nil
}

func (s *fileStore) WriteDocument(_ context.Context, id string, v any) error {
	return s.atomicWrite(s.documentPath(id), v, false)
}

func (s *fileStore) ReadDocument(_ context.Context, id string, out any) error {
	return s.read(s.documentPath(id), out)
}

func (s *fileStore) DeleteDocument(_ context.Context, id string) error {
	if err := remove(s.documentPath(id)); err != nil {
		return err
	}
	// Raw document files share the metadata's lifetime.
	matches, _ := filepath.Glob(filepath.Join(s.cfg.DocumentsPath(), id+".*"))
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			s.logger.Warn("document file removal failed", "path", m, "error", err)
		}
	}
	return nil
}

func (s *fileStore) ListDocuments(_ context.Context) ([]string, error) {
	return list(s.cfg.DocumentsPath(), metadataSuffix)
}

func (s *fileStore) WriteProject(_ context.Context, id string, v any) error {
	return s.atomicWrite(s.projectPath(id), v, true)
}

func (s *fileStore) ReadProject(_ context.Context, id string, out any) error {
	return s.read(s.projectPath(id), out)
}

func (s *fileStore) DeleteProject(_ context.Context, id string) error {
	path := s.projectPath(id)
	if err := remove(path); err != nil {
		return err
	}
	if err := os.Remove(path + backupSuffix); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("project backup removal failed", "id", id, "error", err)
	}
	return nil
}

func (s *fileStore) ListProjects(_ context.Context) ([]string, error) {
	return list(s.cfg.ProjectsPath(), ".json")
}

func (s *fileStore) RestoreProject(_ context.Context, id string) error {
	path := s.projectPath(id)
	backup := path + backupSuffix

	data, err := os.ReadFile(backup)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("restore project %s: %w", id, ErrNoBackup)
		}
		return fmt.Errorf("restore project %s: %w", id, err)
	}

	if err := writeBytes(path, data); err != nil {
		return fmt.Errorf("restore project %s: %w", id, err)
	}

	s.logger.Info("project restored from backup", "id", id)
	return nil
}

func (s *fileStore) WriteRun(_ context.Context, id string, v any) error {
	return s.atomicWrite(s.runPath(id), v, false)
}

func (s *fileStore) ReadRun(_ context.Context, id string, out any) error {
	return s.read(s.runPath(id), out)
}

func (s *fileStore) DeleteRun(_ context.Context, id string) error {
	return remove(s.runPath(id))
}

func (s *fileStore) ListRuns(_ context.Context) ([]string, error) {
	return list(s.cfg.RunsPath(), ".json")
}

func (s *fileStore) DocumentFile(id, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(s.cfg.DocumentsPath(), id+ext)
}

const (
	metadataSuffix = "_metadata.json"
	backupSuffix   = ".backup"
)

func (s *fileStore) documentPath(id string) string {
	return filepath.Join(s.cfg.DocumentsPath(), id+metadataSuffix)
}

func (s *fileStore) projectPath(id string) string {
	return filepath.Join(s.cfg.ProjectsPath(), id+".json")
}

func (s *fileStore) runPath(id string) string {
	return filepath.Join(s.cfg.RunsPath(), id+".json")
}

// atomicWrite marshals v and writes it via temp file + fsync + rename so a
// reader never observes a partially written record. When backup is set and a
// prior version exists, it is copied aside first.
func (s *fileStore) atomicWrite(path string, v any, backup bool) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	if backup {
		if err := copyFile(path, path+backupSuffix); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("backup copy failed", "path", path, "error", err)
		}
	}

	return writeBytes(path, data)
}

func writeBytes(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// read takes a shared advisory lock for the duration of the read so a
// concurrent backup copy never observes a half-replaced file.
func (s *fileStore) read(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
		}
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err == nil {
		defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w: %v", filepath.Base(path), ErrCorrupt, err)
	}
	return nil
}

func remove(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
		}
		return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
	}
	return nil
}

func list(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) || strings.HasSuffix(name, backupSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, suffix))
	}
	return ids, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := unix.Flock(int(in.Fd()), unix.LOCK_SH); err == nil {
		defer unix.Flock(int(in.Fd()), unix.LOCK_UN)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
