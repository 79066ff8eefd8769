package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktracker-go/internal/task"
)

// DefaultFileMode is the permission used for new task files.
const DefaultFileMode os.FileMode = 0o644

// FileStore maps a task collection to one file.
type FileStore struct {
	path   string
	codec  Codec
	logger *log.Logger
	mode   os.FileMode
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithCodec replaces the JSON codec.
func WithCodec(c Codec) Option {
	return func(s *FileStore) {
		s.codec = c
	}
}

// WithLogger sets the logger used for load/save events.
func WithLogger(l *log.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFileMode sets the permission bits of files the store writes.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		s.mode = mode
	}
}

// NewFileStore returns a store for the file at path. Nothing is touched on disk.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:   path,
		codec:  NewJSONCodec(),
		logger: log.New(io.Discard),
		mode:   DefaultFileMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Exists reports whether the backing file is present.
func (s *FileStore) Exists() (bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", ErrStorageUnavailable, s.path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("%w: %s is a directory", ErrStorageUnavailable, s.path)
	}
	return true, nil
}

// Load reads the whole collection. A missing or empty file yields an empty
// collection and is not created.
func (s *FileStore) Load() (task.Collection, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("task file not found, using empty collection", "path", s.path)
		return task.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrStorageUnavailable, s.path, err)
	}

	tasks, err := s.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	s.logger.Debug("loaded tasks", "path", s.path, "count", len(tasks))
	return tasks, nil
}

// EnsureExists creates the backing file, holding an empty collection, if it
// is absent. Existing files are left as they are. It reports whether the file
// is usable afterwards.
func (s *FileStore) EnsureExists() (bool, error) {
	exists, err := s.Exists()
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return false, fmt.Errorf("%w: create directory for %s: %w", ErrStorageUnavailable, s.path, err)
	}

	empty, err := s.codec.Encode(task.Collection{})
	if err != nil {
		return false, err
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, s.mode)
	if errors.Is(err, fs.ErrExist) {
		// Created by someone else in the meantime.
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: create %s: %w", ErrStorageUnavailable, s.path, err)
	}
	if _, err := f.Write(empty); err != nil {
		f.Close()
		return false, fmt.Errorf("%w: initialize %s: %w", ErrStorageUnavailable, s.path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("%w: close %s: %w", ErrStorageUnavailable, s.path, err)
	}

	s.logger.Info("created task file", "path", s.path)
	return true, nil
}

// Save replaces the file with the encoded collection. The data is written to
// a temporary file in the same directory and renamed over the target, so a
// failed save leaves the previous content intact.
func (s *FileStore) Save(c task.Collection) error {
	data, err := s.codec.Encode(c)
	if err != nil {
		return err
	}
	if err := s.writeAtomic(data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	s.logger.Debug("saved tasks", "path", s.path, "count", len(c))
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, s.mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	committed = true
	return nil
}
