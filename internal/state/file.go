package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the document in a single file. Paths ending in .yaml or
// .yml are written as YAML, anything else as JSON.
type FileStore struct {
	path string
	yaml bool
}

func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("state path is empty")
	}
	ext := strings.ToLower(filepath.Ext(path))
	return &FileStore{path: path, yaml: ext == ".yaml" || ext == ".yml"}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) String() string {
	if s.yaml {
		return "yaml:" + s.path
	}
	return "json:" + s.path
}

// Load returns an empty state when the file does not exist yet.
func (s *FileStore) Load(_ context.Context) (*TradingState, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", s.path, err)
	}
	var st *TradingState
	if s.yaml {
		st, err = DecodeYAML(raw)
	} else {
		st, err = DecodeJSON(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", s.path, err)
	}
	return st, nil
}

// Save replaces the file atomically through a temp file in the same directory.
func (s *FileStore) Save(_ context.Context, st *TradingState) error {
	var (
		raw []byte
		err error
	)
	if s.yaml {
		raw, err = EncodeYAML(st)
	} else {
		raw, err = EncodeJSON(st)
	}
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return writeFileAtomic(s.path, raw)
}

func (s *FileStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
