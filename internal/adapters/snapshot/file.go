package snapshot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	perr "ghrepostats/internal/platform/errors"
)

// FileStore keeps one JSON document per key at <root>/<owner>/<name>/<Kind>.json
type FileStore struct {
	root string
}

// NewFileStore roots the store at dir; directories are created on first save
func NewFileStore(dir string) *FileStore { return &FileStore{root: dir} }

// Path returns where key is stored
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.root, key.Owner, key.Name, string(key.Kind)+".json")
}

// Load reads the document for key, nil when absent
func (s *FileStore) Load(_ context.Context, key Key) ([]byte, error) {
	b, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, perr.Storagef(err, "read snapshot %s", key)
	}
	return b, nil
}

// Save writes doc next to its final path and renames it into place
func (s *FileStore) Save(_ context.Context, key Key, doc []byte) error {
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return perr.Storagef(err, "create snapshot dir for %s", key)
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		_ = os.Remove(tmp)
		return perr.Storagef(err, "write snapshot %s", key)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return perr.Storagef(err, "commit snapshot %s", key)
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error { return nil }
