package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFileType is returned when the upload extension is not allowed.
var ErrInvalidFileType = errors.New("invalid file type")

// allowedExtensions is the upload whitelist.
var allowedExtensions = map[string]struct{}{
	".jpeg": {}, ".jpg": {}, ".png": {}, ".gif": {}, ".pdf": {},
	".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".txt": {}, ".zip": {},
}

// DiskStore persists attachment blobs on the local filesystem under a single
// upload directory, keyed by generated names so original filenames never
// touch the disk.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the blob and returns its storage key.
func (s *DiskStore) Save(fileName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrInvalidFileType
	}

	key := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return key, nil
}

// Path resolves a storage key to its on-disk path. Keys containing path
// separators are rejected.
func (s *DiskStore) Path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", errors.New("invalid storage key")
	}
	path := filepath.Join(s.dir, key)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes the blob for a storage key. Missing blobs are not an error.
func (s *DiskStore) Remove(key string) error {
	if key == "" || key != filepath.Base(key) {
		return errors.New("invalid storage key")
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
