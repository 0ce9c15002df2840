package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultTokenField is the JSON key holding the token.
const DefaultTokenField = "token"

// FileStore persists a single session token as a JSON object in a local file.
// It is not safe for concurrent writers; the last write wins.
type FileStore struct {
	path  string
	field string
}

// NewFileStore returns a store for path keyed by field.
func NewFileStore(path, field string) *FileStore {
	if field == "" {
		field = DefaultTokenField
	}
	return &FileStore{path: path, field: field}
}

// Path reports the location of the session file.
func (s *FileStore) Path() string {
	return s.path
}

// Save replaces any stored session with token. The parent directory is
// created with mode 0700 and the file is owner-only.
func (s *FileStore) Save(token string) error {
	data, err := json.Marshal(map[string]string{s.field: token})
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	directory := filepath.Dir(s.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file %s: %w", s.path, err)
	}
	// WriteFile keeps the mode of a pre-existing file.
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("securing session file %s: %w", s.path, err)
	}
	return nil
}

// Load returns the stored token. ok is false, with a nil error, when no
// session file exists or it holds no token.
func (s *FileStore) Load() (token string, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading session file %s: %w", s.path, err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return "", false, fmt.Errorf("parsing session file %s: %w", s.path, err)
	}
	raw, present := record[s.field]
	if !present || raw == nil {
		return "", false, nil
	}
	token, isString := raw.(string)
	if !isString {
		return "", false, fmt.Errorf("session file %s: %q is not a string", s.path, s.field)
	}
	return token, token != "", nil
}

// Clear removes the session file. Clearing an absent session succeeds.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session file %s: %w", s.path, err)
	}
	return nil
}
