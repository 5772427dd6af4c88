package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes rendered reports to the local filesystem so they can be
// served as downloads.
type FileStore struct {
	baseDir string
}

// NewFileStore creates the base directory if needed and verifies it is
// writable.
func NewFileStore(baseDir string) (*FileStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("reports directory is required")
	}

	info, err := os.Stat(baseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create reports directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat reports directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("reports path is not a directory")
	}

	testFile := filepath.Join(baseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("reports directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up test file: %w", err)
	}

	return &FileStore{baseDir: baseDir}, nil
}

// Put writes an HTML report under the record id and returns the file path.
func (s *FileStore) Put(recordID string, html string) (string, error) {
	name, err := s.fileName(recordID)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(name, []byte(html), 0o600); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return name, nil
}

// Path returns the on-disk location for a record's report, which may not
// exist yet.
func (s *FileStore) Path(recordID string) (string, error) {
	return s.fileName(recordID)
}

func (s *FileStore) fileName(recordID string) (string, error) {
	if strings.TrimSpace(recordID) == "" {
		return "", fmt.Errorf("record id is required")
	}
	full := filepath.Join(s.baseDir, recordID+".html")

	// reject ids that would escape the base directory
	cleanBase := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(full), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid record id %q", recordID)
	}
	return full, nil
}
