package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ekaya-inc/ekaya-nlsql/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-nlsql/pkg/models"
)

// ArtifactStore reads and writes the rendered schema context file.
type ArtifactStore struct {
	path string
}

// NewArtifactStore returns a store for the artifact at path.
func NewArtifactStore(path string) *ArtifactStore {
	return &ArtifactStore{path: path}
}

// Path returns the artifact location.
func (s *ArtifactStore) Path() string {
	return s.path
}

// Write renders desc and replaces the artifact atomically: the text is
// written to a temporary file in the same directory and renamed over the
// artifact. On failure the previous artifact is left untouched.
func (s *ArtifactStore) Write(desc *models.SchemaDescription) error {
	return s.WriteText(desc.Render())
}

// WriteText atomically replaces the artifact with text.
func (s *ArtifactStore) WriteText(text string) (err error) {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp artifact: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp artifact: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}

	return nil
}

// Read returns the artifact text. A missing artifact yields an error wrapping
// apperrors.ErrSchemaArtifactMissing.
func (s *ArtifactStore) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", apperrors.ErrSchemaArtifactMissing, s.path)
		}
		return "", fmt.Errorf("read schema artifact: %w", err)
	}
	return string(data), nil
}
