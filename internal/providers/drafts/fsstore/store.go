// Package fsstore keeps drafts as plain files under the user's config
// directory, one file per resource address.
package fsstore

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/reefcloud/reefctl/drafts"
	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/resource"
)

const draftExtension = ".draft"

var _ drafts.Store = (*Store)(nil)

type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, faults.NewTypedError(faults.ValidationError, "draft store base directory is required", nil)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) Load(ref resource.Ref) (string, bool, error) {
	path, err := s.draftPath(ref)
	if err != nil {
		return "", false, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, faults.NewTypedError(faults.InternalError, "failed to read draft", err)
	}
	return string(raw), true, nil
}

func (s *Store) Save(ref resource.Ref, text string) error {
	path, err := s.draftPath(ref)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to create draft directory", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to write draft", err)
	}
	return nil
}

func (s *Store) Discard(ref resource.Ref) error {
	path, err := s.draftPath(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return faults.NewTypedError(faults.InternalError, "failed to discard draft", err)
	}
	return nil
}

func (s *Store) draftPath(ref resource.Ref) (string, error) {
	if ref.IsZero() {
		return "", faults.NewTypedError(faults.ValidationError, "draft ref is required", nil)
	}

	segments := []string{string(ref.Type)}
	if ref.Project != "" {
		segments = append(segments, ref.Project)
	}
	if ref.Name != "" {
		segments = append(segments, ref.Name)
	}
	return filepath.Join(s.baseDir, strings.Join(segments, "_")+draftExtension), nil
}
