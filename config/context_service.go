package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/reefcloud/reefctl/faults"
)

type ContextResolver interface {
	ResolveContext(ctx context.Context, selection ContextSelection) (Context, error)
}

type ContextCatalogService interface {
	ContextResolver
	List(ctx context.Context) ([]Context, error)
	Save(ctx context.Context, cfg Context) error
	SetCurrent(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
}

// FileContextService keeps the context catalog in a YAML file, by default
// under the user's home directory. The catalog file path and the selected
// context can both be overridden through environment variables.
type FileContextService struct {
	CatalogPath string

	mu sync.Mutex
}

func NewFileContextService(catalogPath string) *FileContextService {
	return &FileContextService{CatalogPath: catalogPath}
}

func (s *FileContextService) ResolveContext(_ context.Context, selection ContextSelection) (Context, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return Context{}, err
	}

	name := strings.TrimSpace(selection.Name)
	if name == "" {
		name = strings.TrimSpace(os.Getenv(ContextNameEnvVar))
	}
	if name == "" {
		name = catalog.CurrentCtx
	}
	if name == "" {
		return Context{}, faults.NewTypedError(faults.ValidationError,
			"no context selected: run \"reefctl config use <name>\" or set "+ContextNameEnvVar, nil)
	}

	for _, candidate := range catalog.Contexts {
		if candidate.Name == name {
			return candidate, nil
		}
	}
	return Context{}, faults.NewTypedError(faults.NotFoundError,
		fmt.Sprintf("context %q not found in catalog", name), nil)
}

func (s *FileContextService) List(_ context.Context) ([]Context, error) {
	catalog, err := s.loadCatalog()
	if err != nil {
		return nil, err
	}
	return catalog.Contexts, nil
}

func (s *FileContextService) Save(_ context.Context, cfg Context) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return faults.NewTypedError(faults.ValidationError, "context name is required", nil)
	}
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return faults.NewTypedError(faults.ValidationError, "api base-url is required", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.loadCatalogLocked()
	if err != nil {
		return err
	}

	replaced := false
	for i := range catalog.Contexts {
		if catalog.Contexts[i].Name == cfg.Name {
			catalog.Contexts[i] = cfg
			replaced = true
			break
		}
	}
	if !replaced {
		catalog.Contexts = append(catalog.Contexts, cfg)
	}
	if catalog.CurrentCtx == "" {
		catalog.CurrentCtx = cfg.Name
	}

	return s.saveCatalogLocked(catalog)
}

func (s *FileContextService) SetCurrent(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.loadCatalogLocked()
	if err != nil {
		return err
	}

	for _, candidate := range catalog.Contexts {
		if candidate.Name == name {
			catalog.CurrentCtx = name
			return s.saveCatalogLocked(catalog)
		}
	}
	return faults.NewTypedError(faults.NotFoundError,
		fmt.Sprintf("context %q not found in catalog", name), nil)
}

func (s *FileContextService) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	catalog, err := s.loadCatalogLocked()
	if err != nil {
		return err
	}

	kept := catalog.Contexts[:0]
	found := false
	for _, candidate := range catalog.Contexts {
		if candidate.Name == name {
			found = true
			continue
		}
		kept = append(kept, candidate)
	}
	if !found {
		return faults.NewTypedError(faults.NotFoundError,
			fmt.Sprintf("context %q not found in catalog", name), nil)
	}
	catalog.Contexts = kept
	if catalog.CurrentCtx == name {
		catalog.CurrentCtx = ""
	}

	return s.saveCatalogLocked(catalog)
}

func (s *FileContextService) loadCatalog() (ContextCatalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCatalogLocked()
}

func (s *FileContextService) loadCatalogLocked() (ContextCatalog, error) {
	path, err := s.resolveCatalogPath()
	if err != nil {
		return ContextCatalog{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ContextCatalog{}, nil
		}
		return ContextCatalog{}, faults.NewTypedError(faults.InternalError,
			"failed to read context catalog", err)
	}

	var catalog ContextCatalog
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return ContextCatalog{}, faults.NewTypedError(faults.ValidationError,
			fmt.Sprintf("malformed context catalog at %s", path), err)
	}
	return catalog, nil
}

func (s *FileContextService) saveCatalogLocked(catalog ContextCatalog) error {
	path, err := s.resolveCatalogPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to create catalog directory", err)
	}

	raw, err := yaml.Marshal(catalog)
	if err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to encode context catalog", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to write context catalog", err)
	}
	return nil
}

func (s *FileContextService) resolveCatalogPath() (string, error) {
	path := strings.TrimSpace(s.CatalogPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(ContextFileEnvVar))
	}
	if path == "" {
		path = DefaultContextCatalogPath
	}
	return expandHome(path)
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") && path != "~" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", faults.NewTypedError(faults.InternalError, "failed to resolve home directory", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
