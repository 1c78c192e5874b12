// Package core wires providers into a ready-to-use client context: context
// catalog, query cache, HTTP gateway, draft store, and git source verifier.
package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/reefcloud/reefctl/cache"
	"github.com/reefcloud/reefctl/config"
	"github.com/reefcloud/reefctl/drafts"
	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/gateway"
	apihttp "github.com/reefcloud/reefctl/internal/providers/api/http"
	"github.com/reefcloud/reefctl/internal/providers/drafts/fsstore"
	"github.com/reefcloud/reefctl/internal/providers/gitremote"
)

type ReefContext struct {
	Contexts config.ContextCatalogService
	Cache    *cache.Store
	Gateway  gateway.Gateway
	Drafts   drafts.Store
	Verifier gitremote.Verifier
}

type BootstrapConfig struct {
	ContextCatalogPath string
	DraftsDir          string
}

// NewContextService builds just the catalog service, for commands that must
// work before any context is configured.
func NewContextService(cfg BootstrapConfig) config.ContextCatalogService {
	return config.NewFileContextService(cfg.ContextCatalogPath)
}

// NewReefContext resolves the selected context and wires the full client.
func NewReefContext(cfg BootstrapConfig, selection config.ContextSelection) (*ReefContext, error) {
	contexts := NewContextService(cfg)

	resolved, err := contexts.ResolveContext(context.Background(), selection)
	if err != nil {
		return nil, err
	}

	store := cache.NewStore()
	apiGateway, err := apihttp.NewAPIGateway(resolved.API, store)
	if err != nil {
		return nil, err
	}

	draftsDir, err := resolveDraftsDir(cfg)
	if err != nil {
		return nil, err
	}
	draftStore, err := fsstore.NewStore(draftsDir)
	if err != nil {
		return nil, err
	}

	return &ReefContext{
		Contexts: contexts,
		Cache:    store,
		Gateway:  apiGateway,
		Drafts:   draftStore,
		Verifier: gitremote.NewRemoteVerifier(),
	}, nil
}

func resolveDraftsDir(cfg BootstrapConfig) (string, error) {
	if strings.TrimSpace(cfg.DraftsDir) != "" {
		return cfg.DraftsDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", faults.NewTypedError(faults.InternalError, "failed to resolve home directory", err)
	}
	return filepath.Join(home, ".reefctl", "drafts"), nil
}
