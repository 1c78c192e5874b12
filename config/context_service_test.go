package config

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/reefcloud/reefctl/faults"
)

func tempService(t *testing.T) *FileContextService {
	t.Helper()
	return NewFileContextService(filepath.Join(t.TempDir(), "contexts.yaml"))
}

func TestSaveAndResolveContext(t *testing.T) {
	t.Parallel()

	service := tempService(t)
	ctx := context.Background()

	err := service.Save(ctx, Context{
		Name: "staging",
		API:  API{BaseURL: "https://panel.staging.example.com/api"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// First saved context becomes current.
	resolved, err := service.ResolveContext(ctx, ContextSelection{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Name != "staging" {
		t.Fatalf("expected staging, got %q", resolved.Name)
	}

	err = service.Save(ctx, Context{
		Name: "production",
		API:  API{BaseURL: "https://panel.example.com/api"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, err = service.ResolveContext(ctx, ContextSelection{Name: "production"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.API.BaseURL != "https://panel.example.com/api" {
		t.Fatalf("unexpected base url: %q", resolved.API.BaseURL)
	}
}

func TestResolveContextEnvOverride(t *testing.T) {
	service := tempService(t)
	ctx := context.Background()

	for _, name := range []string{"staging", "production"} {
		if err := service.Save(ctx, Context{Name: name, API: API{BaseURL: "https://" + name}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := service.SetCurrent(ctx, "staging"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv(ContextNameEnvVar, "production")
	resolved, err := service.ResolveContext(ctx, ContextSelection{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Name != "production" {
		t.Fatalf("env override must win over current-ctx, got %q", resolved.Name)
	}
}

func TestSaveValidation(t *testing.T) {
	t.Parallel()

	service := tempService(t)
	ctx := context.Background()

	if err := service.Save(ctx, Context{API: API{BaseURL: "https://x"}}); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("missing name must fail validation, got %v", err)
	}
	if err := service.Save(ctx, Context{Name: "x"}); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("missing base-url must fail validation, got %v", err)
	}
}

func TestDeleteAndSetCurrentUnknown(t *testing.T) {
	t.Parallel()

	service := tempService(t)
	ctx := context.Background()

	if err := service.Delete(ctx, "ghost"); !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err := service.SetCurrent(ctx, "ghost"); !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestDeleteClearsCurrent(t *testing.T) {
	t.Parallel()

	service := tempService(t)
	ctx := context.Background()

	if err := service.Save(ctx, Context{Name: "solo", API: API{BaseURL: "https://x"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.Delete(ctx, "solo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := service.ResolveContext(ctx, ContextSelection{})
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected no-context-selected error, got %v", err)
	}
}
