package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reefcloud/reefctl/config"
	"github.com/reefcloud/reefctl/faults"
)

func newConfigCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		GroupID: groupUserFacing,
		Short:   "Manage reefctl contexts",
		Long: `Create and maintain contexts that describe how reefctl reaches a Reef
control plane: base URL, authentication, and TLS settings. Contexts let you
switch between deployments (for example dev, staging, and production).`,
		Example: `  # Register a context from a definition file
  reefctl config set staging ./contexts/staging.yaml

  # Switch the active context
  reefctl config use staging

  # List all contexts
  reefctl config list`,
	}

	cmd.AddCommand(newConfigSetCommand(deps))
	cmd.AddCommand(newConfigUseCommand(deps))
	cmd.AddCommand(newConfigListCommand(deps))
	cmd.AddCommand(newConfigCurrentCommand(deps))
	cmd.AddCommand(newConfigDeleteCommand(deps))

	return cmd
}

func newConfigSetCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set <name> <file>",
		Aliases: []string{"add"},
		Short:   "Register or update a context from a definition file",
		Long: `Add a context to the catalog, or replace it if the name already exists.
The first context saved into an empty catalog becomes the current one.`,
		Example: `  reefctl config set staging ./contexts/staging.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, file, err := resolveSetArgs(cmd, args)
			if err != nil {
				return err
			}

			cfg, err := loadContextDefinition(file)
			if err != nil {
				return err
			}
			cfg.Name = name

			if err := deps.Contexts.Save(commandContext(cmd), cfg); err != nil {
				return err
			}
			newStatusLogger(cmd).Info("context saved", "name", name)
			return nil
		},
	}
	return cmd
}

func newConfigUseCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "use <name>",
		Aliases: []string{"use-context"},
		Short:   "Activate a context for subsequent invocations",
		Example: `  reefctl config use staging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return usageError(cmd, "expected <name>")
			}
			name := strings.TrimSpace(args[0])
			if err := deps.Contexts.SetCurrent(commandContext(cmd), name); err != nil {
				return err
			}
			newStatusLogger(cmd).Info("context activated", "name", name)
			return nil
		},
	}
}

func newConfigListCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"list-contexts"},
		Short:   "List every context in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			contexts, err := deps.Contexts.List(ctx)
			if err != nil {
				return err
			}

			current := ""
			if resolved, err := deps.Contexts.ResolveContext(ctx, config.ContextSelection{}); err == nil {
				current = resolved.Name
			}

			for _, candidate := range contexts {
				if candidate.Name == current {
					infof(cmd, "* %s (current)", candidate.Name)
					continue
				}
				infof(cmd, "- %s", candidate.Name)
			}
			return nil
		},
	}
}

func newConfigCurrentCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the name of the active context",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := deps.Contexts.ResolveContext(commandContext(cmd), config.ContextSelection{})
			if err != nil {
				return err
			}
			infof(cmd, "%s", resolved.Name)
			return nil
		},
	}
}

func newConfigDeleteCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"delete-context"},
		Short:   "Remove a context from the catalog",
		Example: `  reefctl config delete staging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return usageError(cmd, "expected <name>")
			}
			name := strings.TrimSpace(args[0])
			if err := deps.Contexts.Delete(commandContext(cmd), name); err != nil {
				return err
			}
			newStatusLogger(cmd).Info("context deleted", "name", name)
			return nil
		},
	}
}

func resolveSetArgs(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) != 2 {
		return "", "", usageError(cmd, "expected <name> <file>")
	}
	name := strings.TrimSpace(args[0])
	file := strings.TrimSpace(args[1])
	if name == "" {
		return "", "", usageError(cmd, "name is required")
	}
	if file == "" {
		return "", "", usageError(cmd, "definition file path is required")
	}
	return name, file, nil
}

func loadContextDefinition(path string) (config.Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Context{}, faults.NewTypedError(faults.NotFoundError,
				fmt.Sprintf("context definition %s does not exist", path), err)
		}
		return config.Context{}, faults.NewTypedError(faults.InternalError,
			"failed to read context definition", err)
	}

	var cfg config.Context
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return config.Context{}, faults.NewTypedError(faults.ValidationError,
			"context definition is not valid YAML", err)
	}
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return config.Context{}, faults.NewTypedError(faults.ValidationError,
			"context definition is missing api.base-url", nil)
	}
	return cfg, nil
}
