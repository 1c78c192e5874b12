package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/reefcloud/reefctl/debugctx"
	"github.com/reefcloud/reefctl/faults"
	"github.com/reefcloud/reefctl/gateway"
	"github.com/reefcloud/reefctl/resource"
)

// usageError prints the command usage and returns a validation-grade error
// so the process exits with the usage exit code.
func usageError(cmd *cobra.Command, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = "invalid command usage"
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())

	return faults.NewTypedError(faults.ValidationError, msg, nil)
}

func infof(cmd *cobra.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func newStatusLogger(cmd *cobra.Command) *charmlog.Logger {
	logger := charmlog.NewWithOptions(cmd.ErrOrStderr(), charmlog.Options{
		ReportTimestamp: false,
	})
	if noStatus, _ := cmd.Flags().GetBool("no-status"); noStatus {
		logger.SetLevel(charmlog.ErrorLevel)
	}
	return logger
}

// commandContext threads the cobra context through debugctx so providers can
// emit grouped diagnostics to stderr when --debug is set.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	debugSpec, _ := cmd.Flags().GetString("debug")
	if strings.TrimSpace(debugSpec) == "" {
		debugSpec = os.Getenv("REEFCTL_DEBUG")
	}
	if strings.TrimSpace(debugSpec) != "" {
		ctx = debugctx.WithGroups(ctx, debugSpec)
		ctx = debugctx.WithWriter(ctx, cmd.ErrOrStderr())
	}
	return ctx
}

func serviceRefFromArgs(cmd *cobra.Command, args []string) (resource.Ref, error) {
	project, _ := cmd.Flags().GetString("project")
	if strings.TrimSpace(project) == "" {
		return resource.Ref{}, faults.NewTypedError(faults.ValidationError,
			"project is required: pass --project", nil)
	}
	if len(args) < 1 || strings.TrimSpace(args[0]) == "" {
		return resource.Ref{}, faults.NewTypedError(faults.ValidationError,
			"service slug is required", nil)
	}
	return resource.Ref{
		Type:    resource.TypeService,
		Project: strings.TrimSpace(project),
		Name:    strings.TrimSpace(args[0]),
	}, nil
}

// fetchSnapshot reads the snapshot through the cache so repeated reads in
// one invocation stay consistent and superseded fetches are cancelled.
func fetchSnapshot(ctx context.Context, deps Dependencies, ref resource.Ref) (resource.Snapshot, error) {
	value, err := deps.Cache.FetchOrCached(ctx, gateway.SnapshotKey(ref), func(fetchCtx context.Context) (any, error) {
		return deps.Gateway.GetSnapshot(fetchCtx, ref)
	})
	if err != nil {
		return resource.Snapshot{}, err
	}
	snapshot, ok := value.(resource.Snapshot)
	if !ok {
		return resource.Snapshot{}, faults.NewTypedError(faults.InternalError,
			fmt.Sprintf("cache entry for %s holds an unexpected value", ref), nil)
	}
	return snapshot, nil
}

func printJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		return faults.NewTypedError(faults.InternalError, "failed to encode output", err)
	}
	return nil
}
