package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/reefcloud/reefctl/cli/cmd"
	"github.com/reefcloud/reefctl/config"
	"github.com/reefcloud/reefctl/core"
)

func main() {
	args := os.Args[1:]
	deps := cmd.Dependencies{
		Contexts: core.NewContextService(core.BootstrapConfig{}),
	}
	if !shouldSkipContextBootstrap(args) {
		reefContext, err := core.NewReefContext(
			core.BootstrapConfig{},
			config.ContextSelection{Name: contextNameFromArgs(args)},
		)
		if err != nil {
			if !isShellCompletionInvocation(args) {
				_, _ = fmt.Fprintln(os.Stderr, err)
				os.Exit(cmd.ExitCodeForError(err))
			}
		} else {
			deps = cmd.Dependencies{
				Contexts: reefContext.Contexts,
				Cache:    reefContext.Cache,
				Gateway:  reefContext.Gateway,
				Drafts:   reefContext.Drafts,
				Verifier: reefContext.Verifier,
			}
		}
	}

	if err := cmd.Execute(deps); err != nil {
		os.Exit(cmd.ExitCodeForError(err))
	}
}

// contextNameFromArgs pre-parses --context before cobra runs, so the
// bootstrap can resolve the right catalog entry.
func contextNameFromArgs(args []string) string {
	flags := pflag.NewFlagSet("context", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.SetOutput(io.Discard)

	var name string
	flags.StringVarP(&name, "context", "c", "", "context to use for this invocation")
	if err := flags.Parse(args); err != nil {
		return ""
	}
	return strings.TrimSpace(name)
}

func isHelpInvocation(args []string) bool {
	if len(args) == 0 {
		return true
	}
	if args[0] == "help" {
		return true
	}

	for _, current := range args {
		if current == "--" {
			break
		}
		if current == "--help" || current == "-h" {
			return true
		}
	}

	return false
}

func isCompletionScriptInvocation(args []string) bool {
	if len(args) == 0 {
		return false
	}
	return args[0] == "completion"
}

func isShellCompletionInvocation(args []string) bool {
	if len(args) == 0 {
		return false
	}
	return args[0] == "__complete" || args[0] == "__completeNoDesc"
}

func shouldSkipContextBootstrap(args []string) bool {
	if isHelpInvocation(args) {
		return true
	}
	if isCompletionScriptInvocation(args) {
		return true
	}
	if isShellCompletionInvocation(args) {
		return true
	}

	commandPath, ok := resolveRunnableCommandPath(args)
	if !ok {
		return true
	}

	return !cmd.RequiresContextBootstrapPath(commandPath)
}

func resolveRunnableCommandPath(args []string) (string, bool) {
	probe := cmd.NewRootCommand(cmd.Dependencies{})
	command, _, err := probe.Find(args)
	if err != nil {
		return "", false
	}
	if command == nil || !command.Runnable() {
		return "", false
	}
	return strings.TrimSpace(command.CommandPath()), true
}
