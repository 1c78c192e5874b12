package debugctx

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Group names diagnostics a user can opt into with --debug.
type Group string

const (
	GroupNetwork Group = "network"
	GroupCache   Group = "cache"
	GroupDrafts  Group = "drafts"
	GroupAll     Group = "all"
)

type groupsKey struct{}
type writerKey struct{}

// WithGroups enables the given comma-separated debug groups on the context.
func WithGroups(ctx context.Context, spec string) context.Context {
	enabled := map[Group]bool{}
	for _, raw := range strings.Split(spec, ",") {
		name := Group(strings.TrimSpace(strings.ToLower(raw)))
		if name == "" {
			continue
		}
		enabled[name] = true
	}
	if len(enabled) == 0 {
		return ctx
	}
	return context.WithValue(ctx, groupsKey{}, enabled)
}

func Enabled(ctx context.Context, group Group) bool {
	if ctx == nil {
		return false
	}
	enabled, _ := ctx.Value(groupsKey{}).(map[Group]bool)
	if enabled == nil {
		return false
	}
	return enabled[group] || enabled[GroupAll]
}

func WithWriter(ctx context.Context, writer io.Writer) context.Context {
	if writer == nil {
		return ctx
	}
	return context.WithValue(ctx, writerKey{}, writer)
}

func Writer(ctx context.Context) io.Writer {
	if ctx == nil {
		return nil
	}
	writer, _ := ctx.Value(writerKey{}).(io.Writer)
	return writer
}

func Printf(ctx context.Context, group Group, format string, args ...any) {
	if !Enabled(ctx, group) {
		return
	}

	writer := Writer(ctx)
	if writer == nil {
		return
	}

	message := strings.TrimSpace(fmt.Sprintf(format, args...))
	if message == "" {
		return
	}

	_, _ = fmt.Fprintf(writer, "debug(%s): %s\n", string(group), message)
}
