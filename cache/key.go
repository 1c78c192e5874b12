package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key is a structured cache key: resource kind, identity segments, an
// optional sub-resource, and optional filters. Keys render to a canonical
// string so identical tuples always address the same entry.
type Key struct {
	Kind     string
	Identity []string
	Sub      string
	Filters  map[string]string
}

func (k Key) Canonical() string {
	var builder strings.Builder
	builder.WriteString(k.Kind)
	for _, segment := range k.Identity {
		builder.WriteString("/")
		builder.WriteString(segment)
	}
	if k.Sub != "" {
		builder.WriteString("/")
		builder.WriteString(k.Sub)
	}
	if len(k.Filters) > 0 {
		names := make([]string, 0, len(k.Filters))
		for name := range k.Filters {
			names = append(names, name)
		}
		sort.Strings(names)
		builder.WriteString("?")
		for i, name := range names {
			if i > 0 {
				builder.WriteString("&")
			}
			builder.WriteString(url.QueryEscape(name))
			builder.WriteString("=")
			builder.WriteString(url.QueryEscape(k.Filters[name]))
		}
	}
	return builder.String()
}

func (k Key) String() string {
	return k.Canonical()
}

// covers reports whether key falls under prefix: equal tuples, a longer
// identity path, or the same tuple with filters. Matching is segment-safe so
// "service/acme/web" never covers "service/acme/web-two".
func covers(prefix string, key string) bool {
	if key == prefix {
		return true
	}
	if strings.HasPrefix(key, prefix+"/") {
		return true
	}
	return strings.HasPrefix(key, prefix+"?")
}
