package gateway

import (
	"github.com/reefcloud/reefctl/cache"
	"github.com/reefcloud/reefctl/resource"
)

// SnapshotKey addresses the cached snapshot (and embedded pending changes)
// of one resource.
func SnapshotKey(ref resource.Ref) cache.Key {
	return cache.Key{
		Kind:     string(ref.Type),
		Identity: identityOf(ref),
	}
}

// ServiceListKey addresses the cached service listing of a project. Renames
// invalidate it because the listing embeds slugs.
func ServiceListKey(project string) cache.Key {
	return cache.Key{
		Kind:     string(resource.TypeProject),
		Identity: []string{project},
		Sub:      "services",
	}
}

func identityOf(ref resource.Ref) []string {
	var identity []string
	if ref.Project != "" {
		identity = append(identity, ref.Project)
	}
	if ref.Name != "" {
		identity = append(identity, ref.Name)
	}
	return identity
}
