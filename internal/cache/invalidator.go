// Package cache provides tag-based invalidation of cached read views.
// Cached entries are tracked under logical resource tags scoped by tenant,
// organization and record id; invalidating a tag drops every entry tracked
// under it.
package cache

import (
	"context"
	"strings"
)

// Identifiers scope an invalidation to a record and its tenant/org.
// Empty fields simply narrow the set of derived tags.
type Identifiers struct {
	ID             string
	TenantID       string
	OrganizationID string
}

// Identifiable lets a command result expose the identifiers its cached read
// views are tagged with. Results that do not implement it fall back to the
// bus's metadata/input/scope sourcing.
type Identifiable interface {
	CacheIdentifiers() Identifiers
}

// Invalidator drops cached read views for a logical resource. Callers treat
// it as best-effort: errors are reported but must never fail a command.
type Invalidator interface {
	Invalidate(ctx context.Context, resource string, ids Identifiers, reason string, aliases []string) error
}

// AliasesForCommand derives the alias tags for a command id by stripping
// trailing segments: "directory.organizations.update" yields
// ["directory.organizations", "directory"]. Read views cached under a module
// or module-group tag are invalidated alongside the exact resource tag.
func AliasesForCommand(commandID string) []string {
	parts := strings.Split(commandID, ".")
	if len(parts) <= 1 {
		return nil
	}

	aliases := make([]string, 0, len(parts)-1)
	for i := len(parts) - 1; i >= 1; i-- {
		aliases = append(aliases, strings.Join(parts[:i], "."))
	}
	return aliases
}

// ExpandTags lists every tag an invalidation touches, most specific first.
// Duplicate tags (e.g. an alias equal to the resource) are collapsed.
func ExpandTags(resource string, ids Identifiers, aliases []string) []string {
	var tags []string
	seen := make(map[string]struct{})

	add := func(tag string) {
		if tag == "" {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	scoped := func(base string) {
		if ids.TenantID != "" && ids.ID != "" {
			add(base + ":" + ids.TenantID + ":" + ids.ID)
		}
		if ids.TenantID != "" && ids.OrganizationID != "" {
			add(base + ":" + ids.TenantID + ":org:" + ids.OrganizationID)
		}
		if ids.TenantID != "" {
			add(base + ":" + ids.TenantID)
		}
		add(base)
	}

	scoped(resource)
	for _, alias := range aliases {
		scoped(alias)
	}

	return tags
}
