package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relayerp/relay/internal/cache"
)

func TestAliasesForCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		commandID string
		want      []string
	}{
		{
			name:      "three segments",
			commandID: "directory.organizations.update",
			want:      []string{"directory.organizations", "directory"},
		},
		{
			name:      "two segments",
			commandID: "sales.invoices",
			want:      []string{"sales"},
		},
		{
			name:      "single segment has no aliases",
			commandID: "ping",
			want:      nil,
		},
		{
			name:      "four segments",
			commandID: "sales.invoices.lines.add",
			want:      []string{"sales.invoices.lines", "sales.invoices", "sales"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, cache.AliasesForCommand(tt.commandID))
		})
	}
}

func TestExpandTags(t *testing.T) {
	t.Parallel()

	ids := cache.Identifiers{ID: "r1", TenantID: "t1", OrganizationID: "o1"}

	tags := cache.ExpandTags("directory.organization", ids, []string{"directory"})

	assert.Equal(t, []string{
		"directory.organization:t1:r1",
		"directory.organization:t1:org:o1",
		"directory.organization:t1",
		"directory.organization",
		"directory:t1:r1",
		"directory:t1:org:o1",
		"directory:t1",
		"directory",
	}, tags)
}

func TestExpandTags_PartialIdentifiers(t *testing.T) {
	t.Parallel()

	tags := cache.ExpandTags("example.todo", cache.Identifiers{TenantID: "t1"}, nil)
	assert.Equal(t, []string{"example.todo:t1", "example.todo"}, tags)

	tags = cache.ExpandTags("example.todo", cache.Identifiers{}, nil)
	assert.Equal(t, []string{"example.todo"}, tags)
}

func TestExpandTags_Deduplicates(t *testing.T) {
	t.Parallel()

	tags := cache.ExpandTags("directory", cache.Identifiers{}, []string{"directory"})
	assert.Equal(t, []string{"directory"}, tags)
}
