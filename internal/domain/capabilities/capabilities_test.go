package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse("fs:read:/etc/**")
	require.NoError(t, err)
	assert.Equal(t, Capability{Kind: KindFS, Pattern: "read:/etc/**"}, c)
	assert.Equal(t, "fs:read:/etc/**", c.String())

	_, err = Parse("fs")
	assert.Error(t, err)
	_, err = Parse("gpu:0")
	assert.ErrorContains(t, err, "unknown kind")
}

func TestCapability_RiskLevel(t *testing.T) {
	tests := []struct {
		cap  Capability
		want RiskLevel
	}{
		{Capability{KindFS, "read:/etc/**"}, RiskLevelHigh},
		{Capability{KindFS, "read:/etc/hosts"}, RiskLevelMedium},
		{Capability{KindFS, "read:/var/lib/app/**"}, RiskLevelLow},
		{Capability{KindExec, "bash"}, RiskLevelHigh},
		{Capability{KindExec, "/usr/bin/pg_dump"}, RiskLevelMedium},
		{Capability{KindNetwork, "outbound:*"}, RiskLevelHigh},
		{Capability{KindNetwork, "outbound:5432"}, RiskLevelMedium},
		{Capability{KindEnv, "AWS_*"}, RiskLevelHigh},
		{Capability{KindEnv, "PGHOST"}, RiskLevelLow},
	}
	for _, tt := range tests {
		t.Run(tt.cap.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cap.RiskLevel())
			assert.NotEmpty(t, tt.cap.RiskDescription())
		})
	}
}

func TestPolicy_IsGranted(t *testing.T) {
	policy := NewPolicy()

	tests := []struct {
		name      string
		grants    []Capability
		requested Capability
		expected  bool
	}{
		{"exact", []Capability{{KindNetwork, "outbound:53"}}, Capability{KindNetwork, "outbound:53"}, true},
		{"port in list", []Capability{{KindNetwork, "outbound:80,443"}}, Capability{KindNetwork, "outbound:443"}, true},
		{"port not in list", []Capability{{KindNetwork, "outbound:80,443"}}, Capability{KindNetwork, "outbound:22"}, false},
		{"wrong direction", []Capability{{KindNetwork, "outbound:80"}}, Capability{KindNetwork, "inbound:80"}, false},
		{"trailing wildcard", []Capability{{KindEnv, "PG*"}}, Capability{KindEnv, "PGHOST"}, true},
		{"recursive fs", []Capability{{KindFS, "read:/var/lib/**"}}, Capability{KindFS, "read:/var/lib/app/data"}, true},
		{"recursive fs root itself", []Capability{{KindFS, "read:/var/lib/**"}}, Capability{KindFS, "read:/var/lib"}, true},
		{"traversal blocked", []Capability{{KindFS, "read:/var/lib/**"}}, Capability{KindFS, "read:/var/lib/../../etc/shadow"}, false},
		{"wrong operation", []Capability{{KindFS, "read:/var/lib/**"}}, Capability{KindFS, "write:/var/lib/x"}, false},
		{"glob", []Capability{{KindExec, "/usr/bin/pg_*"}}, Capability{KindExec, "/usr/bin/pg_dump"}, true},
		{"kind mismatch", []Capability{{KindEnv, "*"}}, Capability{KindExec, "ls"}, false},
		{"universal", []Capability{{KindExec, "*"}}, Capability{KindExec, "ls"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.IsGranted(tt.requested, tt.grants))
		})
	}
}

func TestGrant(t *testing.T) {
	g := NewGrant(Capability{KindEnv, "A"}, Capability{KindEnv, "A"})
	assert.Len(t, g, 1)

	g.Add(Capability{KindEnv, "B"})
	assert.True(t, g.Contains(Capability{KindEnv, "B"}))
	assert.False(t, g.Contains(Capability{KindEnv, "Z"}))

	g.Merge([]Capability{{KindEnv, "B"}, {KindFS, "read:**"}})
	assert.Len(t, g, 3)
	assert.Equal(t, Grant{{KindFS, "read:**"}}, g.Broad())
}

func TestGrantTable(t *testing.T) {
	table := NewGrantTable(
		SourceGrant{Source: "/**", Grant: Grant{{KindEnv, "TZ"}}},
		SourceGrant{Source: "/data/*", Grant: Grant{{KindNetwork, "outbound:5432"}}},
		SourceGrant{Source: "/data/db", Grant: Grant{{KindFS, "write:/var/lib/db/**"}}},
	)
	table.Add("/data/db", Capability{KindEnv, "PG*"})

	tests := []struct {
		name     string
		path     string
		required []Capability
		missing  []Capability
	}{
		{
			name: "all granted",
			path: "/data/db",
			required: []Capability{
				{KindEnv, "TZ"}, {KindEnv, "PGHOST"},
				{KindNetwork, "outbound:5432"}, {KindFS, "write:/var/lib/db/base"},
			},
		},
		{
			name:     "sibling lacks exact grant",
			path:     "/data/cache",
			required: []Capability{{KindNetwork, "outbound:5432"}, {KindFS, "write:/var/lib/db/base"}},
			missing:  []Capability{{KindFS, "write:/var/lib/db/base"}},
		},
		{
			name:     "nested is not a direct child",
			path:     "/data/sub/db",
			required: []Capability{{KindNetwork, "outbound:5432"}},
			missing:  []Capability{{KindNetwork, "outbound:5432"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.missing, table.Missing(tt.path, tt.required))
		})
	}
}

func TestRegistry_Required(t *testing.T) {
	r := NewRegistry()
	r.Register("acme.FileStore", ExtractorFunc(func(cfg map[string]any) []Capability {
		dir, _ := cfg["dir"].(string)
		return []Capability{{KindFS, "write:" + dir + "/**"}, {KindEnv, "TZ"}}
	}))

	got := r.Required("acme.FileStore", []Capability{{KindEnv, "TZ"}}, map[string]any{"dir": "/srv"})
	assert.Equal(t, []Capability{{KindEnv, "TZ"}, {KindFS, "write:/srv/**"}}, got)

	assert.Empty(t, r.Required("acme.Other", nil, nil))
}
