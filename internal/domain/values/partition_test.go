package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name      string
		partition string
		source    string
		want      string
		wantErr   bool
	}{
		{"absolute", "/a/b/", "/x/y", "/x/y", false},
		{"plain", "/a/b/", "c", "/a/b/c", false},
		{"dot", "/a/b/", "./c", "/a/b/c", false},
		{"parent", "/a/b/", "../c", "/a/c", false},
		{"grandparent", "/a/b/", "../../c", "/c", false},
		{"parent then dot", "/a/b/", ".././c", "/a/c", false},
		{"parent to root", "/a/", "../c", "/c", false},
		{"above root", "/", "../c", "", true},
		{"above root nested", "/a/", "../../c", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.partition, tt.source)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrAboveRoot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePath_ParentRoundTrip(t *testing.T) {
	viaParent, err := ResolvePath("/a/b/", "../c")
	require.NoError(t, err)

	direct, err := ResolvePath("/a/", "c")
	require.NoError(t, err)

	assert.Equal(t, direct, viaParent)
}

func TestParentPartition(t *testing.T) {
	tests := []struct {
		partition string
		want      string
		wantErr   bool
	}{
		{"/a/b/c/", "/a/b/", false},
		{"/a/b/", "/a/", false},
		{"/a/", "/", false},
		{"/", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.partition, func(t *testing.T) {
			got, err := ParentPartition(tt.partition)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAboveRoot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChildPartition(t *testing.T) {
	assert.Equal(t, "/", ChildPartition("", ""))
	assert.Equal(t, "/app/", ChildPartition("/", "app"))
	assert.Equal(t, "/app/db/", ChildPartition("/app/", "db"))
}

func TestSplitPathAndCategory(t *testing.T) {
	assert.Equal(t, []string{"app", "db"}, SplitPath("/app/db/"))
	assert.Empty(t, SplitPath("/"))
	assert.Equal(t, "app.db", LoggingCategory("/app/db"))
	assert.Equal(t, "", LoggingCategory("/"))
}
