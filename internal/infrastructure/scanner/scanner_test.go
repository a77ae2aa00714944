package scanner

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/domain/capabilities"
	"github.com/reglet-dev/composer/internal/domain/values"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

const postgresType = `
info:
  name: postgres
  classname: acme.Postgres
  version: 1.2.0
  collection: demand
  attributes:
    urn:composer:deployment.timeout: "2500"
services:
  - classname: DB
    version: 1.0.0
    attributes:
      engine: postgres
dependencies:
  - key: metrics
    classname: Metrics
    version: ^1.0
    optional: true
stages:
  - key: migrate
context:
  entries:
    - key: dir
      classname: string
      alias: workdir
configuration:
  port: 5432
capabilities:
  - kind: network
    pattern: "inbound:5432"
profiles:
  - name: postgres-replica
    configuration:
      readonly: true
  - name: postgres-primary
    mode: explicit
`

func TestScanner_Scan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "db/postgres.type.yaml", postgresType)
	writeFile(t, dir, "web/web.type.yaml", "info:\n  name: web\n  classname: acme.Web\n")
	writeFile(t, dir, "contracts/db.service.yaml", "classname: DB\nversion: 1.0.0\n")
	writeFile(t, dir, "README.md", "# types\n")

	cat, err := NewScanner(2, discard).Scan(context.Background(), []string{dir})
	require.NoError(t, err)

	require.Len(t, cat.Types, 2)
	require.Len(t, cat.Services, 1)
	assert.Equal(t, "DB", cat.Services[0].Reference.Classname)

	pg := cat.Types[0]
	assert.Equal(t, "acme.Postgres", pg.Type.Classname())
	assert.Equal(t, values.CollectionDemand, pg.Type.Info.Collection)
	assert.Equal(t, "postgres", pg.Type.Services[0].Attributes["engine"])
	assert.True(t, pg.Type.Dependencies[0].Optional)
	assert.Equal(t, "^1.0", pg.Type.Dependencies[0].Reference.Version)
	assert.Equal(t, "migrate", pg.Type.Stages[0].Key)
	assert.Equal(t, "workdir", pg.Type.Context.Entries[0].Alias)
	assert.Equal(t, []capabilities.Capability{{Kind: "network", Pattern: "inbound:5432"}}, pg.Type.Capabilities)

	timeout, err := pg.Type.DeploymentTimeout(0)
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, timeout)

	require.Len(t, pg.Profiles, 2)
	assert.Equal(t, "acme.Postgres", pg.Profiles[0].Classname)
	assert.Equal(t, values.ModePackaged, pg.Profiles[0].Mode)
	assert.Equal(t, true, pg.Profiles[0].Configuration["readonly"])
	assert.Equal(t, values.ModeExplicit, pg.Profiles[1].Mode)

	assert.Equal(t, "acme.Web", cat.Types[1].Type.Classname())
}

func TestScanner_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"missing classname", "a.type.yaml", "info:\n  name: a\n", "info.classname is required"},
		{"bad collection", "a.type.yaml", "info:\n  classname: acme.A\n  collection: eager\n", "invalid collection policy"},
		{"bad dependency version", "a.type.yaml", "info:\n  classname: acme.A\ndependencies:\n  - key: db\n    classname: DB\n    version: latest\n", `dependency "db"`},
		{"duplicate dependency", "a.type.yaml", "info:\n  classname: acme.A\ndependencies:\n  - {key: db, classname: DB}\n  - {key: db, classname: DB}\n", `duplicate dependency "db"`},
		{"bad capability", "a.type.yaml", "info:\n  classname: acme.A\ncapabilities:\n  - kind: gpu\n    pattern: all\n", "unknown kind"},
		{"bad timeout", "a.type.yaml", "info:\n  classname: acme.A\n  attributes:\n    urn:composer:deployment.timeout: soon\n", "a.type.yaml"},
		{"bad packaged activation", "a.type.yaml", "info:\n  classname: acme.A\nprofiles:\n  - name: a-x\n    activation: sometimes\n", "packaged profile"},
		{"service without classname", "s.service.yaml", "version: 1.0.0\n", "classname is required"},
		{"bad yaml", "a.type.yaml", "info: [", "failed to decode type YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)
			_, err := NewScanner(0, discard).Scan(context.Background(), []string{dir})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScanner_MissingRoot(t *testing.T) {
	_, err := NewScanner(0, discard).Scan(context.Background(), []string{filepath.Join(t.TempDir(), "nope")})
	require.ErrorContains(t, err, "scanning")
}
