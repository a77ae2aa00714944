package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/values"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const fullProfile = `
name: app
categories:
  priority: info
  categories:
    - name: audit
      priority: debug
exports:
  - service:
      classname: DB
      version: 1.0.0
    path: backend/db
profiles:
  - component:
      name: web
      class: acme.Web
      activation: lazy
      collection: conservative
      configuration:
        port: 8080
      context:
        strategy: custom
        entries:
          - key: dir
            class: string
            value: "${urn:composer:home}/data"
          - key: home
            import: urn:composer:home
          - key: workers
            override: 4
          - key: files
            class: list
            args:
              - value: a
              - value: b
      dependencies:
        - key: database
          source: backend/db
      stages:
        - key: audit
          selections:
            - feature: level
              value: full
              criteria: equals
              required: true
  - container:
      name: backend
      profiles:
        - component:
            name: db
            class: acme.Postgres
  - named:
      name: replica
      class: acme.Postgres
      key: replica
`

func TestProfileLoader_LoadContainment(t *testing.T) {
	path := writeFile(t, t.TempDir(), "app.yaml", fullProfile)

	profile, err := newTestLoader(t).LoadContainment(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "app", profile.Name)
	assert.Equal(t, values.ModeExplicit, profile.ProfileMode())
	assert.Equal(t, "debug", profile.Categories.Categories[0].Priority)
	require.Len(t, profile.Exports, 1)
	assert.Equal(t, "DB", profile.Exports[0].Reference.Classname)
	assert.Equal(t, "backend/db", profile.Exports[0].Path)
	require.Len(t, profile.Profiles, 3)

	web := profile.Profiles[0].(*entities.ComponentProfile)
	assert.Equal(t, "acme.Web", web.Classname)
	assert.Equal(t, values.ActivationLazy, web.Activation)
	assert.Equal(t, values.CollectionConservative, web.Collection)
	assert.Equal(t, "custom", web.Context.Strategy)
	assert.Equal(t, entities.Constructed{Classname: "string", Value: "${urn:composer:home}/data"}, web.Context.Entries[0].Source)
	assert.Equal(t, entities.Imported{Key: "urn:composer:home"}, web.Context.Entries[1].Source)
	assert.IsType(t, entities.Overridden{}, web.Context.Entries[2].Source)
	files := web.Context.Entries[3].Source.(entities.Constructed)
	assert.Equal(t, []entities.EntrySource{
		entities.Constructed{Value: "a"},
		entities.Constructed{Value: "b"},
	}, files.Args)
	assert.Equal(t, "backend/db", web.Dependency("database").Source)
	assert.True(t, web.Stage("audit").Selections[0].Required)

	backend := profile.Profiles[1].(*entities.ContainmentProfile)
	assert.Equal(t, "db", backend.Profiles[0].ProfileName())

	replica := profile.Profiles[2].(*entities.NamedComponentProfile)
	assert.Equal(t, "replica", replica.Key)
}

func TestContainmentDocument_DecodesInlineFields(t *testing.T) {
	var doc containmentDocument
	require.NoError(t, yaml.Unmarshal([]byte(`
name: app
mode: explicit
vars:
  port: 5432
profiles:
  - component: {name: db, class: acme.Postgres}
`), &doc))

	assert.Equal(t, "app", doc.Name)
	assert.Equal(t, "explicit", doc.Mode)
	assert.EqualValues(t, 5432, doc.Vars["port"])
	require.Len(t, doc.Profiles, 1)
	require.NotNil(t, doc.Profiles[0].Component)
	assert.Equal(t, "db", doc.Profiles[0].Component.Name)
}

func TestProfileLoader_SchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "profiles: []\n",
			wantErr: "schema validation failed",
		},
		{
			name:    "unknown top-level key",
			yaml:    "name: app\ncontrols: []\n",
			wantErr: "controls",
		},
		{
			name:    "two forms in one entry",
			yaml:    "name: app\nprofiles:\n  - component: {name: a, class: acme.A}\n    named: {name: b, class: acme.B, key: k}\n",
			wantErr: "/profiles/0",
		},
		{
			name:    "unknown selection criteria",
			yaml:    "name: app\nprofiles:\n  - component:\n      name: a\n      class: acme.A\n      dependencies:\n        - key: db\n          selections:\n            - criteria: like\n",
			wantErr: "/profiles/0/component/dependencies/0/selections/0/criteria",
		},
		{
			name:    "component without class",
			yaml:    "name: app\nprofiles:\n  - component: {name: a}\n",
			wantErr: "class",
		},
		{
			name:    "invalid yaml",
			yaml:    "name: [",
			wantErr: "failed to decode YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader(t).LoadContainmentFromReader(strings.NewReader(tt.yaml), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfileLoader_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "duplicate child",
			yaml:    "name: app\nprofiles:\n  - component: {name: a, class: acme.A}\n  - component: {name: a, class: acme.B}\n",
			wantErr: `duplicate child profile "a"`,
		},
		{
			name:    "entry with two sources",
			yaml:    "name: app\nprofiles:\n  - component:\n      name: a\n      class: acme.A\n      context:\n        entries:\n          - key: k\n            import: urn:composer:home\n            override: x\n",
			wantErr: "exactly one of",
		},
		{
			name:    "bad export version",
			yaml:    "name: app\nexports:\n  - service: {classname: DB, version: not-a-version}\n    path: db\n",
			wantErr: "invalid version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader(t).LoadContainmentFromReader(strings.NewReader(tt.yaml), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestProfileLoader_Includes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blocks/shared.yaml", `
name: shared
profiles:
  - component: {name: db, class: acme.Postgres}
`)
	path := writeFile(t, dir, "app.yaml", `
name: app
profiles:
  - include:
      name: shared
      path: blocks/shared.yaml
`)

	loader := newTestLoader(t)
	profile, err := loader.LoadContainment(context.Background(), path)
	require.NoError(t, err)

	include := profile.Profiles[0].(*entities.BlockIncludeDirective)
	assert.Equal(t, filepath.Join(dir, "blocks", "shared.yaml"), include.Path)

	resolver := NewBlockResolver(loader, nil)
	shared, err := resolver.Include(context.Background(), include.Path)
	require.NoError(t, err)
	assert.Equal(t, "shared", shared.Name)

	again, err := resolver.Include(context.Background(), include.Path)
	require.NoError(t, err)
	assert.Same(t, shared, again)
}

func TestProfileLoader_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: a\nprofiles:\n  - include: {name: b, path: b.yaml}\n")
	writeFile(t, dir, "b.yaml", "name: b\nprofiles:\n  - container:\n      name: nested\n      profiles:\n        - include: {name: a, path: a.yaml}\n")

	_, err := newTestLoader(t).LoadContainment(context.Background(), filepath.Join(dir, "a.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular include detected")
	assert.Contains(t, err.Error(), filepath.Join(dir, "a.yaml")+" -> "+filepath.Join(dir, "b.yaml"))
}

func TestProfileLoader_MissingFile(t *testing.T) {
	_, err := newTestLoader(t).LoadContainment(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open profile")
}

func TestProfileLoader_LoadTargets(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "targets.yaml", `
targets:
  - path: /app/web
    configuration:
      port: 9090
    parameters:
      workers: 8
      legacy: null
    categories:
      priority: debug
`)

	loader := newTestLoader(t)
	targets, err := loader.LoadTargets(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "/app/web", targets[0].Path)
	assert.Equal(t, "debug", targets[0].Categories.Priority)
	assert.NotNil(t, targets[0].Configuration["port"])
	assert.EqualValues(t, 8, targets[0].Parameters["workers"])
	legacy, ok := targets[0].Parameters["legacy"]
	assert.True(t, ok)
	assert.Nil(t, legacy)

	bad := writeFile(t, dir, "bad.yaml", "targets:\n  - configuration: {}\n")
	_, err = loader.LoadTargets(context.Background(), bad)
	require.ErrorContains(t, err, "schema validation failed")
}

type fakeArtifacts struct {
	content string
	err     error
}

func (f fakeArtifacts) Fetch(context.Context, entities.ResourceDirective) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

func TestBlockResolver_Compose(t *testing.T) {
	resource := entities.ResourceDirective{ID: "blocks/shared", Version: "1.0.0"}

	t.Run("fetches and decodes", func(t *testing.T) {
		r := NewBlockResolver(newTestLoader(t), fakeArtifacts{content: "name: shared\nprofiles:\n  - component: {name: db, class: acme.Postgres}\n"})
		profile, err := r.Compose(context.Background(), resource)
		require.NoError(t, err)
		assert.Equal(t, "shared", profile.Name)
	})

	t.Run("rejects local includes", func(t *testing.T) {
		r := NewBlockResolver(newTestLoader(t), fakeArtifacts{content: "name: shared\nprofiles:\n  - include: {name: x, path: x.yaml}\n"})
		_, err := r.Compose(context.Background(), resource)
		require.ErrorContains(t, err, "composed blocks cannot include")
	})

	t.Run("fetch failure", func(t *testing.T) {
		r := NewBlockResolver(newTestLoader(t), fakeArtifacts{err: errors.New("not found")})
		_, err := r.Compose(context.Background(), resource)
		require.ErrorContains(t, err, "block blocks/shared:1.0.0: not found")
	})

	t.Run("no repository", func(t *testing.T) {
		_, err := NewBlockResolver(newTestLoader(t), nil).Compose(context.Background(), resource)
		require.ErrorContains(t, err, "no artifact repository configured")
	})
}
