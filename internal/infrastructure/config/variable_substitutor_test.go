package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/domain/entities"
)

func newTestLoader(t *testing.T) *ProfileLoader {
	t.Helper()
	loader, err := NewProfileLoader(discard)
	require.NoError(t, err)
	return loader
}

func TestSubstituteVariables_Simple(t *testing.T) {
	yaml := `
name: app
vars:
  data_dir: /var/lib/app
  environment: production
profiles:
  - component:
      name: store
      class: acme.Store
      configuration:
        path: "{{ .vars.data_dir }}/store"
        labels:
          - "env={{ .vars.environment }}"
      context:
        entries:
          - key: env
            override: "{{ .vars.environment }}"
`

	profile, err := newTestLoader(t).LoadContainmentFromReader(strings.NewReader(yaml), "")
	require.NoError(t, err)

	store := profile.Profiles[0].(*entities.ComponentProfile)
	assert.Equal(t, "/var/lib/app/store", store.Configuration["path"])
	assert.Equal(t, []any{"env=production"}, store.Configuration["labels"])
	assert.Equal(t, entities.Overridden{Value: "production"}, store.Context.Entries[0].Source)
}

func TestSubstituteVariables_Nested(t *testing.T) {
	yaml := `
name: app
vars:
  paths:
    config: /etc/app/config.yaml
profiles:
  - container:
      name: backend
      profiles:
        - component:
            name: reader
            class: acme.Reader
            parameters:
              source: "{{ .vars.paths.config }}"
  - composition:
      name: shared
      resource:
        id: blocks/shared
      targets:
        - path: /shared/db
          configuration:
            file: "{{ .vars.paths.config }}"
`

	profile, err := newTestLoader(t).LoadContainmentFromReader(strings.NewReader(yaml), "")
	require.NoError(t, err)

	backend := profile.Profiles[0].(*entities.ContainmentProfile)
	reader := backend.Profiles[0].(*entities.ComponentProfile)
	assert.Equal(t, "/etc/app/config.yaml", reader.Parameters["source"])

	shared := profile.Profiles[1].(*entities.BlockCompositionDirective)
	assert.Equal(t, "/etc/app/config.yaml", shared.Targets[0].Configuration["file"])
}

func TestSubstituteVariables_Missing(t *testing.T) {
	yaml := `
name: app
vars:
  existing_var: value
profiles:
  - component:
      name: store
      class: acme.Store
      configuration:
        path: "{{ .vars.missing_var }}"
`

	_, err := newTestLoader(t).LoadContainmentFromReader(strings.NewReader(yaml), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable not found: missing_var")
}

func TestLookupVar(t *testing.T) {
	vars := map[string]any{
		"port": uint64(8080),
		"db":   map[string]any{"host": "db.internal"},
		"name": "app",
	}

	tests := []struct {
		path    string
		want    any
		wantErr string
	}{
		{path: "port", want: uint64(8080)},
		{path: "db.host", want: "db.internal"},
		{path: "name.first", wantErr: "not a map"},
		{path: "db.user", wantErr: "variable not found: db.user"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := lookupVar(vars, tt.path)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
