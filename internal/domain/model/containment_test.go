package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/values"
)

func TestContainmentModel_Paths(t *testing.T) {
	root := newTestRoot(t, newTestEnv(t),
		component("db", "acme.Postgres"),
		container("app", component("svc", "acme.Service")),
	)

	assert.Equal(t, "/", root.Path())
	assert.Equal(t, "/", root.ChildPartition())

	db, err := root.GetModel("db")
	require.NoError(t, err)
	assert.Equal(t, "/", db.Partition())
	assert.Equal(t, "/db", db.Path())

	app, err := root.GetModel("/app")
	require.NoError(t, err)
	assert.Equal(t, "/app", app.Path())
	assert.Equal(t, "/app/", app.(*ContainmentModel).ChildPartition())

	svc, err := root.GetModel("/app/svc")
	require.NoError(t, err)
	assert.Equal(t, "/app/", svc.Partition())
	assert.Equal(t, "/app/svc", svc.Path())
	assert.Equal(t, "/var/lib/composer/app/svc", svc.(*ComponentModel).HomeDir())
	assert.Equal(t, "/tmp/composer/app/svc", svc.(*ComponentModel).TempDir())
}

func TestContainmentModel_GetModel(t *testing.T) {
	root := newTestRoot(t, newTestEnv(t),
		component("db", "acme.Postgres"),
		container("app", component("svc", "acme.Service")),
	)
	appModel, err := root.GetModel("app")
	require.NoError(t, err)
	app := appModel.(*ContainmentModel)

	tests := []struct {
		name    string
		from    *ContainmentModel
		path    string
		want    string
		wantErr error
	}{
		{name: "empty names self", from: app, path: "", want: "/app"},
		{name: "relative child", from: app, path: "svc", want: "/app/svc"},
		{name: "absolute from nested", from: app, path: "/db", want: "/db"},
		{name: "nested absolute", from: app, path: "/app/svc", want: "/app/svc"},
		{name: "missing", from: root, path: "/nope", wantErr: ErrModelNotFound},
		{name: "missing nested", from: root, path: "app/nope", wantErr: ErrModelNotFound},
		{name: "through component", from: root, path: "/db/x", wantErr: ErrModelRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.from.GetModel(tt.path)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Path())
		})
	}
}

func TestContainmentModel_DuplicateName(t *testing.T) {
	root := newTestRoot(t, newTestEnv(t), component("db", "acme.Postgres"))

	_, err := root.AddModel(context.Background(), component("db", "acme.Postgres"))
	require.Error(t, err)
	assert.True(t, IsModelError(err))
	assert.Equal(t, 1, root.Repository().Size())
}

func TestContainmentModel_UnknownType(t *testing.T) {
	root := newTestRoot(t, newTestEnv(t))

	_, err := root.AddModel(context.Background(), component("x", "acme.Missing"))
	require.Error(t, err)
	assert.True(t, IsModelError(err))
	assert.Equal(t, 0, root.Repository().Size())
}

func TestContainmentModel_ListenerIsolation(t *testing.T) {
	root := newTestRoot(t, newTestEnv(t))

	var added, removed []string
	counter := &ListenerFuncs{
		Added: func(e CompositionEvent) error {
			added = append(added, e.Child.Path())
			return nil
		},
		Removed: func(e CompositionEvent) error {
			removed = append(removed, e.Child.Path())
			return nil
		},
	}
	root.AddCompositionListener(&ListenerFuncs{Added: func(CompositionEvent) error { panic("boom") }})
	root.AddCompositionListener(&ListenerFuncs{Added: func(CompositionEvent) error { return errors.New("refused") }})
	root.AddCompositionListener(counter)

	m, err := root.AddModel(context.Background(), component("db", "acme.Postgres"))
	require.NoError(t, err)
	assert.Equal(t, "/db", m.Path())
	assert.Equal(t, []string{"/db"}, added)

	_, err = root.RemoveModel("db")
	require.NoError(t, err)
	assert.Equal(t, []string{"/db"}, removed)
	assert.Equal(t, 0, root.Repository().Size())

	root.RemoveCompositionListener(counter)
	_, err = root.AddModel(context.Background(), component("db2", "acme.Postgres"))
	require.NoError(t, err)
	assert.Len(t, added, 1)

	_, err = root.RemoveModel("nope")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestContainmentModel_ModelForDependency(t *testing.T) {
	root := newTestRoot(t, newTestEnv(t), container("app"))
	appModel, err := root.GetModel("app")
	require.NoError(t, err)
	app := appModel.(*ContainmentModel)

	dep, err := NewDependencyModel(testLogger, app.ChildPartition(), dbDep, nil)
	require.NoError(t, err)

	before := app.Repository().Size()
	m, err := app.ModelForDependency(context.Background(), dep)
	require.NoError(t, err)
	assert.Equal(t, before+1, app.Repository().Size())
	assert.Equal(t, "/app/postgres", m.Path())
	assert.Equal(t, values.ModeImplicit, m.Mode())

	again, err := app.ModelForDependency(context.Background(), dep)
	require.NoError(t, err)
	assert.Same(t, m, again)
	assert.Equal(t, before+1, app.Repository().Size())

	stage, err := NewStageModel(testLogger, app.ChildPartition(), meta.StageDescriptor{Key: "audit"}, nil)
	require.NoError(t, err)
	handler, err := app.ModelForStage(context.Background(), stage)
	require.NoError(t, err)
	assert.Equal(t, "/app/auditor", handler.Path())

	missing, err := NewStageModel(testLogger, app.ChildPartition(), meta.StageDescriptor{Key: "backup"}, nil)
	require.NoError(t, err)
	_, err = app.ModelForStage(context.Background(), missing)
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestContainmentModel_NamedProfile(t *testing.T) {
	env := newTestEnv(t, catalogEntryWithProfiles())
	root := newTestRoot(t, env, &entities.NamedComponentProfile{
		ProfileMeta: entities.ProfileMeta{Name: "reporting-db"},
		Classname:   "acme.Postgres",
		Key:         "replica",
	})

	m, err := root.GetModel("reporting-db")
	require.NoError(t, err)
	comp := m.(*ComponentModel)
	assert.Equal(t, values.ModeExplicit, comp.Mode())
	assert.Equal(t, true, comp.Configuration()["readonly"])
	assert.Equal(t, 5432, comp.Configuration()["port"])
}

func TestContainmentModel_Exports(t *testing.T) {
	profile := container("data", component("db", "acme.Postgres"))
	profile.Exports = []entities.ServiceDirective{{Reference: dbRef, Path: "db"}}
	root := newTestRoot(t, newTestEnv(t), profile)

	m, err := root.GetModel("data")
	require.NoError(t, err)
	data := m.(*ContainmentModel)
	require.Len(t, data.Services(), 1)

	dep, err := NewDependencyModel(testLogger, "/", dbDep, nil)
	require.NoError(t, err)
	assert.True(t, dep.Accepts(data))

	provider, err := data.ExportProvider(dep)
	require.NoError(t, err)
	assert.Equal(t, "/data/db", provider.Path())

	bad := container("broken", component("db", "acme.Postgres"))
	bad.Exports = []entities.ServiceDirective{{Reference: dbRef, Path: "nope"}}
	_, err = root.AddModel(context.Background(), bad)
	assert.True(t, IsModelError(err))

	absolute := container("abs", component("db", "acme.Postgres"))
	absolute.Exports = []entities.ServiceDirective{{Reference: dbRef, Path: "/abs/db"}}
	_, err = root.AddModel(context.Background(), absolute)
	assert.ErrorContains(t, err, "must be relative")
}

func TestContainmentModel_ApplyTargets(t *testing.T) {
	db := component("db", "acme.Postgres")
	db.Configuration = map[string]any{"user": "app", "port": 7000}
	db.Parameters = map[string]any{"mode": "rw", "replicas": 2}
	root := newTestRoot(t, newTestEnv(t), container("app", db))

	root.ApplyTargets([]entities.TargetDirective{
		{
			Path:          "/app/db",
			Configuration: map[string]any{"port": 6543},
			Parameters:    map[string]any{"replicas": 3, "mode": nil},
		},
		{Path: "/app", Configuration: map[string]any{"ignored": true}},
		{Path: "/nowhere", Configuration: map[string]any{"x": 1}},
	})

	m, err := root.GetModel("/app/db")
	require.NoError(t, err)
	comp := m.(*ComponentModel)
	cfg := comp.Configuration()
	assert.Equal(t, 6543, cfg["port"])
	assert.Equal(t, "app", cfg["user"], "profile keys survive a target override")
	assert.Equal(t, map[string]any{"size": 4}, cfg["pool"])
	assert.Equal(t, map[string]any{"replicas": 3}, comp.Parameters())
}

func TestContainmentModel_IsAssembled(t *testing.T) {
	root := newTestRoot(t, newTestEnv(t),
		component("db", "acme.Postgres"),
		component("svc", "acme.Service"),
	)
	assert.False(t, root.IsAssembled())

	db, _ := root.GetModel("db")
	svc, _ := root.GetModel("svc")
	require.NoError(t, svc.(*ComponentModel).DependencyModels()[0].SetProvider(db.(*ComponentModel)))
	assert.True(t, root.IsAssembled())

	root.Disassemble()
	assert.False(t, root.IsAssembled())
}
