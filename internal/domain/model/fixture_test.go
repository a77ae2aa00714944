package model

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/domain/catalog"
	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/meta"
	"github.com/reglet-dev/composer/internal/domain/values"
)

var (
	dbRef      = meta.ReferenceDescriptor{Classname: "DB", Version: "1.0.0"}
	dbDep      = meta.DependencyDescriptor{Key: "database", Reference: meta.ReferenceDescriptor{Classname: "DB"}}
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func postgresType() *meta.Type {
	return &meta.Type{
		Info: meta.InfoDescriptor{Name: "postgres", Classname: "acme.Postgres"},
		Services: []meta.ServiceDescriptor{{
			Reference:  dbRef,
			Attributes: meta.Attributes{"engine": "postgres"},
		}},
		Configuration: map[string]any{"port": 5432, "pool": map[string]any{"size": 4}},
	}
}

func serviceType() *meta.Type {
	return &meta.Type{
		Info:         meta.InfoDescriptor{Name: "service", Classname: "acme.Service", Collection: values.CollectionDemand},
		Dependencies: []meta.DependencyDescriptor{dbDep},
	}
}

func auditorType() *meta.Type {
	return &meta.Type{
		Info:       meta.InfoDescriptor{Name: "auditor", Classname: "acme.Auditor"},
		Extensions: []meta.ExtensionDescriptor{{Key: "audit"}},
	}
}

func newTestEnv(t *testing.T, entries ...catalog.Entry) *Environment {
	t.Helper()
	if len(entries) == 0 {
		entries = []catalog.Entry{{Type: postgresType()}, {Type: serviceType()}, {Type: auditorType()}}
	}
	types, err := catalog.NewTypeRepository(nil, entries, testLogger)
	require.NoError(t, err)
	return &Environment{
		Logger:  testLogger,
		Types:   types,
		HomeDir: "/var/lib/composer",
		TempDir: "/tmp/composer",
	}
}

func component(name, classname string) *entities.ComponentProfile {
	return &entities.ComponentProfile{
		ProfileMeta: entities.ProfileMeta{Name: name},
		Classname:   classname,
	}
}

func container(name string, children ...entities.Profile) *entities.ContainmentProfile {
	return &entities.ContainmentProfile{
		ProfileMeta: entities.ProfileMeta{Name: name},
		Profiles:    children,
	}
}

func newTestRoot(t *testing.T, env *Environment, children ...entities.Profile) *ContainmentModel {
	t.Helper()
	root, err := NewRootContainmentModel(context.Background(), env, container("root", children...))
	require.NoError(t, err)
	return root
}
