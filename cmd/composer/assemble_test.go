package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/application/dto"
	"github.com/reglet-dev/composer/internal/infrastructure/container"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const (
	dbType = `
info:
  name: db
  classname: acme.db
services:
  - classname: DB
`
	apiType = `
info:
  name: api
  classname: acme.api
dependencies:
  - key: database
    classname: DB
`
	appProfile = `
name: app
profiles:
  - component:
      name: api
      class: acme.api
`
)

func newCommandContext(t *testing.T, dir string) *CommandContext {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := writeFile(t, dir, "config.yaml", "home_dir: "+filepath.Join(dir, "home")+"\ntemp_dir: "+filepath.Join(dir, "tmp")+"\n")

	c, err := container.New(container.Options{Logger: logger, SystemConfigPath: cfg})
	require.NoError(t, err)
	return &CommandContext{Container: c, Logger: logger, Context: context.Background()}
}

func TestRunAssemble(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "types/db.type.yaml", dbType)
	writeFile(t, dir, "types/api.type.yaml", apiType)
	profile := writeFile(t, dir, "app.yaml", appProfile)

	opts := &assembleOptions{
		CommonOptions: CommonOptions{Format: "json", OutFile: filepath.Join(dir, "report.json")},
		typePaths:     []string{filepath.Join(dir, "types")},
		metricsPath:   filepath.Join(dir, "metrics.prom"),
	}
	require.NoError(t, runAssemble(newCommandContext(t, dir), opts, profile))

	data, err := os.ReadFile(opts.OutFile)
	require.NoError(t, err)
	var report dto.AssemblyReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Empty(t, report.Failures)
	assert.Equal(t, profile, report.Profile)
	assert.NotEmpty(t, report.Levels)

	metrics, err := os.ReadFile(opts.metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "composer_assembly_bindings_total")
}

func TestRunAssemble_Unassembled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "types/api.type.yaml", apiType)
	profile := writeFile(t, dir, "app.yaml", appProfile)

	opts := &assembleOptions{
		CommonOptions: CommonOptions{Format: "yaml", OutFile: filepath.Join(dir, "report.yaml")},
		typePaths:     []string{filepath.Join(dir, "types")},
	}
	err := runAssemble(newCommandContext(t, dir), opts, profile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assembly failed")

	data, err := os.ReadFile(opts.OutFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "database")
}

func TestRunAssemble_MissingProfile(t *testing.T) {
	dir := t.TempDir()
	opts := &assembleOptions{CommonOptions: CommonOptions{Format: "table"}}

	err := runAssemble(newCommandContext(t, dir), opts, filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading profile")
}
