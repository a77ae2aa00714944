package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/application/dto"
	"github.com/reglet-dev/composer/internal/application/ports"
)

func sampleReport() *dto.AssemblyReport {
	return &dto.AssemblyReport{
		ID:          "3f1b6c1e-2d55-4a8e-9f7e-8a1b2c3d4e5f",
		Profile:     "app.yaml",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
		Models: []dto.ModelReport{
			{Path: "/db", Kind: dto.KindComponent, Type: "acme.db", Mode: "explicit", Activation: "startup", Collection: "demand", Assembled: true},
			{Path: "/api", Kind: dto.KindComponent, Type: "acme.api", Mode: "explicit", Assembled: false, Bindings: []dto.BindingReport{
				{Key: "cache", Kind: dto.BindingDependency},
				{Key: "metrics", Kind: dto.BindingDependency, Optional: true},
			}},
			{Path: "/web", Kind: dto.KindComponent, Type: "acme.web", Mode: "explicit", Assembled: false},
			{Path: "/jobs", Kind: dto.KindContainer, Mode: "explicit", Assembled: true},
		},
		Failures: []dto.FailureReport{
			{Model: "/api", Key: "cache", Message: "unable to locate a service provider for Cache"},
			{Model: "/web", Key: "api", Message: "cycle detected", Cycle: []string{"/web", "/api", "/web"}},
		},
	}
}

func assembledReport() *dto.AssemblyReport {
	return &dto.AssemblyReport{
		ID:      "a",
		Profile: "app.yaml",
		Models: []dto.ModelReport{
			{Path: "/db", Kind: dto.KindComponent, Type: "acme.db", Mode: "explicit", Assembled: true},
			{Path: "/api", Kind: dto.KindComponent, Type: "acme.api", Mode: "explicit", Assembled: true, Bindings: []dto.BindingReport{
				{Key: "database", Kind: dto.BindingDependency, Provider: "/db"},
			}},
		},
		Levels:       [][]string{{"/db"}, {"/api"}},
		Commissioned: true,
	}
}

func TestFormatterFactory_Create(t *testing.T) {
	factory := NewFormatterFactory()
	buf := &bytes.Buffer{}

	tests := []struct {
		name        string
		format      string
		options     ports.FormatterOptions
		wantErr     bool
		wantType    interface{}
		errContains string
	}{
		{name: "table format", format: "table", wantType: &TableFormatter{}},
		{name: "json format", format: "json", options: ports.FormatterOptions{Indent: true}, wantType: &JSONFormatter{}},
		{name: "yaml format", format: "yaml", wantType: &YAMLFormatter{}},
		{name: "junit format", format: "junit", wantType: &JUnitFormatter{}},
		{name: "sarif format", format: "sarif", options: ports.FormatterOptions{ProfilePath: "app.yaml"}, wantType: &SARIFFormatter{}},
		{name: "unknown format", format: "invalid", wantErr: true, errContains: "unknown format: invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter, err := factory.Create(tt.format, buf, tt.options)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.IsType(t, tt.wantType, formatter)
		})
	}
}

func TestFormatterFactory_TableColor(t *testing.T) {
	formatter, err := NewFormatterFactory().Create("table", &bytes.Buffer{}, ports.FormatterOptions{Color: false})
	require.NoError(t, err)
	assert.False(t, formatter.(*TableFormatter).EnableColor)
}

func TestTableFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false

	require.NoError(t, f.Format(sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Profile: app.yaml")
	assert.Contains(t, out, "Duration: 1.5s")
	assert.Contains(t, out, "✓ /db (acme.db)")
	assert.Contains(t, out, "kind=component mode=explicit activation=startup collection=demand")
	assert.Contains(t, out, "✗ /api (acme.api)")
	assert.Contains(t, out, "dependency cache -> (unbound)")
	assert.Contains(t, out, "dependency metrics -> (unbound, optional)")
	assert.Contains(t, out, "⚠ /api [cache]")
	assert.Contains(t, out, "Cycle: /web -> /api -> /web")
	assert.Contains(t, out, "Failures:  2")
	assert.NotContains(t, out, "\033[")
}

func TestTableFormatter_Assembled(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	f.EnableColor = false

	require.NoError(t, f.Format(assembledReport()))
	out := buf.String()

	assert.Contains(t, out, "dependency database -> /db")
	assert.Contains(t, out, "0. /db")
	assert.Contains(t, out, "1. /api")
	assert.Contains(t, out, "Commissioned: yes")
	assert.NotContains(t, out, "Failures:\n")
}

func TestTableFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	f := NewTableFormatter(&buf)
	require.NoError(t, f.Format(&dto.AssemblyReport{Profile: "empty.yaml"}))
	assert.Contains(t, buf.String(), "No models.")
}

func TestJSONFormatter_Format(t *testing.T) {
	for _, indent := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, NewJSONFormatter(&buf, indent).Format(sampleReport()))

		var decoded dto.AssemblyReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, sampleReport().Failures, decoded.Failures)
		assert.Len(t, decoded.Models, 4)
		assert.Equal(t, indent, bytes.Contains(buf.Bytes(), []byte("\n  ")))
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(&buf).Format(assembledReport()))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "app.yaml", decoded["profile"])
	assert.Equal(t, true, decoded["commissioned"])
	assert.Contains(t, buf.String(), "provider: /db")
}

func TestJUnitFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJUnitFormatter(&buf).Format(sampleReport()))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &suites))
	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 2, suites.Failures)
	require.Len(t, suites.TestSuites, 1)

	cases := suites.TestSuites[0].TestCases
	require.Len(t, cases, 3)
	assert.Nil(t, cases[0].Failure)
	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "unable to locate a service provider for Cache", cases[1].Failure.Message)
	assert.Contains(t, cases[2].Failure.Content, "Cycle: /web -> /api -> /web")
}

func formatSARIF(t *testing.T, report *dto.AssemblyReport) *sarif.Report {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewSARIFFormatter(&buf, "app.yaml", "1.2.3").Format(report))

	out, err := sarif.FromBytes(buf.Bytes())
	require.NoError(t, err)
	return out
}

func TestSARIFFormatter_Format(t *testing.T) {
	report := formatSARIF(t, sampleReport())
	require.NoError(t, report.Validate())
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	assert.Equal(t, "Composer", *run.Tool.Driver.Name)
	assert.Equal(t, "1.2.3", *run.Tool.Driver.Version)
	assert.Len(t, run.Tool.Driver.Rules, 3)

	require.Len(t, run.Results, 2)
	assert.Equal(t, RuleUnresolved, *run.Results[0].RuleID)
	assert.Equal(t, "error", run.Results[0].Level)
	assert.Equal(t, "/api [cache]: unable to locate a service provider for Cache", *run.Results[0].Message.Text)
	assert.Equal(t, RuleCycle, *run.Results[1].RuleID)

	require.Len(t, run.Results[0].Locations, 1)
	assert.Equal(t, "app.yaml", *run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	require.Len(t, run.Artifacts, 1)

	require.Len(t, run.Invocations, 1)
	assert.False(t, *run.Invocations[0].ExecutionSuccessful)
}

func TestSARIFFormatter_NoFailures(t *testing.T) {
	report := formatSARIF(t, assembledReport())
	run := report.Runs[0]
	assert.Empty(t, run.Results)
	assert.True(t, *run.Invocations[0].ExecutionSuccessful)
}

func TestRuleFor(t *testing.T) {
	assert.Equal(t, RuleCycle, ruleFor(dto.FailureReport{Key: "db", Cycle: []string{"/a", "/a"}}))
	assert.Equal(t, RuleUnresolved, ruleFor(dto.FailureReport{Key: "db"}))
	assert.Equal(t, RuleModel, ruleFor(dto.FailureReport{}))
}
