package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/reglet-dev/composer/internal/application/dto"
)

// SARIF rule identifiers.
const (
	RuleUnresolved = "unresolved-requirement"
	RuleCycle      = "dependency-cycle"
	RuleModel      = "model-failure"
)

type sarifRule struct {
	id          string
	name        string
	description string
}

var sarifRules = []sarifRule{
	{RuleUnresolved, "UnresolvedRequirement", "A component requirement could not be bound to a provider."},
	{RuleCycle, "DependencyCycle", "Components depend on each other in a cycle."},
	{RuleModel, "ModelFailure", "A component could not be assembled."},
}

type sarifMapper struct {
	report      *dto.AssemblyReport
	profilePath string
	cwd         string
}

func newSARIFMapper(report *dto.AssemblyReport, profilePath string) *sarifMapper {
	cwd, _ := os.Getwd() // Best effort, ignore error
	return &sarifMapper{
		report:      report,
		profilePath: profilePath,
		cwd:         cwd,
	}
}

// mapToRun populates the SARIF run with rules, results, artifacts, and invocations.
func (m *sarifMapper) mapToRun(run *sarif.Run) {
	m.addRules(run)
	m.addResults(run)
	m.addArtifacts(run)
	m.addInvocation(run)
	m.addProperties(run)
}

func (m *sarifMapper) addRules(run *sarif.Run) {
	for _, r := range sarifRules {
		rule := sarif.NewReportingDescriptor().WithID(r.id)
		rule.WithName(r.name)
		rule.WithShortDescription(&sarif.MultiformatMessageString{
			Text: ptrString(r.description),
		})
		rule.WithDefaultConfiguration(&sarif.ReportingConfiguration{
			Level: "error",
		})
		run.Tool.Driver.AddRule(rule)
	}
}

// ruleFor classifies a failure.
func ruleFor(failure dto.FailureReport) string {
	switch {
	case len(failure.Cycle) > 0:
		return RuleCycle
	case failure.Key != "":
		return RuleUnresolved
	default:
		return RuleModel
	}
}

func (m *sarifMapper) addResults(run *sarif.Run) {
	for _, failure := range m.report.Failures {
		result := sarif.NewRuleResult(ruleFor(failure))
		result.Level = "error"
		result.Kind = "fail"
		result.Message = sarif.NewTextMessage(m.message(failure))

		if m.profilePath != "" {
			pLoc := sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithURI(m.normalizeURI(m.profilePath)))
			result.Locations = []*sarif.Location{sarif.NewLocation().WithPhysicalLocation(pLoc)}
		}

		props := sarif.NewPropertyBag()
		props.Add("model", failure.Model)
		if failure.Key != "" {
			props.Add("key", failure.Key)
		}
		if len(failure.Cycle) > 0 {
			props.Add("cycle", failure.Cycle)
		}
		result.WithProperties(props)

		run.AddResult(result)
	}
}

func (m *sarifMapper) message(failure dto.FailureReport) string {
	if failure.Key != "" {
		return fmt.Sprintf("%s [%s]: %s", failure.Model, failure.Key, failure.Message)
	}
	return fmt.Sprintf("%s: %s", failure.Model, failure.Message)
}

func (m *sarifMapper) addArtifacts(run *sarif.Run) {
	if m.profilePath == "" {
		return
	}
	artifact := sarif.NewArtifact().
		WithLocation(sarif.NewArtifactLocation().WithURI(m.normalizeURI(m.profilePath)))
	if info, err := os.Stat(m.profilePath); err == nil && !info.IsDir() {
		artifact.WithLength(int(info.Size()))
	}
	run.AddArtifact(artifact)
}

// normalizeURI converts a file path to a SARIF-compliant URI.
func (m *sarifMapper) normalizeURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path) // Fallback to original
	}

	// Try to make relative to CWD
	if m.cwd != "" {
		if rel, err := filepath.Rel(m.cwd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}

	return "file://" + filepath.ToSlash(abs)
}

func (m *sarifMapper) addInvocation(run *sarif.Run) {
	invocation := sarif.NewInvocation()
	invocation.ExecutionSuccessful = ptrBool(m.report.Assembled())

	startTime := m.report.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	endTime := m.report.GeneratedAt.Add(m.report.Duration).UTC().Format("2006-01-02T15:04:05.000Z")
	invocation.StartTimeUtc = &startTime
	invocation.EndTimeUtc = &endTime

	if hostname, err := os.Hostname(); err == nil {
		invocation.Machine = &hostname
	}
	if m.cwd != "" {
		cwd := "file://" + filepath.ToSlash(m.cwd)
		invocation.WorkingDirectory = sarif.NewArtifactLocation().WithURI(cwd)
	}

	props := sarif.NewPropertyBag()
	props.Add("assemblyId", m.report.ID)
	props.Add("profile", m.report.Profile)
	props.Add("commissioned", m.report.Commissioned)
	invocation.WithProperties(props)

	run.AddInvocation(invocation)
}

func (m *sarifMapper) addProperties(run *sarif.Run) {
	props := sarif.NewPropertyBag()
	props.Add("summary", m.report.Summary())
	run.WithProperties(props)
}
