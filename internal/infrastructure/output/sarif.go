// Package output provides formatters for assembly reports.
package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/reglet-dev/composer/internal/application/dto"
)

// SARIFFormatter formats assembly reports as SARIF 2.1.0 JSON. Every
// assembly failure becomes a result located in the profile file.
type SARIFFormatter struct {
	writer      io.Writer
	profilePath string
	version     string
}

// NewSARIFFormatter creates a new SARIF formatter.
// profilePath is used to resolve relative paths for file locations.
func NewSARIFFormatter(writer io.Writer, profilePath, version string) *SARIFFormatter {
	return &SARIFFormatter{
		writer:      writer,
		profilePath: profilePath,
		version:     version,
	}
}

// Format writes the report as SARIF 2.1.0 JSON.
func (f *SARIFFormatter) Format(report *dto.AssemblyReport) error {
	out := sarif.NewReport()

	run := sarif.NewRunWithInformationURI("Composer", "https://composer.reglet.dev")
	if f.version != "" {
		run.Tool.Driver.Version = &f.version
	}
	run.Tool.Driver.Organization = ptrString("Reglet")

	profilePath := f.profilePath
	if profilePath == "" {
		profilePath = report.Profile
	}
	newSARIFMapper(report, profilePath).mapToRun(run)

	out.AddRun(run)

	if err := out.Write(f.writer); err != nil {
		return fmt.Errorf("failed to write SARIF output: %w", err)
	}

	_, err := f.writer.Write([]byte("\n"))
	return err
}

func ptrString(s string) *string {
	return &s
}

func ptrBool(b bool) *bool {
	return &b
}
