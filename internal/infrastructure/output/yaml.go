package output

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/reglet-dev/composer/internal/application/dto"
)

// YAMLFormatter formats assembly reports as YAML. Sequences are indented
// under their key, matching the layout of containment profiles.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes the report as YAML.
func (f *YAMLFormatter) Format(report *dto.AssemblyReport) error {
	encoder := yaml.NewEncoder(f.writer,
		yaml.Indent(2),
		yaml.IndentSequence(true),
		yaml.UseLiteralStyleIfMultiline(true),
	)
	if err := encoder.Encode(report); err != nil {
		return err
	}
	return encoder.Close()
}
