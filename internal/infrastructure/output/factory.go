package output

import (
	"fmt"
	"io"

	"github.com/reglet-dev/composer/internal/application/ports"
)

type constructor func(w io.Writer, options ports.FormatterOptions) ports.OutputFormatter

// formats lists the report formats in the order they are documented.
var formats = []struct {
	name   string
	create constructor
}{
	{"table", func(w io.Writer, o ports.FormatterOptions) ports.OutputFormatter {
		t := NewTableFormatter(w)
		t.EnableColor = o.Color
		return t
	}},
	{"json", func(w io.Writer, o ports.FormatterOptions) ports.OutputFormatter {
		return NewJSONFormatter(w, o.Indent)
	}},
	{"yaml", func(w io.Writer, _ ports.FormatterOptions) ports.OutputFormatter {
		return NewYAMLFormatter(w)
	}},
	{"junit", func(w io.Writer, _ ports.FormatterOptions) ports.OutputFormatter {
		return NewJUnitFormatter(w)
	}},
	{"sarif", func(w io.Writer, o ports.FormatterOptions) ports.OutputFormatter {
		return NewSARIFFormatter(w, o.ProfilePath, o.Version)
	}},
}

// FormatterFactory implements ports.OutputFormatterFactory.
type FormatterFactory struct{}

var _ ports.OutputFormatterFactory = (*FormatterFactory)(nil)

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format name.
func (f *FormatterFactory) Create(
	format string,
	writer io.Writer,
	options ports.FormatterOptions,
) (ports.OutputFormatter, error) {
	for _, candidate := range formats {
		if candidate.name == format {
			return candidate.create(writer, options), nil
		}
	}
	return nil, fmt.Errorf(
		"unknown format: %s (supported: %v)",
		format, f.SupportedFormats(),
	)
}

// SupportedFormats returns list of available format names.
func (f *FormatterFactory) SupportedFormats() []string {
	names := make([]string, 0, len(formats))
	for _, candidate := range formats {
		names = append(names, candidate.name)
	}
	return names
}
