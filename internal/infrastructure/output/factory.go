// Package output renders run results for humans and CI systems.
package output

import (
	"fmt"
	"io"

	"github.com/rv-tools/multibuild/internal/application/ports"
)

var _ ports.OutputFormatterFactory = (*FormatterFactory)(nil)

type constructor func(w io.Writer, opts ports.FormatterOptions) ports.OutputFormatter

// formats is in the order SupportedFormats reports them.
var formats = []struct {
	name  string
	build constructor
}{
	{"table", func(w io.Writer, opts ports.FormatterOptions) ports.OutputFormatter {
		t := NewTableFormatter(w)
		t.EnableColor = opts.EnableColor
		return t
	}},
	{"json", func(w io.Writer, opts ports.FormatterOptions) ports.OutputFormatter {
		return NewJSONFormatter(w, opts.Indent)
	}},
	{"yaml", func(w io.Writer, _ ports.FormatterOptions) ports.OutputFormatter {
		return NewYAMLFormatter(w)
	}},
	{"junit", func(w io.Writer, _ ports.FormatterOptions) ports.OutputFormatter {
		return NewJUnitFormatter(w)
	}},
}

// FormatterFactory creates formatters by name.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns the formatter registered under format.
func (f *FormatterFactory) Create(format string, writer io.Writer, options ports.FormatterOptions) (ports.OutputFormatter, error) {
	for _, entry := range formats {
		if entry.name == format {
			return entry.build(writer, options), nil
		}
	}
	return nil, fmt.Errorf("unknown format: %s (supported: %v)", format, f.SupportedFormats())
}

// SupportedFormats lists the format names Create accepts.
func (f *FormatterFactory) SupportedFormats() []string {
	names := make([]string, len(formats))
	for i, entry := range formats {
		names[i] = entry.name
	}
	return names
}
