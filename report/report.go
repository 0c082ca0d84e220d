// Package report turns checker findings into operator-facing output.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dargueta/scandisk/check"
	"github.com/dargueta/scandisk/errors"
)

// Reporter is a check.Reporter that may hold findings back until Close.
type Reporter interface {
	check.Reporter
	// Close writes anything still buffered. It doesn't close the underlying
	// writers.
	Close() error
}

// Formats lists the output formats New accepts.
var Formats = []string{"text", "csv", "yaml"}

// New creates a reporter for the named format. Findings go to `out`; the text
// format writes problems to `errOut` so they don't mix with the report lines.
func New(format string, out, errOut io.Writer) (Reporter, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return NewTextReporter(out, errOut), nil
	case "csv":
		return NewCSVReporter(out), nil
	case "yaml", "yml":
		return NewYAMLReporter(out), nil
	}

	message := fmt.Sprintf(
		"unknown output format %q, expected one of: %s", format, strings.Join(Formats, ", "))
	return nil, errors.ErrInvalidArgument.WithMessage(message)
}
