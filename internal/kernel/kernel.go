// Package kernel holds the OpenCL C sources dispatched by clfib.
package kernel

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FibEntry is the entry point declared by the embedded Fibonacci source.
const FibEntry = "fib"

// FibVersion identifies the revision of the embedded Fibonacci source.
const FibVersion = "1"

//go:embed fib.cl
var fibSource string

// Source is kernel code compiled at runtime together with the name of the
// entry point to invoke. The entry point takes an input and an output
// float buffer, in that order.
type Source struct {
	Name    string
	Version string
	Entry   string
	Text    string
}

// Fib returns the embedded Fibonacci kernel.
func Fib() Source {
	return Source{
		Name:    "fib.cl",
		Version: FibVersion,
		Entry:   FibEntry,
		Text:    fibSource,
	}
}

// Validate checks that the source names an entry point and has text to
// compile. It does not parse the text; the device compiler does that.
func (s Source) Validate() error {
	if strings.TrimSpace(s.Entry) == "" {
		return errors.Errorf("kernel source %q: empty entry point", s.Name)
	}
	if strings.TrimSpace(s.Text) == "" {
		return errors.Errorf("kernel source %q: empty text", s.Name)
	}
	return nil
}

// Load reads a substitute kernel from path. An empty entry selects FibEntry.
func Load(path, entry string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, errors.Wrapf(err, "failed to read kernel source")
	}
	if entry == "" {
		entry = FibEntry
	}

	src := Source{
		Name:    filepath.Base(path),
		Version: "file",
		Entry:   entry,
		Text:    string(data),
	}
	if err := src.Validate(); err != nil {
		return Source{}, err
	}
	return src, nil
}
