package fib

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/clfib/internal/kernel"
)

// Backend identifies a Computer implementation.
type Backend string

const (
	BackendCPU    Backend = "cpu"
	BackendOpenCL Backend = "opencl"
)

var (
	// ErrUnknownBackend is returned when the name does not match a known backend.
	ErrUnknownBackend = errors.New("unknown compute backend")
	// ErrBackendUnavailable indicates the backend is not available in this build.
	ErrBackendUnavailable = errors.New("compute backend unavailable")
)

// NormalizeBackend maps arbitrary user input to a canonical backend identifier.
func NormalizeBackend(name string) Backend {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gpu", "opencl", "cl":
		return BackendOpenCL
	case "cpu", "host":
		return BackendCPU
	default:
		return Backend(name)
	}
}

// SupportedBackends returns the list of backends understood by the factory.
func SupportedBackends() []Backend {
	return []Backend{BackendOpenCL, BackendCPU}
}

// NewComputerForBackend constructs the requested computer. src is only
// used by the OpenCL backend; the CPU backend always evaluates the
// reference recurrence.
func NewComputerForBackend(name string, src kernel.Source) (Computer, error) {
	switch backend := NormalizeBackend(name); backend {
	case BackendCPU:
		return NewCPUComputer(), nil
	case BackendOpenCL:
		if err := src.Validate(); err != nil {
			return nil, err
		}
		return NewOpenCLComputer(src), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
}
