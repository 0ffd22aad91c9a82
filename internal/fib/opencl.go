package fib

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/clfib/internal/kernel"
	"github.com/cwbudde/clfib/internal/opencl"
	"github.com/pkg/errors"
)

// dispatchSession is the part of an opencl.Session a Computer drives.
type dispatchSession interface {
	Run(src kernel.Source, inputs []float32) ([]float32, error)
	Close() error
}

// openSession opens a session on the default device and reports the
// device it resolved.
var openSession = func() (dispatchSession, opencl.DeviceInfo, error) {
	s, err := opencl.Open()
	if err != nil {
		return nil, opencl.DeviceInfo{}, err
	}
	return s, s.Device, nil
}

// OpenCLComputer dispatches the kernel to the default OpenCL device. Every
// Compute call opens a fresh session, so no handle outlives the call.
type OpenCLComputer struct {
	source kernel.Source
	device string
}

// NewOpenCLComputer creates a computer that compiles src on each call.
func NewOpenCLComputer(src kernel.Source) *OpenCLComputer {
	return &OpenCLComputer{source: src}
}

func (c *OpenCLComputer) Compute(inputs []float32) ([]float32, error) {
	session, device, err := openSession()
	if err != nil {
		if errors.Is(err, opencl.ErrNotBuilt) {
			return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
		}
		return nil, err
	}
	defer func() {
		// Release failures were already logged one by one.
		if cerr := session.Close(); cerr != nil {
			slog.Debug("OpenCL teardown finished with errors", "err", cerr)
		}
	}()

	c.device = device.Name
	out, err := session.Run(c.source, inputs)
	if err != nil {
		return nil, errors.Wrapf(err, "%s on %s", c.source.Entry, deviceLabel(device))
	}
	return out, nil
}

func (c *OpenCLComputer) Backend() Backend { return BackendOpenCL }

func (c *OpenCLComputer) Device() string { return c.device }

func deviceLabel(d opencl.DeviceInfo) string {
	if d.Name == "" {
		return "opencl device"
	}
	return d.Name
}
