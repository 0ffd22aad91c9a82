package opencl

import (
	"errors"
	"fmt"
)

// Stage errors. Every failure returned by a Session matches exactly one of
// these through errors.Is.
var (
	ErrDiscovery    = errors.New("device discovery failed")
	ErrContext      = errors.New("context creation failed")
	ErrQueue        = errors.New("command queue creation failed")
	ErrCompile      = errors.New("program build failed")
	ErrKernelLookup = errors.New("kernel lookup failed")
	ErrAllocation   = errors.New("buffer allocation failed")
	ErrTransfer     = errors.New("buffer transfer failed")
	ErrArgBind      = errors.New("kernel argument binding failed")
	ErrDispatch     = errors.New("kernel dispatch failed")

	// ErrRelease marks teardown failures. They are collected by Close and
	// never abort a run.
	ErrRelease = errors.New("resource release failed")
)

// ErrNotBuilt indicates the binary was built without OpenCL support.
var ErrNotBuilt = fmt.Errorf("%w: opencl support requires building with '-tags gpu'", ErrDiscovery)

// ErrSessionClosed is returned by operations on a session after Close.
var ErrSessionClosed = errors.New("opencl session is closed")

// StatusError reports a backend call that returned a non-success status.
type StatusError struct {
	Op     string
	Stage  error
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Status, int32(e.Status))
}

// Unwrap exposes the stage sentinel.
func (e *StatusError) Unwrap() error {
	return e.Stage
}

func statusError(op string, stage error, status Status) error {
	return &StatusError{Op: op, Stage: stage, Status: status}
}

// BuildError carries the compiler diagnostics of a failed program build.
// Log is the backend build log verbatim and may be empty.
type BuildError struct {
	Status Status
	Log    string
}

func (e *BuildError) Error() string {
	if e.Log == "" {
		return fmt.Sprintf("clBuildProgram: %s (%d)", e.Status, int32(e.Status))
	}
	return fmt.Sprintf("clBuildProgram: %s (%d)\n%s", e.Status, int32(e.Status), e.Log)
}

// Unwrap exposes ErrCompile.
func (e *BuildError) Unwrap() error {
	return ErrCompile
}
