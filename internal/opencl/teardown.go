package opencl

import (
	"fmt"
	"log/slog"

	"go.uber.org/multierr"
)

type resourceKind int

const (
	kindKernel resourceKind = iota
	kindProgram
	kindQueue
	kindContext
	kindBuffer
)

// releaseOrder is the fixed teardown sequence. Buffers go last: the queue
// has been drained by then and the context stays alive until its memory
// objects are gone.
var releaseOrder = []resourceKind{kindKernel, kindProgram, kindQueue, kindContext, kindBuffer}

func (k resourceKind) String() string {
	switch k {
	case kindKernel:
		return "kernel"
	case kindProgram:
		return "program"
	case kindQueue:
		return "queue"
	case kindContext:
		return "context"
	case kindBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

func (k resourceKind) releaseOp() string {
	switch k {
	case kindKernel:
		return "clReleaseKernel"
	case kindProgram:
		return "clReleaseProgram"
	case kindQueue:
		return "clReleaseCommandQueue"
	case kindContext:
		return "clReleaseContext"
	default:
		return "clReleaseMemObject"
	}
}

// resource is one acquired handle registered for teardown.
type resource struct {
	kind     resourceKind
	name     string
	release  func() Status
	released bool
}

// free releases the resource once. Later calls are no-ops.
func (r *resource) free() error {
	if r.released {
		return nil
	}
	r.released = true
	status := r.release()
	if status == Success {
		slog.Debug("OpenCL resource released", "kind", r.kind.String(), "name", r.name)
		return nil
	}
	err := statusError(r.kind.releaseOp()+"("+r.name+")", ErrRelease, status)
	slog.Warn("OpenCL release failed", "kind", r.kind.String(), "name", r.name, "err", err)
	return err
}

// ledger tracks every handle a session acquires so that Close can release
// them in releaseOrder on every exit path.
type ledger struct {
	resources []*resource
}

func (l *ledger) track(kind resourceKind, name string, release func() Status) *resource {
	r := &resource{kind: kind, name: name, release: release}
	l.resources = append(l.resources, r)
	return r
}

// releaseAll frees every outstanding resource. Failures do not stop the
// sweep; they are combined into the returned error.
func (l *ledger) releaseAll() error {
	var err error
	for _, kind := range releaseOrder {
		for _, r := range l.resources {
			if r.kind != kind {
				continue
			}
			err = multierr.Append(err, r.free())
		}
	}
	l.resources = nil
	return err
}

// live reports an error wrapping stage when the resource was already
// released.
func (r *resource) live(stage error) error {
	if r.released {
		return fmt.Errorf("%w: %s %q used after release", stage, r.kind, r.name)
	}
	return nil
}
