// Package opencl runs single-shot compute dispatches on an OpenCL device.
//
// A Session owns every handle it creates. Close releases kernels, programs,
// the queue, the context and finally buffers, in that order, whether the
// run succeeded or stopped half way.
package opencl

import (
	"fmt"
	"log/slog"

	"github.com/cwbudde/clfib/internal/kernel"
)

// Session binds one platform and device to a context and an in-order
// command queue. It is not safe for concurrent use.
type Session struct {
	drv      driver
	platform handle
	device   handle
	context  handle
	queue    handle
	ledger   ledger
	closed   bool

	Platform PlatformInfo
	Device   DeviceInfo
}

// Open resolves the default device and creates a context and queue on it.
func Open() (*Session, error) {
	drv, err := newDriver()
	if err != nil {
		return nil, err
	}
	return open(drv)
}

// EnumeratePlatforms returns discovered platforms with their devices.
func EnumeratePlatforms() ([]PlatformInfo, error) {
	drv, err := newDriver()
	if err != nil {
		return nil, err
	}
	return drv.platforms()
}

func open(drv driver) (*Session, error) {
	s := &Session{drv: drv}
	if err := s.resolve(); err != nil {
		return nil, err
	}
	if err := s.createContext(); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.createQueue(); err != nil {
		_ = s.Close()
		return nil, err
	}

	slog.Info("OpenCL session opened",
		"platform", s.Platform.Name,
		"device", s.Device.Name,
		"vendor", s.Device.Vendor,
		"compute_units", s.Device.MaxComputeUnits,
	)
	return s, nil
}

// resolve picks the first platform and its first default-class device.
func (s *Session) resolve() error {
	platform, status := s.drv.platformID()
	if status != Success {
		return statusError("clGetPlatformIDs", ErrDiscovery, status)
	}
	if platform == nil {
		return fmt.Errorf("%w: no OpenCL platforms found", ErrDiscovery)
	}

	device, status := s.drv.deviceID(platform)
	if status != Success {
		return statusError("clGetDeviceIDs", ErrDiscovery, status)
	}
	if device == nil {
		return fmt.Errorf("%w: no default OpenCL device found", ErrDiscovery)
	}

	s.platform = platform
	s.device = device

	if info, err := s.drv.platformInfo(platform); err == nil {
		s.Platform = info
	} else {
		slog.Debug("OpenCL platform info unavailable", "err", err)
	}
	if info, err := s.drv.deviceInfo(device); err == nil {
		s.Device = info
	} else {
		slog.Debug("OpenCL device info unavailable", "err", err)
	}
	return nil
}

func (s *Session) createContext() error {
	ctx, status := s.drv.createContext(s.device)
	if status != Success || ctx == nil {
		return creationError("clCreateContext", ErrContext, status)
	}
	s.context = ctx
	s.ledger.track(kindContext, "context", func() Status { return s.drv.releaseContext(ctx) })
	return nil
}

func (s *Session) createQueue() error {
	queue, status := s.drv.createQueue(s.context, s.device)
	if status != Success || queue == nil {
		return creationError("clCreateCommandQueue", ErrQueue, status)
	}
	s.queue = queue
	s.ledger.track(kindQueue, "queue", func() Status { return s.drv.releaseQueue(queue) })
	return nil
}

// creationError covers both a failing status and a null handle returned
// with CL_SUCCESS.
func creationError(op string, stage error, status Status) error {
	if status == Success {
		return fmt.Errorf("%w: %s returned a null handle", stage, op)
	}
	return statusError(op, stage, status)
}

func (s *Session) usable(stage error) error {
	if s.closed {
		return fmt.Errorf("%w: %w", stage, ErrSessionClosed)
	}
	return nil
}

// Close releases every resource the session still owns. Release failures
// are logged and combined into the returned error; they never stop the
// sweep. Close is idempotent.
func (s *Session) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	return s.ledger.releaseAll()
}

// Program is device code compiled from a kernel source.
type Program struct {
	s      *Session
	h      handle
	res    *resource
	Source kernel.Source
}

// Build compiles src for the session's device without build options. When
// the compiler rejects the source the error is a *BuildError holding the
// build log.
func (s *Session) Build(src kernel.Source) (*Program, error) {
	if err := s.usable(ErrCompile); err != nil {
		return nil, err
	}

	h, status := s.drv.createProgram(s.context, src.Text)
	if status != Success || h == nil {
		return nil, creationError("clCreateProgramWithSource", ErrCompile, status)
	}
	p := &Program{s: s, h: h, Source: src}
	p.res = s.ledger.track(kindProgram, src.Name, func() Status { return s.drv.releaseProgram(h) })

	if status := s.drv.buildProgram(h, s.device); status != Success {
		return nil, &BuildError{Status: status, Log: s.buildLog(h)}
	}

	slog.Debug("OpenCL program built", "source", src.Name, "version", src.Version)
	return p, nil
}

// buildLog fetches the build log in two steps: size first, then content.
func (s *Session) buildLog(program handle) string {
	size, status := s.drv.buildLogSize(program, s.device)
	if status != Success {
		slog.Error("OpenCL: failed to fetch build log size", "err", statusError("clGetProgramBuildInfo(size)", ErrCompile, status))
		return ""
	}
	if size == 0 {
		return ""
	}

	buf, status := s.drv.buildLog(program, s.device, size)
	if status != Success {
		slog.Error("OpenCL: failed to fetch build log", "err", statusError("clGetProgramBuildInfo(log)", ErrCompile, status))
		return ""
	}
	return trimNull(buf)
}

// Release frees the program ahead of Close.
func (p *Program) Release() error {
	return p.res.free()
}

// Kernel is a named entry point of a built program.
type Kernel struct {
	s    *Session
	h    handle
	res  *resource
	Name string
}

// Kernel looks up the entry point called name.
func (p *Program) Kernel(name string) (*Kernel, error) {
	if err := p.s.usable(ErrKernelLookup); err != nil {
		return nil, err
	}
	if err := p.res.live(ErrKernelLookup); err != nil {
		return nil, err
	}

	h, status := p.s.drv.createKernel(p.h, name)
	if status != Success || h == nil {
		return nil, creationError(fmt.Sprintf("clCreateKernel(%s)", name), ErrKernelLookup, status)
	}
	k := &Kernel{s: p.s, h: h, Name: name}
	k.res = p.s.ledger.track(kindKernel, name, func() Status { return p.s.drv.releaseKernel(h) })
	return k, nil
}

// Release frees the kernel ahead of Close.
func (k *Kernel) Release() error {
	return k.res.free()
}

// SetArg binds buf to the positional kernel argument index.
func (k *Kernel) SetArg(index int, buf *Buffer) error {
	if err := k.s.usable(ErrArgBind); err != nil {
		return err
	}
	if err := k.res.live(ErrArgBind); err != nil {
		return err
	}
	if buf == nil {
		return fmt.Errorf("%w: nil buffer for argument %d", ErrArgBind, index)
	}
	if buf.s != k.s {
		return fmt.Errorf("%w: buffer %q belongs to another session", ErrArgBind, buf.name)
	}
	if err := buf.res.live(ErrArgBind); err != nil {
		return err
	}
	if index < 0 {
		return fmt.Errorf("%w: negative argument index %d", ErrArgBind, index)
	}

	if status := k.s.drv.setKernelArg(k.h, index, buf.h); status != Success {
		return statusError(fmt.Sprintf("clSetKernelArg(%d, %s)", index, buf.name), ErrArgBind, status)
	}
	return nil
}

// Buffer is a fixed-size read-write region of device memory.
type Buffer struct {
	s    *Session
	h    handle
	res  *resource
	name string
	size int
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() int { return b.size }

// Name returns the label the buffer was allocated with.
func (b *Buffer) Name() string { return b.name }

// Release frees the buffer ahead of Close.
func (b *Buffer) Release() error {
	return b.res.free()
}

// Allocate creates an uninitialised read-write buffer of size bytes.
func (s *Session) Allocate(name string, size int) (*Buffer, error) {
	if err := s.usable(ErrAllocation); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid size %d", ErrAllocation, name, size)
	}

	h, status := s.drv.createBuffer(s.context, size)
	if status != Success || h == nil {
		return nil, creationError(fmt.Sprintf("clCreateBuffer(%s)", name), ErrAllocation, status)
	}
	b := &Buffer{s: s, h: h, name: name, size: size}
	b.res = s.ledger.track(kindBuffer, name, func() Status { return s.drv.releaseBuffer(h) })
	return b, nil
}

// Write copies data into buf and blocks until the copy completes. data
// must cover the buffer exactly.
func (s *Session) Write(buf *Buffer, data []float32) error {
	if err := s.transferable(buf, len(data)); err != nil {
		return err
	}
	if status := s.drv.writeBuffer(s.queue, buf.h, data); status != Success {
		return statusError(fmt.Sprintf("clEnqueueWriteBuffer(%s)", buf.name), ErrTransfer, status)
	}
	return nil
}

// Read copies buf into out and blocks until the copy completes. out must
// cover the buffer exactly.
func (s *Session) Read(buf *Buffer, out []float32) error {
	if err := s.transferable(buf, len(out)); err != nil {
		return err
	}
	if status := s.drv.readBuffer(s.queue, buf.h, out); status != Success {
		return statusError(fmt.Sprintf("clEnqueueReadBuffer(%s)", buf.name), ErrTransfer, status)
	}
	return nil
}

func (s *Session) transferable(buf *Buffer, n int) error {
	if err := s.usable(ErrTransfer); err != nil {
		return err
	}
	if buf == nil {
		return fmt.Errorf("%w: nil buffer", ErrTransfer)
	}
	if buf.s != s {
		return fmt.Errorf("%w: buffer %q belongs to another session", ErrTransfer, buf.name)
	}
	if err := buf.res.live(ErrTransfer); err != nil {
		return err
	}
	if got := Float32Bytes(n); got != buf.size {
		return fmt.Errorf("%w: %s: %d bytes do not match %d-byte buffer", ErrTransfer, buf.name, got, buf.size)
	}
	return nil
}

// Enqueue submits a one-dimensional range of global work items grouped by
// local. global must be a positive multiple of local.
func (s *Session) Enqueue(k *Kernel, global, local int) error {
	if err := s.usable(ErrDispatch); err != nil {
		return err
	}
	if err := k.res.live(ErrDispatch); err != nil {
		return err
	}
	if global <= 0 || local <= 0 || global%local != 0 {
		return fmt.Errorf("%w: invalid work size global=%d local=%d", ErrDispatch, global, local)
	}

	if status := s.drv.enqueueKernel(s.queue, k.h, global, local); status != Success {
		return statusError(fmt.Sprintf("clEnqueueNDRangeKernel(%s)", k.Name), ErrDispatch, status)
	}
	return nil
}

// Flush submits every queued command to the device.
func (s *Session) Flush() error {
	if err := s.usable(ErrDispatch); err != nil {
		return err
	}
	if status := s.drv.flush(s.queue); status != Success {
		return statusError("clFlush", ErrDispatch, status)
	}
	return nil
}

// Finish blocks until every command enqueued so far has completed.
func (s *Session) Finish() error {
	if err := s.usable(ErrDispatch); err != nil {
		return err
	}
	if status := s.drv.finish(s.queue); status != Success {
		return statusError("clFinish", ErrDispatch, status)
	}
	return nil
}
