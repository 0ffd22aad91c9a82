package opencl

import (
	"fmt"
	"regexp"
	"strings"
)

// fakeDriver emulates an OpenCL device in host memory. Kernels are Go
// functions applied per work item; the "compiler" accepts any source that
// declares at least one kernel.
type fakeDriver struct {
	calls []string

	fail        map[string]Status
	nullHandle  map[string]bool
	noPlatform  bool
	noDevice    bool
	compilerLog string

	kernels map[string]func(float32) float32

	nextID     int
	live       map[int]string
	violations []string
	dispatched int
	allocated  []int
}

type fakeObject struct {
	id   int
	kind string
}

type fakeProgram struct {
	fakeObject
	source string
	log    string
}

type fakeKernel struct {
	fakeObject
	name string
	fn   func(float32) float32
	args map[int]*fakeBuffer
}

type fakeBuffer struct {
	fakeObject
	data []float32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		fail:       map[string]Status{},
		nullHandle: map[string]bool{},
		kernels:    map[string]func(float32) float32{"fib": referenceFib},
		live:       map[int]string{},
	}
}

// referenceFib mirrors the embedded kernel in float arithmetic.
func referenceFib(n float32) float32 {
	if n <= 0 {
		return 0
	}
	if n > 0 && n < 3 {
		return 1
	}
	var r float32
	n1, n2 := float32(1), float32(1)
	for i := 2; float32(i) < n; i++ {
		r = n1 + n2
		n1 = n2
		n2 = r
	}
	return r
}

var kernelDecl = regexp.MustCompile(`kernel\s+void\s+(\w+)\s*\(`)

func (f *fakeDriver) call(op string) Status {
	f.calls = append(f.calls, op)
	if status, ok := f.fail[op]; ok {
		return status
	}
	return Success
}

func (f *fakeDriver) object(kind string) fakeObject {
	f.nextID++
	f.live[f.nextID] = kind
	return fakeObject{id: f.nextID, kind: kind}
}

func (f *fakeDriver) check(o *fakeObject, op string) {
	if _, ok := f.live[o.id]; !ok {
		f.violations = append(f.violations, fmt.Sprintf("%s on released %s %d", op, o.kind, o.id))
	}
}

func (f *fakeDriver) release(o *fakeObject, op string) Status {
	f.check(o, op)
	if status := f.call(op); status != Success {
		return status
	}
	delete(f.live, o.id)
	return Success
}

// callsWithPrefix filters the call log.
func (f *fakeDriver) callsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

var (
	fakePlatform = new(int)
	fakeDevice   = new(int)
)

func (f *fakeDriver) platformID() (handle, Status) {
	if status := f.call("clGetPlatformIDs"); status != Success || f.noPlatform {
		return nil, status
	}
	return handle(fakePlatform), Success
}

func (f *fakeDriver) deviceID(platform handle) (handle, Status) {
	if status := f.call("clGetDeviceIDs"); status != Success || f.noDevice {
		return nil, status
	}
	return handle(fakeDevice), Success
}

func (f *fakeDriver) platformInfo(platform handle) (PlatformInfo, error) {
	return PlatformInfo{Name: "Fake Platform", Vendor: "clfib", Version: "OpenCL 1.2"}, nil
}

func (f *fakeDriver) deviceInfo(device handle) (DeviceInfo, error) {
	return DeviceInfo{Name: "Fake Device", Vendor: "clfib", Version: "OpenCL 1.2", Type: DeviceTypeGPU, MaxComputeUnits: 1}, nil
}

func (f *fakeDriver) platforms() ([]PlatformInfo, error) {
	p, _ := f.platformInfo(nil)
	d, _ := f.deviceInfo(nil)
	p.Devices = []DeviceInfo{d}
	return []PlatformInfo{p}, nil
}

func (f *fakeDriver) createContext(device handle) (handle, Status) {
	if status := f.call("clCreateContext"); status != Success {
		return nil, status
	}
	if f.nullHandle["clCreateContext"] {
		return nil, Success
	}
	obj := f.object("context")
	return handle(&obj), Success
}

func (f *fakeDriver) createQueue(context, device handle) (handle, Status) {
	if status := f.call("clCreateCommandQueue"); status != Success {
		return nil, status
	}
	if f.nullHandle["clCreateCommandQueue"] {
		return nil, Success
	}
	obj := f.object("queue")
	return handle(&obj), Success
}

func (f *fakeDriver) createProgram(context handle, source string) (handle, Status) {
	if status := f.call("clCreateProgramWithSource"); status != Success {
		return nil, status
	}
	p := &fakeProgram{fakeObject: f.object("program"), source: source}
	return handle(p), Success
}

func (f *fakeDriver) buildProgram(program, device handle) Status {
	p := (*fakeProgram)(program)
	f.check(&p.fakeObject, "clBuildProgram")
	if status := f.call("clBuildProgram"); status != Success {
		p.log = f.compilerLog
		return status
	}
	if !kernelDecl.MatchString(p.source) {
		p.log = "<kernel>:1:1: error: expected a kernel function declaration"
		return -11
	}
	return Success
}

func (f *fakeDriver) buildLogSize(program, device handle) (int, Status) {
	p := (*fakeProgram)(program)
	if status := f.call("clGetProgramBuildInfo(size)"); status != Success {
		return 0, status
	}
	if p.log == "" {
		return 0, Success
	}
	return len(p.log) + 1, Success
}

func (f *fakeDriver) buildLog(program, device handle, size int) ([]byte, Status) {
	p := (*fakeProgram)(program)
	if status := f.call("clGetProgramBuildInfo(log)"); status != Success {
		return nil, status
	}
	buf := make([]byte, size)
	copy(buf, p.log)
	return buf, Success
}

func (f *fakeDriver) createKernel(program handle, name string) (handle, Status) {
	p := (*fakeProgram)(program)
	f.check(&p.fakeObject, "clCreateKernel")
	if status := f.call("clCreateKernel"); status != Success {
		return nil, status
	}

	declared := false
	for _, m := range kernelDecl.FindAllStringSubmatch(p.source, -1) {
		if m[1] == name {
			declared = true
		}
	}
	fn, known := f.kernels[name]
	if !declared || !known {
		return nil, -46
	}
	k := &fakeKernel{fakeObject: f.object("kernel"), name: name, fn: fn, args: map[int]*fakeBuffer{}}
	return handle(k), Success
}

func (f *fakeDriver) createBuffer(context handle, size int) (handle, Status) {
	if status := f.call("clCreateBuffer"); status != Success {
		return nil, status
	}
	f.allocated = append(f.allocated, size)
	b := &fakeBuffer{fakeObject: f.object("buffer"), data: make([]float32, size/elementSize)}
	for i := range b.data {
		b.data[i] = -1
	}
	return handle(b), Success
}

func (f *fakeDriver) writeBuffer(queue, buffer handle, data []float32) Status {
	b := (*fakeBuffer)(buffer)
	f.check(&b.fakeObject, "clEnqueueWriteBuffer")
	if status := f.call("clEnqueueWriteBuffer"); status != Success {
		return status
	}
	if len(data) != len(b.data) {
		f.violations = append(f.violations, "write size mismatch")
	}
	copy(b.data, data)
	return Success
}

func (f *fakeDriver) readBuffer(queue, buffer handle, out []float32) Status {
	b := (*fakeBuffer)(buffer)
	f.check(&b.fakeObject, "clEnqueueReadBuffer")
	if status := f.call("clEnqueueReadBuffer"); status != Success {
		return status
	}
	if len(out) != len(b.data) {
		f.violations = append(f.violations, "read size mismatch")
	}
	copy(out, b.data)
	return Success
}

func (f *fakeDriver) setKernelArg(kernel handle, index int, buffer handle) Status {
	k := (*fakeKernel)(kernel)
	b := (*fakeBuffer)(buffer)
	f.check(&k.fakeObject, "clSetKernelArg")
	f.check(&b.fakeObject, "clSetKernelArg")
	if status := f.call("clSetKernelArg"); status != Success {
		return status
	}
	if index > 1 {
		return -49
	}
	k.args[index] = b
	return Success
}

func (f *fakeDriver) enqueueKernel(queue, kernel handle, global, local int) Status {
	k := (*fakeKernel)(kernel)
	f.check(&k.fakeObject, "clEnqueueNDRangeKernel")
	if status := f.call("clEnqueueNDRangeKernel"); status != Success {
		return status
	}
	in, out := k.args[0], k.args[1]
	if in == nil || out == nil {
		return -52
	}
	for id := 0; id < global; id++ {
		if id >= len(in.data) || id >= len(out.data) {
			f.violations = append(f.violations, fmt.Sprintf("work item %d out of bounds", id))
			continue
		}
		out.data[id] = k.fn(in.data[id])
		f.dispatched++
	}
	return Success
}

func (f *fakeDriver) flush(queue handle) Status  { return f.call("clFlush") }
func (f *fakeDriver) finish(queue handle) Status { return f.call("clFinish") }

func (f *fakeDriver) releaseKernel(kernel handle) Status {
	return f.release(&(*fakeKernel)(kernel).fakeObject, "clReleaseKernel")
}

func (f *fakeDriver) releaseProgram(program handle) Status {
	return f.release(&(*fakeProgram)(program).fakeObject, "clReleaseProgram")
}

func (f *fakeDriver) releaseQueue(queue handle) Status {
	return f.release((*fakeObject)(queue), "clReleaseCommandQueue")
}

func (f *fakeDriver) releaseContext(context handle) Status {
	return f.release((*fakeObject)(context), "clReleaseContext")
}

func (f *fakeDriver) releaseBuffer(buffer handle) Status {
	return f.release(&(*fakeBuffer)(buffer).fakeObject, "clReleaseMemObject")
}

var _ driver = (*fakeDriver)(nil)
