package opencl

// driver is the OpenCL host API surface a Session drives. The cgo
// implementation lives behind the gpu build tag; handles are the raw
// cl_* pointers.
type driver interface {
	platformID() (handle, Status)
	deviceID(platform handle) (handle, Status)
	platformInfo(platform handle) (PlatformInfo, error)
	deviceInfo(device handle) (DeviceInfo, error)
	platforms() ([]PlatformInfo, error)

	createContext(device handle) (handle, Status)
	createQueue(context, device handle) (handle, Status)

	createProgram(context handle, source string) (handle, Status)
	buildProgram(program, device handle) Status
	buildLogSize(program, device handle) (int, Status)
	buildLog(program, device handle, size int) ([]byte, Status)
	createKernel(program handle, name string) (handle, Status)

	createBuffer(context handle, size int) (handle, Status)
	writeBuffer(queue, buffer handle, data []float32) Status
	readBuffer(queue, buffer handle, out []float32) Status

	setKernelArg(kernel handle, index int, buffer handle) Status
	enqueueKernel(queue, kernel handle, global, local int) Status
	flush(queue handle) Status
	finish(queue handle) Status

	releaseKernel(kernel handle) Status
	releaseProgram(program handle) Status
	releaseQueue(queue handle) Status
	releaseContext(context handle) Status
	releaseBuffer(buffer handle) Status
}
