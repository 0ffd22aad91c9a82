//go:build gpu

package opencl

/*
#cgo linux LDFLAGS: -lOpenCL
#cgo windows LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL
#define CL_TARGET_OPENCL_VERSION 120
#define CL_USE_DEPRECATED_OPENCL_1_2_APIS
#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif
#include <stdlib.h>

static cl_command_queue clfib_create_queue(cl_context ctx, cl_device_id device, cl_int *status) {
#if CL_TARGET_OPENCL_VERSION >= 200
	const cl_queue_properties props[] = {0};
	return clCreateCommandQueueWithProperties(ctx, device, props, status);
#else
	return clCreateCommandQueue(ctx, device, 0, status);
#endif
}
*/
import "C"

import "unsafe"

type clDriver struct{}

func newDriver() (driver, error) {
	return clDriver{}, nil
}

func (clDriver) platformID() (handle, Status) {
	var id C.cl_platform_id
	var count C.cl_uint
	status := C.clGetPlatformIDs(1, &id, &count)
	if status != C.CL_SUCCESS {
		return nil, Status(status)
	}
	if count == 0 {
		return nil, Success
	}
	return handle(id), Success
}

func (clDriver) deviceID(platform handle) (handle, Status) {
	var id C.cl_device_id
	var count C.cl_uint
	status := C.clGetDeviceIDs(C.cl_platform_id(platform), C.CL_DEVICE_TYPE_DEFAULT, 1, &id, &count)
	if status != C.CL_SUCCESS {
		return nil, Status(status)
	}
	if count == 0 {
		return nil, Success
	}
	return handle(id), Success
}

func (clDriver) platformInfo(platform handle) (PlatformInfo, error) {
	return buildPlatformInfo(C.cl_platform_id(platform))
}

func (clDriver) deviceInfo(device handle) (DeviceInfo, error) {
	return buildDeviceInfo(C.cl_device_id(device))
}

func (clDriver) platforms() ([]PlatformInfo, error) {
	var count C.cl_uint
	status := C.clGetPlatformIDs(0, nil, &count)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(count)", ErrDiscovery, Status(status))
	}
	if count == 0 {
		return nil, nil
	}

	platformIDs := make([]C.cl_platform_id, int(count))
	status = C.clGetPlatformIDs(count, &platformIDs[0], nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetPlatformIDs(list)", ErrDiscovery, Status(status))
	}

	out := make([]PlatformInfo, 0, int(count))
	for _, pid := range platformIDs {
		info, err := buildPlatformInfo(pid)
		if err != nil {
			return nil, err
		}
		devices, err := enumerateDevices(pid)
		if err != nil {
			return nil, err
		}
		info.Devices = devices
		out = append(out, info)
	}
	return out, nil
}

func enumerateDevices(platform C.cl_platform_id) ([]DeviceInfo, error) {
	var count C.cl_uint
	status := C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_ALL, 0, nil, &count)
	if status == C.CL_DEVICE_NOT_FOUND || (status == C.CL_SUCCESS && count == 0) {
		return nil, nil
	}
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(count)", ErrDiscovery, Status(status))
	}

	deviceIDs := make([]C.cl_device_id, int(count))
	status = C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_ALL, count, &deviceIDs[0], nil)
	if status != C.CL_SUCCESS {
		return nil, statusError("clGetDeviceIDs(list)", ErrDiscovery, Status(status))
	}

	devices := make([]DeviceInfo, 0, int(count))
	for _, id := range deviceIDs {
		info, err := buildDeviceInfo(id)
		if err != nil {
			return nil, err
		}
		devices = append(devices, info)
	}
	return devices, nil
}

func buildPlatformInfo(id C.cl_platform_id) (PlatformInfo, error) {
	name, err := getPlatformString(id, C.CL_PLATFORM_NAME)
	if err != nil {
		return PlatformInfo{}, err
	}
	vendor, err := getPlatformString(id, C.CL_PLATFORM_VENDOR)
	if err != nil {
		return PlatformInfo{}, err
	}
	version, err := getPlatformString(id, C.CL_PLATFORM_VERSION)
	if err != nil {
		return PlatformInfo{}, err
	}
	return PlatformInfo{Name: name, Vendor: vendor, Version: version}, nil
}

func buildDeviceInfo(id C.cl_device_id) (DeviceInfo, error) {
	name, err := getDeviceString(id, C.CL_DEVICE_NAME)
	if err != nil {
		return DeviceInfo{}, err
	}
	vendor, err := getDeviceString(id, C.CL_DEVICE_VENDOR)
	if err != nil {
		return DeviceInfo{}, err
	}
	version, err := getDeviceString(id, C.CL_DEVICE_VERSION)
	if err != nil {
		return DeviceInfo{}, err
	}

	var rawType C.cl_device_type
	status := C.clGetDeviceInfo(id, C.CL_DEVICE_TYPE, C.size_t(unsafe.Sizeof(rawType)), unsafe.Pointer(&rawType), nil)
	if status != C.CL_SUCCESS {
		return DeviceInfo{}, statusError("clGetDeviceInfo(type)", ErrDiscovery, Status(status))
	}

	var computeUnits C.cl_uint
	status = C.clGetDeviceInfo(id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(computeUnits)), unsafe.Pointer(&computeUnits), nil)
	if status != C.CL_SUCCESS {
		return DeviceInfo{}, statusError("clGetDeviceInfo(computeUnits)", ErrDiscovery, Status(status))
	}

	return DeviceInfo{
		Name:            name,
		Vendor:          vendor,
		Version:         version,
		Type:            mapDeviceType(rawType),
		MaxComputeUnits: uint32(computeUnits),
	}, nil
}

func getPlatformString(id C.cl_platform_id, param C.cl_platform_info) (string, error) {
	var size C.size_t
	status := C.clGetPlatformInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(size)", ErrDiscovery, Status(status))
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, int(size))
	status = C.clGetPlatformInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetPlatformInfo(value)", ErrDiscovery, Status(status))
	}
	return trimNull(buf), nil
}

func getDeviceString(id C.cl_device_id, param C.cl_device_info) (string, error) {
	var size C.size_t
	status := C.clGetDeviceInfo(id, param, 0, nil, &size)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(size)", ErrDiscovery, Status(status))
	}
	if size == 0 {
		return "", nil
	}

	buf := make([]byte, int(size))
	status = C.clGetDeviceInfo(id, param, size, unsafe.Pointer(&buf[0]), nil)
	if status != C.CL_SUCCESS {
		return "", statusError("clGetDeviceInfo(value)", ErrDiscovery, Status(status))
	}
	return trimNull(buf), nil
}

func mapDeviceType(dt C.cl_device_type) DeviceType {
	switch {
	case dt&C.CL_DEVICE_TYPE_GPU != 0:
		return DeviceTypeGPU
	case dt&C.CL_DEVICE_TYPE_CPU != 0:
		return DeviceTypeCPU
	case dt&C.CL_DEVICE_TYPE_ACCELERATOR != 0:
		return DeviceTypeAccelerator
	case dt&C.CL_DEVICE_TYPE_DEFAULT != 0:
		return DeviceTypeDefault
	default:
		return DeviceTypeUnknown
	}
}

func (clDriver) createContext(device handle) (handle, Status) {
	var status C.cl_int
	id := C.cl_device_id(device)
	ctx := C.clCreateContext(nil, 1, &id, nil, nil, &status)
	return handle(ctx), Status(status)
}

func (clDriver) createQueue(context, device handle) (handle, Status) {
	var status C.cl_int
	queue := C.clfib_create_queue(C.cl_context(context), C.cl_device_id(device), &status)
	return handle(queue), Status(status)
}

func (clDriver) createProgram(context handle, source string) (handle, Status) {
	src := C.CString(source)
	defer C.free(unsafe.Pointer(src))
	length := C.size_t(len(source))

	var status C.cl_int
	program := C.clCreateProgramWithSource(C.cl_context(context), 1, &src, &length, &status)
	return handle(program), Status(status)
}

func (clDriver) buildProgram(program, device handle) Status {
	id := C.cl_device_id(device)
	return Status(C.clBuildProgram(C.cl_program(program), 1, &id, nil, nil, nil))
}

func (clDriver) buildLogSize(program, device handle) (int, Status) {
	var size C.size_t
	status := C.clGetProgramBuildInfo(C.cl_program(program), C.cl_device_id(device), C.CL_PROGRAM_BUILD_LOG, 0, nil, &size)
	return int(size), Status(status)
}

func (clDriver) buildLog(program, device handle, size int) ([]byte, Status) {
	if size <= 0 {
		return nil, Success
	}
	buf := make([]byte, size)
	status := C.clGetProgramBuildInfo(C.cl_program(program), C.cl_device_id(device), C.CL_PROGRAM_BUILD_LOG, C.size_t(size), unsafe.Pointer(&buf[0]), nil)
	return buf, Status(status)
}

func (clDriver) createKernel(program handle, name string) (handle, Status) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var status C.cl_int
	k := C.clCreateKernel(C.cl_program(program), cName, &status)
	return handle(k), Status(status)
}

func (clDriver) createBuffer(context handle, size int) (handle, Status) {
	var status C.cl_int
	mem := C.clCreateBuffer(C.cl_context(context), C.CL_MEM_READ_WRITE, C.size_t(size), nil, &status)
	return handle(mem), Status(status)
}

func (clDriver) writeBuffer(queue, buffer handle, data []float32) Status {
	if len(data) == 0 {
		return Status(C.CL_INVALID_VALUE)
	}
	size := C.size_t(Float32Bytes(len(data)))
	return Status(C.clEnqueueWriteBuffer(C.cl_command_queue(queue), C.cl_mem(buffer), C.CL_TRUE, 0, size, unsafe.Pointer(&data[0]), 0, nil, nil))
}

func (clDriver) readBuffer(queue, buffer handle, out []float32) Status {
	if len(out) == 0 {
		return Status(C.CL_INVALID_VALUE)
	}
	size := C.size_t(Float32Bytes(len(out)))
	return Status(C.clEnqueueReadBuffer(C.cl_command_queue(queue), C.cl_mem(buffer), C.CL_TRUE, 0, size, unsafe.Pointer(&out[0]), 0, nil, nil))
}

func (clDriver) setKernelArg(k handle, index int, buffer handle) Status {
	mem := C.cl_mem(buffer)
	return Status(C.clSetKernelArg(C.cl_kernel(k), C.cl_uint(index), C.size_t(unsafe.Sizeof(mem)), unsafe.Pointer(&mem)))
}

func (clDriver) enqueueKernel(queue, k handle, global, local int) Status {
	globalSize := C.size_t(global)
	localSize := C.size_t(local)
	return Status(C.clEnqueueNDRangeKernel(C.cl_command_queue(queue), C.cl_kernel(k), 1, nil, &globalSize, &localSize, 0, nil, nil))
}

func (clDriver) flush(queue handle) Status {
	return Status(C.clFlush(C.cl_command_queue(queue)))
}

func (clDriver) finish(queue handle) Status {
	return Status(C.clFinish(C.cl_command_queue(queue)))
}

func (clDriver) releaseKernel(k handle) Status {
	return Status(C.clReleaseKernel(C.cl_kernel(k)))
}

func (clDriver) releaseProgram(program handle) Status {
	return Status(C.clReleaseProgram(C.cl_program(program)))
}

func (clDriver) releaseQueue(queue handle) Status {
	return Status(C.clReleaseCommandQueue(C.cl_command_queue(queue)))
}

func (clDriver) releaseContext(context handle) Status {
	return Status(C.clReleaseContext(C.cl_context(context)))
}

func (clDriver) releaseBuffer(buffer handle) Status {
	return Status(C.clReleaseMemObject(C.cl_mem(buffer)))
}
