package opencl

import "unsafe"

// DeviceType describes the class of an OpenCL device.
type DeviceType string

const (
	DeviceTypeGPU         DeviceType = "GPU"
	DeviceTypeCPU         DeviceType = "CPU"
	DeviceTypeAccelerator DeviceType = "Accelerator"
	DeviceTypeDefault     DeviceType = "Default"
	DeviceTypeUnknown     DeviceType = "Unknown"
)

// DeviceInfo captures metadata about an OpenCL device.
type DeviceInfo struct {
	Name            string
	Vendor          string
	Version         string
	Type            DeviceType
	MaxComputeUnits uint32
}

// PlatformInfo captures metadata about an OpenCL platform and its devices.
type PlatformInfo struct {
	Name    string
	Vendor  string
	Version string
	Devices []DeviceInfo
}

// handle is an opaque backend object: a cl_platform_id, cl_device_id,
// cl_context, cl_command_queue, cl_program, cl_kernel or cl_mem.
type handle = unsafe.Pointer

// elementSize is the byte width of one kernel element (a float).
const elementSize = int(unsafe.Sizeof(float32(0)))

// Float32Bytes returns the byte size of a buffer holding n floats.
func Float32Bytes(n int) int {
	return n * elementSize
}

func trimNull(buf []byte) string {
	if len(buf) == 0 {
		return ""
	}
	if buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	return string(buf)
}
