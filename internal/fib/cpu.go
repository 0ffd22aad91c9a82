package fib

// CPUComputer evaluates the kernel recurrence on the host. It is the
// reference the OpenCL backend is checked against.
type CPUComputer struct{}

// NewCPUComputer creates a host computer.
func NewCPUComputer() *CPUComputer {
	return &CPUComputer{}
}

// Reference mirrors the kernel in float arithmetic: 0 for n <= 0, 1 for
// 0 < n < 3, otherwise n-2 steps of the two-accumulator recurrence.
func Reference(n float32) float32 {
	if n <= 0 {
		return 0
	}
	if n < 3 {
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

func (c *CPUComputer) Compute(inputs []float32) ([]float32, error) {
	out := make([]float32, len(inputs))
	for i, n := range inputs {
		out[i] = Reference(n)
	}
	return out, nil
}

func (c *CPUComputer) Backend() Backend { return BackendCPU }

func (c *CPUComputer) Device() string { return "host" }
