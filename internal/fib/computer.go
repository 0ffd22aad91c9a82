// Package fib evaluates the Fibonacci kernel on a compute backend.
package fib

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when the float result has no integer value.
// float32 overflows to +Inf from about n = 187.
var ErrOverflow = errors.New("result exceeds float32 range")

// Computer evaluates the kernel once per input element.
type Computer interface {
	// Compute returns one output per input.
	Compute(inputs []float32) ([]float32, error)

	// Backend identifies the implementation.
	Backend() Backend

	// Device describes where the last Compute ran.
	Device() string
}

// Value computes fib(n) on c and truncates the float result toward zero.
// Results that are infinite or NaN yield ErrOverflow.
func Value(c Computer, n int) (int64, error) {
	out, err := c.Compute([]float32{float32(n)})
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("expected 1 result, got %d", len(out))
	}
	r := float64(out[0])
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return 0, fmt.Errorf("%w: fib(%d) = %v", ErrOverflow, n, out[0])
	}
	return int64(r), nil
}
