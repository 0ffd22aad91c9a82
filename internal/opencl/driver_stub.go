//go:build !gpu

package opencl

func newDriver() (driver, error) {
	return nil, ErrNotBuilt
}
