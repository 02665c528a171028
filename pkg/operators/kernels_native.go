//go:build !gocv

package operators

func defaultKernels() kernels {
	return nativeKernels()
}
