package operators

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
)

// gaussianBlur applies a separable Gaussian kernel with reflect-101 borders.
// A zero sigma is derived from the kernel size.
func gaussianBlur(img mat.Mat, params *param.Set, ctx *model.Context) (mat.Mat, error) {
	ksize, sigma, err := blurSettings(params, ctx)
	if err != nil {
		return mat.Mat{}, err
	}

	kernel := gaussianKernel(ksize, sigma)

	horizontal := make([]float64, len(img.Data))
	for row := range img.Rows {
		for col := range img.Cols {
			for c := range img.Channels {
				var acc float64
				for k, w := range kernel {
					src := reflect101(col+k-ksize/2, img.Cols)
					acc += w * float64(img.Data[(row*img.Cols+src)*img.Channels+c])
				}

				horizontal[(row*img.Cols+col)*img.Channels+c] = acc
			}
		}
	}

	out, err := img.Like(img.Channels)
	if err != nil {
		return mat.Mat{}, err
	}

	for row := range img.Rows {
		for col := range img.Cols {
			for c := range img.Channels {
				var acc float64
				for k, w := range kernel {
					src := reflect101(row+k-ksize/2, img.Rows)
					acc += w * horizontal[(src*img.Cols+col)*img.Channels+c]
				}

				out.Data[(row*img.Cols+col)*img.Channels+c] = saturate(int(math.Round(acc)))
			}
		}
	}

	return out, nil
}

// blurSettings reads the kernel size and sigma of a blur. A zero sigma is
// derived from the kernel size and the derived value noted in ctx.
func blurSettings(params *param.Set, ctx *model.Context) (int, float64, error) {
	ksize := params.Int("kernel_size")
	if ksize%2 == 0 {
		return 0, 0, errors.Wrapf(ErrEvenKernelSize, "got %d", ksize)
	}

	sigma := params.Float("sigma")
	if sigma <= 0 {
		sigma = defaultSigma(ksize)

		if ctx != nil {
			ctx.Note(fmt.Sprintf("sigma derived from kernel size: %.3f", sigma))
		}
	}

	return ksize, sigma, nil
}

func defaultSigma(ksize int) float64 {
	return 0.3*(float64(ksize-1)*0.5-1) + 0.8
}

func gaussianKernel(ksize int, sigma float64) []float64 {
	kernel := make([]float64, ksize)
	center := float64(ksize / 2)

	var sum float64

	for i := range kernel {
		x := float64(i) - center
		kernel[i] = math.Exp(-(x * x) / (2 * sigma * sigma))
		sum += kernel[i]
	}

	for i := range kernel {
		kernel[i] /= sum
	}

	return kernel
}

// reflect101 maps idx into [0, n) mirroring around the edge pixels (dcb|abcd|cba).
func reflect101(idx, n int) int {
	if n == 1 {
		return 0
	}

	for idx < 0 || idx >= n {
		if idx < 0 {
			idx = -idx
		}

		if idx >= n {
			idx = 2*n - 2 - idx
		}
	}

	return idx
}
