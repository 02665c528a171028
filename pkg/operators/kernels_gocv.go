//go:build gocv

package operators

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
)

func defaultKernels() kernels {
	return gocvKernels()
}

func gocvKernels() kernels {
	return kernels{
		gaussianBlur: gocvGaussianBlur,
		colorSpace:   gocvColorSpace,
		threshold:    gocvThreshold,
		flip:         gocvFlip,
	}
}

// withGoCV runs transform over an OpenCV copy of img and copies the result back.
func withGoCV(img mat.Mat, transform func(src gocv.Mat, dst *gocv.Mat) error) (mat.Mat, error) {
	src, err := mat.ToGoCV(img)
	if err != nil {
		return mat.Mat{}, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	err = transform(src, &dst)
	if err != nil {
		return mat.Mat{}, err
	}

	return mat.FromGoCV(dst)
}

func gocvGaussianBlur(img mat.Mat, params *param.Set, ctx *model.Context) (mat.Mat, error) {
	ksize, sigma, err := blurSettings(params, ctx)
	if err != nil {
		return mat.Mat{}, err
	}

	return withGoCV(img, func(src gocv.Mat, dst *gocv.Mat) error {
		err := gocv.GaussianBlur(src, dst, image.Pt(ksize, ksize), sigma, sigma, gocv.BorderReflect101)
		return errors.Wrap(err, "unable to blur")
	})
}

func gocvColorSpace(img mat.Mat, params *param.Set, _ *model.Context) (mat.Mat, error) {
	conversion := params.String("conversion")

	var (
		code    gocv.ColorConversionCode
		allowed []int
	)

	switch conversion {
	case BGR2RGB:
		code, allowed = gocv.ColorBGRToRGB, []int{3, 4}
		if img.Channels == 4 {
			code = gocv.ColorBGRAToRGBA
		}
	case BGR2GRAY:
		if img.Channels == 1 {
			return img.Clone(), nil
		}

		code, allowed = gocv.ColorBGRToGray, []int{3, 4}
		if img.Channels == 4 {
			code = gocv.ColorBGRAToGray
		}
	case GRAY2BGR:
		code, allowed = gocv.ColorGrayToBGR, []int{1}
	case BGR2HSV:
		code, allowed = gocv.ColorBGRToHSV, []int{3}
	default:
		return mat.Mat{}, errors.Errorf("unknown conversion %q", conversion)
	}

	err := requireChannels(img, allowed...)
	if err != nil {
		return mat.Mat{}, err
	}

	return withGoCV(img, func(src gocv.Mat, dst *gocv.Mat) error {
		return errors.Wrapf(gocv.CvtColor(src, dst, code), "unable to convert %s", conversion)
	})
}

func gocvThreshold(img mat.Mat, params *param.Set, _ *model.Context) (mat.Mat, error) {
	level := float32(params.Int("threshold"))

	typ := gocv.ThresholdBinary
	if params.Bool("invert") {
		typ = gocv.ThresholdBinaryInv
	}

	out, err := withGoCV(img, func(src gocv.Mat, dst *gocv.Mat) error {
		gocv.Threshold(src, dst, level, 255, typ)
		return nil
	})
	if err != nil {
		return mat.Mat{}, err
	}

	// OpenCV thresholds alpha too.
	if img.Channels == 4 {
		for px := 3; px < len(out.Data); px += 4 {
			out.Data[px] = img.Data[px]
		}
	}

	return out, nil
}

func gocvFlip(img mat.Mat, params *param.Set, _ *model.Context) (mat.Mat, error) {
	// OpenCV flip codes: 0 mirrors rows, 1 mirrors columns, -1 both.
	code := 1

	switch params.String("axis") {
	case FlipVertical:
		code = 0
	case FlipBoth:
		code = -1
	}

	return withGoCV(img, func(src gocv.Mat, dst *gocv.Mat) error {
		gocv.Flip(src, dst, code)
		return nil
	})
}
