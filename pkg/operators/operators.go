// Package operators ships the reference image operators. Register is the
// extension entry point: applications call it once at start-up to fill their
// registry.
package operators

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/operator"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
	"github.com/askiada/go-cvpipe/pkg/pipeline/registry"
)

// Type identifiers of the reference operators.
const (
	Brighten     = "brighten"
	Grayscale    = "grayscale"
	GaussianBlur = "gaussian_blur"
	ColorSpace   = "color_space"
	Threshold    = "threshold"
	Invert       = "invert"
	Flip         = "flip"
)

var (
	ErrUnsupportedChannels = errors.New("unsupported number of channels")
	ErrEvenKernelSize      = errors.New("kernel size must be odd")
)

type definition struct {
	fn          operator.ApplyFunc
	typeID      string
	displayName string
	specs       []param.Spec
}

// kernels holds the implementations of the operators with an OpenCV
// counterpart. Builds with the gocv tag swap them for OpenCV calls.
type kernels struct {
	gaussianBlur operator.ApplyFunc
	colorSpace   operator.ApplyFunc
	threshold    operator.ApplyFunc
	flip         operator.ApplyFunc
}

func nativeKernels() kernels {
	return kernels{
		gaussianBlur: gaussianBlur,
		colorSpace:   colorSpace,
		threshold:    threshold,
		flip:         flip,
	}
}

func definitions() []definition {
	impl := defaultKernels()

	return []definition{
		{
			typeID:      Brighten,
			displayName: "Brighten",
			fn:          brighten,
			specs:       []param.Spec{param.Int{Name: "amount", Lower: -255, Upper: 255, Step: 1}},
		},
		{
			typeID:      Grayscale,
			displayName: "Grayscale",
			fn:          grayscale,
		},
		{
			typeID:      GaussianBlur,
			displayName: "Gaussian Blur",
			fn:          impl.gaussianBlur,
			specs: []param.Spec{
				param.Int{Name: "kernel_size", Lower: 1, Upper: 31, Step: 2, Default: 3},
				param.Double{Name: "sigma", Lower: 0, Upper: 10, Step: 0.1},
			},
		},
		{
			typeID:      ColorSpace,
			displayName: "Color Space",
			fn:          impl.colorSpace,
			specs: []param.Spec{param.Enum{
				Name:    "conversion",
				Values:  []string{BGR2RGB, BGR2GRAY, GRAY2BGR, BGR2HSV},
				Default: BGR2RGB,
			}},
		},
		{
			typeID:      Threshold,
			displayName: "Threshold",
			fn:          impl.threshold,
			specs: []param.Spec{
				param.Int{Name: "threshold", Lower: 0, Upper: 255, Step: 1, Default: 127},
				param.Bool{Name: "invert"},
			},
		},
		{
			typeID:      Invert,
			displayName: "Invert",
			fn:          invert,
		},
		{
			typeID:      Flip,
			displayName: "Flip",
			fn:          impl.flip,
			specs: []param.Spec{param.Enum{
				Name:    "axis",
				Values:  []string{FlipHorizontal, FlipVertical, FlipBoth},
				Default: FlipHorizontal,
			}},
		},
	}
}

// Register adds every reference operator to reg, in a fixed order.
func Register(reg *registry.Registry) error {
	for _, def := range definitions() {
		err := reg.Register(def.typeID, factory(def))
		if err != nil {
			return errors.Wrapf(err, "unable to register operator %s", def.typeID)
		}
	}

	return nil
}

func factory(def definition) registry.Factory {
	return func() (operator.Operator, error) {
		op, err := operator.NewFunc(def.typeID, def.displayName, def.fn, def.specs...)
		if err != nil {
			return nil, err
		}

		return op, nil
	}
}

func requireChannels(img mat.Mat, allowed ...int) error {
	for _, c := range allowed {
		if img.Channels == c {
			return nil
		}
	}

	return errors.Wrapf(ErrUnsupportedChannels, "got %d, want one of %v", img.Channels, allowed)
}

// colorChannels returns the number of leading channels holding colour, so
// alpha is left untouched.
func colorChannels(img mat.Mat) int {
	if img.Channels == 4 {
		return 3
	}

	return img.Channels
}
