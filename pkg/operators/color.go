package operators

import (
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-cvpipe/pkg/pipeline/mat"
	"github.com/askiada/go-cvpipe/pkg/pipeline/model"
	"github.com/askiada/go-cvpipe/pkg/pipeline/param"
)

// Conversions supported by the color_space operator.
const (
	BGR2RGB  = "BGR2RGB"
	BGR2GRAY = "BGR2GRAY"
	GRAY2BGR = "GRAY2BGR"
	BGR2HSV  = "BGR2HSV"
)

// Fixed point BT.601 weights, scaled by 1<<14.
const (
	grayShift = 14
	grayB     = 1868
	grayG     = 9617
	grayR     = 4899
	grayRound = 1 << (grayShift - 1)
)

func saturate(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(v)
	}
}

func brighten(img mat.Mat, params *param.Set, _ *model.Context) (mat.Mat, error) {
	amount := params.Int("amount")
	colors := colorChannels(img)
	out := img.Clone()

	for px := 0; px < len(out.Data); px += out.Channels {
		for c := range colors {
			out.Data[px+c] = saturate(int(out.Data[px+c]) + amount)
		}
	}

	return out, nil
}

func grayscale(img mat.Mat, _ *param.Set, _ *model.Context) (mat.Mat, error) {
	return toGray(img)
}

func toGray(img mat.Mat) (mat.Mat, error) {
	err := requireChannels(img, 1, 3, 4)
	if err != nil {
		return mat.Mat{}, err
	}

	if img.Channels == 1 {
		return img.Clone(), nil
	}

	out, err := img.Like(1)
	if err != nil {
		return mat.Mat{}, err
	}

	for i := range out.Data {
		px := img.Data[i*img.Channels:]
		out.Data[i] = uint8((int(px[0])*grayB + int(px[1])*grayG + int(px[2])*grayR + grayRound) >> grayShift)
	}

	return out, nil
}

func colorSpace(img mat.Mat, params *param.Set, _ *model.Context) (mat.Mat, error) {
	conversion := params.String("conversion")

	switch conversion {
	case BGR2RGB:
		return swapRB(img)
	case BGR2GRAY:
		return toGray(img)
	case GRAY2BGR:
		return grayToBGR(img)
	case BGR2HSV:
		return toHSV(img)
	default:
		return mat.Mat{}, errors.Errorf("unknown conversion %q", conversion)
	}
}

func swapRB(img mat.Mat) (mat.Mat, error) {
	err := requireChannels(img, 3, 4)
	if err != nil {
		return mat.Mat{}, err
	}

	out := img.Clone()
	for px := 0; px < len(out.Data); px += out.Channels {
		out.Data[px], out.Data[px+2] = out.Data[px+2], out.Data[px]
	}

	return out, nil
}

func grayToBGR(img mat.Mat) (mat.Mat, error) {
	err := requireChannels(img, 1)
	if err != nil {
		return mat.Mat{}, err
	}

	out, err := img.Like(3)
	if err != nil {
		return mat.Mat{}, err
	}

	for i, v := range img.Data {
		out.Data[i*3], out.Data[i*3+1], out.Data[i*3+2] = v, v, v
	}

	return out, nil
}

// toHSV follows the 8-bit OpenCV layout: hue is halved to fit 0..180.
func toHSV(img mat.Mat) (mat.Mat, error) {
	err := requireChannels(img, 3)
	if err != nil {
		return mat.Mat{}, err
	}

	out, err := img.Like(3)
	if err != nil {
		return mat.Mat{}, err
	}

	for px := 0; px < len(img.Data); px += 3 {
		b, g, r := float64(img.Data[px]), float64(img.Data[px+1]), float64(img.Data[px+2])
		maxV := math.Max(b, math.Max(g, r))
		minV := math.Min(b, math.Min(g, r))
		diff := maxV - minV

		var hue, sat float64
		if maxV > 0 {
			sat = diff * 255 / maxV
		}

		if diff > 0 {
			switch maxV {
			case r:
				hue = 60 * (g - b) / diff
			case g:
				hue = 120 + 60*(b-r)/diff
			default:
				hue = 240 + 60*(r-g)/diff
			}

			if hue < 0 {
				hue += 360
			}
		}

		out.Data[px] = saturate(int(math.Round(hue / 2)))
		out.Data[px+1] = saturate(int(math.Round(sat)))
		out.Data[px+2] = uint8(maxV)
	}

	return out, nil
}

func invert(img mat.Mat, _ *param.Set, _ *model.Context) (mat.Mat, error) {
	colors := colorChannels(img)
	out := img.Clone()

	for px := 0; px < len(out.Data); px += out.Channels {
		for c := range colors {
			out.Data[px+c] = math.MaxUint8 - out.Data[px+c]
		}
	}

	return out, nil
}

// threshold is a binary threshold: values strictly above the level become 255.
func threshold(img mat.Mat, params *param.Set, _ *model.Context) (mat.Mat, error) {
	level := uint8(params.Int("threshold"))
	high, low := uint8(math.MaxUint8), uint8(0)

	if params.Bool("invert") {
		high, low = low, high
	}

	colors := colorChannels(img)
	out := img.Clone()

	for px := 0; px < len(out.Data); px += out.Channels {
		for c := range colors {
			if out.Data[px+c] > level {
				out.Data[px+c] = high
			} else {
				out.Data[px+c] = low
			}
		}
	}

	return out, nil
}
